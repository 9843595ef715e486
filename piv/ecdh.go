package piv

import (
	"crypto/ecdh"
)

// curveForAlgorithm maps a slot's ECC algorithm to its crypto/ecdh curve
// (§4.C8 "ecdh").
func curveForAlgorithm(alg Algorithm) (ecdh.Curve, bool) {
	switch alg {
	case AlgECCP256:
		return ecdh.P256(), true
	case AlgECCP384:
		return ecdh.P384(), true
	}
	return nil, false
}

// ECDH performs a card-side ECDH key agreement between slot id's private
// key and peer, returning the raw shared secret (the agreed point's
// x-coordinate, §4.C8 "ecdh"). The card never returns the static private
// key; only the agreed secret crosses the channel.
func (tok *Token) ECDH(id SlotID, peer *ecdh.PublicKey) ([]byte, error) {
	if err := tok.requireSelected(); err != nil {
		return nil, err
	}
	slot := tok.Slot(id)
	if slot == nil {
		return nil, newErr(KindNotFound, "slot not catalogued; call ReadCert or GenerateKey first")
	}
	if _, ok := curveForAlgorithm(slot.Algorithm); !ok {
		return nil, newErr(KindBadAlgorithm, "slot algorithm does not support ecdh")
	}

	req := bertlvAuthChallenge(0x85, peer.Bytes())
	body, s, err := tok.transmit(insGeneralAuthenticate, byte(slot.Algorithm), byte(id), req, true)
	if err != nil {
		return nil, err
	}
	if s != swSuccess {
		return nil, mapSignError(slot, s)
	}
	secret, ok := parseAuthTLVVar(body, 0x82)
	if !ok {
		return nil, newErr(KindInvalidData, "malformed ecdh response")
	}
	return secret, nil
}
