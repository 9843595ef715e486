package piv

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
)

// adminBlockCipher returns the block cipher for a management-key
// algorithm (§4.C8 "admin_auth" is algorithm-parameterized: 3DES is the
// YubicoPIV factory default, AES-128/192/256 are available on firmware
// that advertises them via GET METADATA).
func adminBlockCipher(alg Algorithm, key []byte) (cipher.Block, int, error) {
	switch alg {
	case Alg3DES:
		if len(key) != 24 {
			return nil, 0, newErr(KindArgument, "3des management key must be 24 bytes")
		}
		b, err := des.NewTripleDESCipher(key)
		if err != nil {
			return nil, 0, wrapErr(KindArgument, "constructing 3des cipher", err)
		}
		return b, 8, nil
	case AlgAES128, AlgAES192, AlgAES256:
		want := map[Algorithm]int{AlgAES128: 16, AlgAES192: 24, AlgAES256: 32}[alg]
		if len(key) != want {
			return nil, 0, newErr(KindArgument, "aes management key has wrong length")
		}
		b, err := aes.NewCipher(key)
		if err != nil {
			return nil, 0, wrapErr(KindArgument, "constructing aes cipher", err)
		}
		return b, 16, nil
	default:
		return nil, 0, newErr(KindBadAlgorithm, "unsupported management key algorithm")
	}
}

// AdminAuth performs single-step challenge/response authentication
// against the card management slot (0x9B) for any of the four
// management-key algorithms (§4.C8 "admin_auth"). This is the only form
// of management-key auth the original driver implements — the two-step
// witness/mutual-auth variant GEN_AUTH also supports is deliberately not
// done here.
func (tok *Token) AdminAuth(alg Algorithm, key []byte) error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	block, blockSize, err := adminBlockCipher(alg, key)
	if err != nil {
		return err
	}

	req := []byte{0x7c, 0x02, 0x81, 0x00}
	body, s, err := tok.transmit(insGeneralAuthenticate, byte(alg), byte(SlotCardManagement), req, true)
	if err != nil {
		return err
	}
	if s != swSuccess {
		return mapAdminAuthError(s, false)
	}
	challenge, ok := parseAuthTLV(body, 0x81, blockSize)
	if !ok {
		return newErr(KindInvalidData, "malformed management key challenge")
	}

	iv := make([]byte, blockSize)
	response := make([]byte, blockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(response, challenge)

	data := append([]byte{0x7c, byte(2 + blockSize), 0x82, byte(blockSize)}, response...)

	body, s, err = tok.transmit(insGeneralAuthenticate, byte(alg), byte(SlotCardManagement), data, true)
	if err != nil {
		return err
	}
	if s != swSuccess {
		return mapAdminAuthError(s, true)
	}
	tok.mustResetOnEnd = true
	return nil
}

// parseAuthTLV extracts a fixed-length value under tag from a `7c`
// dynamic authentication template response.
func parseAuthTLV(body []byte, tag byte, length int) ([]byte, bool) {
	if len(body) < 4+length || body[0] != 0x7c {
		return nil, false
	}
	if body[2] != tag || int(body[3]) != length {
		return nil, false
	}
	return body[4 : 4+length], true
}

// mapAdminAuthError translates a non-success status word per §4.C8's
// admin_auth SW table. 0x6A80 is ambiguous by itself — "no admin key
// configured" before the challenge is issued (step2=false), or the
// card rejecting our response (step2=true, alongside 0x6982) — so the
// caller tells us which GEN_AUTH round the SW came from.
func mapAdminAuthError(s statusWord, step2 bool) error {
	switch {
	case s == swWrongData && !step2:
		return &Error{Kind: KindNotFound, Message: "no admin key configured", SW: uint16(s)}
	case s == swWrongData || s == swSecurityStatus:
		return &Error{Kind: KindPermission, Message: "management key challenge rejected", SW: uint16(s)}
	case s == swInsNotSupported:
		return &Error{Kind: KindNotSupported, Message: "admin authentication not supported", SW: uint16(s)}
	default:
		return wrapErr(KindIOError, "admin authentication", apduError(s))
	}
}
