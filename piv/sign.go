package piv

import (
	"crypto"
)

// hashOIDPrefix is the DER-encoded DigestInfo AlgorithmIdentifier prefix
// for RSA PKCS#1 v1.5 signing (§4.C8 "sign", RSA branch). The card signs
// a host-built padded block; only the digest OID prefix and padding are
// the driver's responsibility, exactly as crypto/rsa.SignPKCS1v15 would
// build it for a software key.
var hashOIDPrefix = map[crypto.Hash][]byte{
	crypto.SHA1:   {0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x0e, 0x03, 0x02, 0x1a, 0x05, 0x00, 0x04, 0x14},
	crypto.SHA256: {0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20},
	crypto.SHA384: {0x30, 0x41, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x02, 0x05, 0x00, 0x04, 0x30},
	crypto.SHA512: {0x30, 0x51, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x03, 0x05, 0x00, 0x04, 0x40},
}

// hashOnCardVariant maps a base ECC algorithm and a supported hash to the
// JCOP22x hash-on-card AlgID variants (§6), when the card advertised one.
// When the card only advertised the base ECC algorithm, the caller must
// hash the message itself and pass the digest to Sign.
var hashOnCardVariant = map[Algorithm]map[crypto.Hash]Algorithm{
	AlgECCP256: {crypto.SHA1: AlgECCP256SHA1, crypto.SHA256: AlgECCP256SHA256},
	AlgECCP384: {crypto.SHA1: AlgECCP384SHA1, crypto.SHA256: AlgECCP384SHA256, crypto.SHA384: AlgECCP384SHA384},
}

// SignOpts configures Sign (§4.C8 "sign").
type SignOpts struct {
	// Hash identifies the digest algorithm digest was produced with (or,
	// for a hash-on-card variant, will be computed with on the card).
	Hash crypto.Hash
	// HashOnCard requests a JCOP22x hash-on-card variant, if the slot's
	// algorithm and Hash have one and the card advertised it during
	// Select. Message must then be the raw message, not a digest.
	HashOnCard bool
}

// Sign produces a PIV signature over digest (or, with HashOnCard, over
// the raw message) using the private key in slot (§4.C8 "sign"). The
// caller must have already authenticated any PIN/touch policy the slot
// requires.
func (tok *Token) Sign(id SlotID, opts SignOpts, message []byte) ([]byte, error) {
	if err := tok.requireSelected(); err != nil {
		return nil, err
	}
	slot := tok.Slot(id)
	if slot == nil {
		return nil, newErr(KindNotFound, "slot not catalogued; call ReadCert or GenerateKey first")
	}

	alg := slot.Algorithm
	payload := message
	if opts.HashOnCard {
		variants, ok := hashOnCardVariant[alg]
		if !ok {
			return nil, newErr(KindBadAlgorithm, "slot algorithm has no hash-on-card variant")
		}
		v, ok := variants[opts.Hash]
		if !ok {
			return nil, newErr(KindBadAlgorithm, "unsupported hash for hash-on-card signing")
		}
		if !tok.SupportsAlgorithm(v) {
			return nil, newErr(KindNotSupported, "card did not advertise hash-on-card variant")
		}
		alg = v
	} else if isRSA(slot.Algorithm) {
		block, err := rsaPaddedDigest(slot.Algorithm, opts.Hash, message)
		if err != nil {
			return nil, err
		}
		payload = block
	}

	req := bertlvAuthChallenge(0x81, payload)
	body, s, err := tok.transmit(insGeneralAuthenticate, byte(alg), byte(id), req, true)
	if err != nil {
		return nil, err
	}
	if s != swSuccess {
		return nil, mapSignError(slot, s)
	}
	sig, ok := parseAuthTLVVar(body, 0x82)
	if !ok {
		return nil, newErr(KindInvalidData, "malformed sign response")
	}
	return sig, nil
}

func isRSA(alg Algorithm) bool { return alg == AlgRSA1024 || alg == AlgRSA2048 }

// rsaPaddedDigest builds a PKCS#1 v1.5 signature padding block for the
// given RSA key size, matching what crypto/rsa.SignPKCS1v15 computes for
// a software key (§4.C8, RSA branch of "sign").
func rsaPaddedDigest(alg Algorithm, hash crypto.Hash, digest []byte) ([]byte, error) {
	prefix, ok := hashOIDPrefix[hash]
	if !ok {
		return nil, newErr(KindBadAlgorithm, "unsupported hash for rsa signing")
	}
	if len(digest) != hash.Size() {
		return nil, newErr(KindLength, "digest length does not match hash")
	}
	keyBytes := 128
	if alg == AlgRSA2048 {
		keyBytes = 256
	}
	tLen := len(prefix) + len(digest)
	if keyBytes < tLen+11 {
		return nil, newErr(KindLength, "rsa key too small for digest")
	}
	em := make([]byte, keyBytes)
	em[0] = 0x00
	em[1] = 0x01
	padLen := keyBytes - tLen - 3
	for i := 0; i < padLen; i++ {
		em[2+i] = 0xff
	}
	em[2+padLen] = 0x00
	copy(em[3+padLen:], prefix)
	copy(em[3+padLen+len(prefix):], digest)
	return em, nil
}

// mapSignError translates a non-success sign status word (§4.C8
// "sign"). 0x6982 also sets the slot's PIN auth bit: the card will only
// return that status after confirming the key itself requires PIN, so
// it's authoritative even if our prior catalog fusion missed it.
func mapSignError(slot *Slot, s statusWord) error {
	switch s {
	case swSecurityStatus:
		slot.Auth.PIN = true
		return newErr(KindPermission, "pin or touch required before signing")
	case swWrongData:
		return newErr(KindInvalidData, "card rejected sign payload")
	default:
		return wrapErr(KindIOError, "signing", apduError(s))
	}
}

// bertlvAuthChallenge builds the `7c` dynamic authentication template
// wrapping a single tag/value, used by both sign (tag 0x81) and ECDH
// (tag 0x85).
func bertlvAuthChallenge(tag byte, value []byte) []byte {
	req := []byte{0x7c, 0, tag}
	req = appendLen(req, len(value))
	req = append(req, value...)
	req[1] = byte(len(req) - 2)
	return req
}

func appendLen(b []byte, n int) []byte {
	if n < 0x80 {
		return append(b, byte(n))
	}
	if n <= 0xff {
		return append(b, 0x81, byte(n))
	}
	return append(b, 0x82, byte(n>>8), byte(n))
}

// parseAuthTLVVar extracts a variable-length value under tag from a `7c`
// dynamic authentication template response, tolerating short- or
// long-form lengths.
func parseAuthTLVVar(body []byte, tag byte) ([]byte, bool) {
	if len(body) < 3 || body[0] != 0x7c {
		return nil, false
	}
	i := 2
	if body[i] != tag {
		return nil, false
	}
	i++
	n, i, ok := readBerLen(body, i)
	if !ok || i+n > len(body) {
		return nil, false
	}
	return body[i : i+n], true
}

func readBerLen(b []byte, i int) (int, int, bool) {
	if i >= len(b) {
		return 0, i, false
	}
	first := b[i]
	i++
	if first < 0x80 {
		return int(first), i, true
	}
	nbytes := int(first & 0x7f)
	if nbytes == 0 || i+nbytes > len(b) {
		return 0, i, false
	}
	n := 0
	for k := 0; k < nbytes; k++ {
		n = n<<8 | int(b[i+k])
	}
	return n, i + nbytes, true
}
