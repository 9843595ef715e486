package piv

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"math/big"

	"github.com/coldglass/pivbox/bertlv"
)

const (
	tagGenAlgorithm uint16 = 0x80
	tagGenPinPolicy uint16 = 0xaa
	tagGenTouchPolicy uint16 = 0xab
	tagGenImportKey uint16 = 0xac

	tagPubTemplate uint16 = 0x7f49
	tagRSAModulus  uint16 = 0x81
	tagRSAExponent uint16 = 0x82
	tagECPoint     uint16 = 0x86
)

// GenerateKey generates a fresh key pair in slot id on the card (§4.C8
// "generate"), requiring prior management-key authentication. The
// private key never leaves the card; the returned public key is parsed
// from the GENERATE ASYMMETRIC command's response template.
func (tok *Token) GenerateKey(id SlotID, alg Algorithm, pin PinPolicy, touch TouchPolicy) (crypto.PublicKey, error) {
	if err := tok.requireSelected(); err != nil {
		return nil, err
	}

	nodes := []bertlv.Node{{Tag: tagGenAlgorithm, Value: []byte{byte(alg)}}}
	if pin != PinPolicyDefault {
		nodes = append(nodes, bertlv.Node{Tag: tagGenPinPolicy, Value: []byte{byte(pin)}})
	}
	if touch != TouchPolicyDefault {
		nodes = append(nodes, bertlv.Node{Tag: tagGenTouchPolicy, Value: []byte{byte(touch)}})
	}
	req := bertlv.Build(tagGenImportKey, bertlv.BuildAll(nodes...))

	body, s, err := tok.transmit(insGenerateAsymmetric, 0x00, byte(id), req, true)
	if err != nil {
		return nil, err
	}
	if s != swSuccess {
		return nil, mapGenerateError(s)
	}

	pub, err := parsePublicKeyTemplate(body, alg)
	if err != nil {
		return nil, err
	}

	slot := tok.slotOrCreate(id)
	slot.Algorithm = alg
	slot.PublicKey = pub
	slot.Auth.PIN = pin != PinPolicyNever
	slot.Auth.Touch = touch == TouchPolicyAlways || touch == TouchPolicyCached
	return pub, nil
}

func mapGenerateError(s statusWord) error {
	switch s {
	case swSecurityStatus:
		return newErr(KindPermission, "management key authentication required")
	case swIncorrectP1P2, swFuncNotSupported:
		return newErr(KindBadAlgorithm, "unsupported algorithm or policy for this slot")
	case swOutOfMemory:
		return newErr(KindDeviceOutOfMemory, "not enough memory on card to generate key")
	default:
		return wrapErr(KindIOError, "generating key", apduError(s))
	}
}

func parsePublicKeyTemplate(body []byte, alg Algorithm) (crypto.PublicKey, error) {
	top, err := bertlv.ParseSequence(body)
	if err != nil {
		return nil, wrapErr(KindPIVTagError, "parsing public key template", err)
	}
	tmpl, ok := bertlv.Find(top, tagPubTemplate)
	if !ok {
		tmpl = body
	}
	fields, err := bertlv.ParseSequence(tmpl)
	if err != nil {
		return nil, wrapErr(KindPIVTagError, "parsing public key fields", err)
	}

	switch {
	case isRSA(alg):
		modulus, _ := bertlv.Find(fields, tagRSAModulus)
		exponent, _ := bertlv.Find(fields, tagRSAExponent)
		if modulus == nil || exponent == nil {
			return nil, newErr(KindInvalidData, "missing rsa public key fields")
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(modulus),
			E: int(new(big.Int).SetBytes(exponent).Int64()),
		}, nil
	default:
		point, _ := bertlv.Find(fields, tagECPoint)
		if point == nil {
			return nil, newErr(KindInvalidData, "missing ec public key point")
		}
		curve := ellipticCurveForAlgorithm(baseECAlgorithm(alg))
		if curve == nil {
			return nil, newErr(KindBadAlgorithm, "unsupported ec algorithm")
		}
		x, y := elliptic.Unmarshal(curve, point)
		if x == nil {
			return nil, newErr(KindInvalidData, "malformed ec public key point")
		}
		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
	}
}

func baseECAlgorithm(alg Algorithm) Algorithm {
	switch alg {
	case AlgECCP256SHA1, AlgECCP256SHA256:
		return AlgECCP256
	case AlgECCP384SHA1, AlgECCP384SHA256, AlgECCP384SHA384:
		return AlgECCP384
	}
	return alg
}

func ellipticCurveForAlgorithm(alg Algorithm) elliptic.Curve {
	switch alg {
	case AlgECCP256:
		return elliptic.P256()
	case AlgECCP384:
		return elliptic.P384()
	}
	return nil
}

// ImportKey loads an off-card-generated private key into slot id
// (YubicoPIV INS 0xFE, §4.C8 "import"). It does not update the token's
// Key History; OffCardCount bookkeeping is the caller's responsibility via
// WriteKeyHistory, matching how the teacher separates ykpiv's
// SetMetadata from its key-history accounting.
func (tok *Token) ImportKey(id SlotID, alg Algorithm, key crypto.PrivateKey, pin PinPolicy, touch TouchPolicy) error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	if !tok.IsYkpiv {
		return newErr(KindNotSupported, "import requires yubicopiv")
	}

	payload, err := encodeImportPayload(alg, key)
	if err != nil {
		return err
	}

	_, s, err := tok.transmit(insImportKey, byte(alg), byte(id), payload, false)
	if err != nil {
		return err
	}
	if s != swSuccess {
		return mapGenerateError(s)
	}

	slot := tok.slotOrCreate(id)
	slot.Algorithm = alg
	slot.PublicKey = publicKeyOf(key)
	slot.Auth.PIN = pin != PinPolicyNever
	slot.Auth.Touch = touch == TouchPolicyAlways || touch == TouchPolicyCached
	tok.mustResetOnEnd = true
	return nil
}

func publicKeyOf(key crypto.PrivateKey) crypto.PublicKey {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return &k.PublicKey
	case *ecdsa.PrivateKey:
		return &k.PublicKey
	case *ecdh.PrivateKey:
		return k.PublicKey()
	}
	return nil
}

// encodeImportPayload renders a private key in the raw CRT/scalar form
// YubicoPIV's IMPORT PRIVATE KEY expects: RSA as the five CRT
// parameters (p, q, dp, dq, qinv) under tags 01-05, EC as the raw
// scalar under tag 06.
func encodeImportPayload(alg Algorithm, key crypto.PrivateKey) ([]byte, error) {
	switch {
	case isRSA(alg):
		rk, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, newErr(KindArgument, "algorithm requires an rsa private key")
		}
		rk.Precompute()
		size := (rk.Size() + 1) / 2
		out := append(tlvParam(0x01, rk.Primes[0], size), tlvParam(0x02, rk.Primes[1], size)...)
		out = append(out, tlvParam(0x03, rk.Precomputed.Dp, size)...)
		out = append(out, tlvParam(0x04, rk.Precomputed.Dq, size)...)
		out = append(out, tlvParam(0x05, rk.Precomputed.Qinv, size)...)
		return out, nil
	default:
		ek, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, newErr(KindArgument, "algorithm requires an ecdsa private key")
		}
		size := (ek.Curve.Params().BitSize + 7) / 8
		return tlvParam(0x06, ek.D, size), nil
	}
}

func tlvParam(tag byte, v *big.Int, size int) []byte {
	b := make([]byte, size)
	vb := v.Bytes()
	copy(b[size-len(vb):], vb)
	return append(appendLen([]byte{tag}, size), b...)
}

// Attest returns a card-signed X.509 certificate attesting that slot
// id's key pair was generated on-device (YubicoPIV INS 0xF9, §4.C8
// "attest"). The certificate is signed by the device's intermediate
// attestation key (slot 0xF9).
func (tok *Token) Attest(id SlotID) (*x509.Certificate, error) {
	if err := tok.requireSelected(); err != nil {
		return nil, err
	}
	if !tok.IsYkpiv {
		return nil, newErr(KindNotSupported, "attest requires yubicopiv")
	}

	body, s, err := tok.transmit(insAttest, 0x00, byte(id), nil, true)
	if err != nil {
		return nil, err
	}
	if s != swSuccess {
		return nil, wrapErr(KindIOError, "attesting slot", apduError(s))
	}
	cert, err := x509.ParseCertificate(body)
	if err != nil {
		return nil, wrapErr(KindExtensionInvalid, "parsing attestation certificate", err)
	}
	return cert, nil
}
