package box

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"

	"golang.org/x/crypto/ssh"
)

// marshalSSHPublicKey renders pub as an SSH wire-format public key blob
// (§6 "Legacy v1 variant"), the same shape piv-ssh-agent produces when
// exposing a PIV slot's public key to ssh-agent.
func marshalSSHPublicKey(pub *ecdh.PublicKey) ([]byte, error) {
	ecdsaPub, err := ecdhToECDSA(pub)
	if err != nil {
		return nil, err
	}
	sshPub, err := ssh.NewPublicKey(ecdsaPub)
	if err != nil {
		return nil, wrapErr(KindCurve, "marshaling ssh public key", err)
	}
	return sshPub.Marshal(), nil
}

// parseSSHPublicKey parses an SSH wire-format public key blob back into
// an ecdh.PublicKey and its curve.
func parseSSHPublicKey(blob []byte) (*ecdh.PublicKey, ecdh.Curve, error) {
	sshPub, err := ssh.ParsePublicKey(blob)
	if err != nil {
		return nil, nil, wrapErr(KindCurve, "parsing ssh public key", err)
	}
	cryptoPub, ok := sshPub.(ssh.CryptoPublicKey)
	if !ok {
		return nil, nil, newErr(KindCurve, "ssh key blob is not a crypto public key")
	}
	ecdsaPub, ok := cryptoPub.CryptoPublicKey().(*ecdsa.PublicKey)
	if !ok {
		return nil, nil, newErr(KindCurve, "ssh key blob is not an ecdsa public key")
	}
	ecdhPub, err := ecdsaPub.ECDH()
	if err != nil {
		return nil, nil, wrapErr(KindCurve, "converting ssh key to ecdh", err)
	}
	return ecdhPub, ecdhPub.Curve(), nil
}

func ecdhToECDSA(pub *ecdh.PublicKey) (*ecdsa.PublicKey, error) {
	curve, err := ellipticForECDH(pub.Curve())
	if err != nil {
		return nil, err
	}
	x, y := elliptic.Unmarshal(curve, pub.Bytes())
	if x == nil {
		return nil, newErr(KindCurve, "malformed ec point")
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

func ellipticForECDH(c ecdh.Curve) (elliptic.Curve, error) {
	switch c {
	case ecdh.P256():
		return elliptic.P256(), nil
	case ecdh.P384():
		return elliptic.P384(), nil
	case ecdh.P521():
		return elliptic.P521(), nil
	default:
		return nil, newErr(KindCurve, "unsupported curve")
	}
}
