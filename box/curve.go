package box

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
)

// ecdhPublicKeyOf converts a certificate/metadata public key (always
// *ecdsa.PublicKey for the curves PIV supports) into the ecdh.PublicKey
// the box's ECDH math operates on.
func ecdhPublicKeyOf(pub crypto.PublicKey) (*ecdh.PublicKey, error) {
	ecdsaPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, newErr(KindCurve, "recipient public key is not ecdsa/ecdh")
	}
	ecdhPub, err := ecdsaPub.ECDH()
	if err != nil {
		return nil, wrapErr(KindCurve, "converting recipient public key", err)
	}
	return ecdhPub, nil
}

// curveNames maps the wire cstring8 curve_name field (§6) to a
// crypto/ecdh curve and back.
var curveNames = map[string]ecdh.Curve{
	"nistp256": ecdh.P256(),
	"nistp384": ecdh.P384(),
	"nistp521": ecdh.P521(),
}

func curveName(c ecdh.Curve) (string, error) {
	switch c {
	case ecdh.P256():
		return "nistp256", nil
	case ecdh.P384():
		return "nistp384", nil
	case ecdh.P521():
		return "nistp521", nil
	default:
		return "", newErr(KindCurve, "unsupported curve")
	}
}

func curveByName(name string) (ecdh.Curve, error) {
	c, ok := curveNames[name]
	if !ok {
		return nil, newErr(KindCurve, "unknown curve "+name)
	}
	return c, nil
}
