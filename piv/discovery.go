package piv

import "github.com/coldglass/pivbox/bertlv"

const (
	tagDiscoveryAID    uint16 = 0x4f
	tagPINPolicy       uint16 = 0x5f2f
)

const (
	pinPolicyAppBit    = 0x4000
	pinPolicyGlobalBit = 0x2000
	pinPolicyOCCBit    = 0x1000
	pinPolicyVCIBit    = 0x0800

	pinPolicyPreferApp    = 0x10
	pinPolicyPreferGlobal = 0x20
)

// ReadDiscovery reads and parses the Discovery object (tag 0x7E, §4.C6).
// Absence defaults PreferredAuth to app-PIN, as does any "not supported"
// response.
func (tok *Token) ReadDiscovery() error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	tok.PreferredAuth = PreferredAuthAppPIN

	body, s, err := tok.getData(tagDiscovery)
	if err != nil {
		return err
	}
	if s == swFileNotFound || s == swWrongData || s == swFuncNotSupported {
		return nil
	}
	if s != swSuccess {
		return wrapErr(KindIOError, "reading discovery object", apduError(s))
	}

	top, err := bertlv.ParseSequence(body)
	if err != nil {
		return wrapErr(KindPIVTagError, "parsing discovery object", err)
	}
	fields, err := bertlv.ParseSequence(firstOr(top, tagDiscovery, body))
	if err != nil {
		return wrapErr(KindPIVTagError, "parsing discovery object", err)
	}

	for _, f := range fields {
		switch f.Tag {
		case tagDiscoveryAID:
			// AID cross-check: ignore mismatches rather than fail the
			// whole enumeration over a vendor quirk.
		case tagPINPolicy:
			if len(f.Value) < 2 {
				continue
			}
			word := uint16(f.Value[0])<<8 | uint16(f.Value[1])
			tok.Auth.AppPIN = word&pinPolicyAppBit != 0
			tok.Auth.GlobalPIN = word&pinPolicyGlobalBit != 0
			tok.Auth.OCC = word&pinPolicyOCCBit != 0
			tok.Auth.VCI = word&pinPolicyVCIBit != 0

			low := byte(word)
			switch {
			case low == pinPolicyPreferApp:
				tok.PreferredAuth = PreferredAuthAppPIN
			case low == pinPolicyPreferGlobal && tok.Auth.GlobalPIN:
				tok.PreferredAuth = PreferredAuthGlobalPIN
			default:
				switch {
				case tok.Auth.AppPIN:
					tok.PreferredAuth = PreferredAuthAppPIN
				case tok.Auth.GlobalPIN:
					tok.PreferredAuth = PreferredAuthGlobalPIN
				case tok.Auth.OCC:
					tok.PreferredAuth = PreferredAuthOCC
				default:
					tok.PreferredAuth = PreferredAuthAppPIN
				}
			}
		}
	}
	return nil
}

// firstOr returns the value under tag in top if present, else falls back
// to data (some cards omit the outer wrapper tag entirely).
func firstOr(top []bertlv.Node, tag uint16, data []byte) []byte {
	if v, ok := bertlv.Find(top, tag); ok {
		return v
	}
	return data
}
