package piv

import "github.com/coldglass/pivbox/bertlv"

// ReadFile performs a raw GET DATA against an arbitrary PIV object tag,
// returning the object's `53`-unwrapped payload (§4.C6 "Generic object
// access"). Use the typed readers (ReadCHUID, ReadCert, ...) where one
// exists; this is for vendor-defined or caller-defined object tags.
func (tok *Token) ReadFile(tag uint32) ([]byte, error) {
	if err := tok.requireSelected(); err != nil {
		return nil, err
	}
	body, s, err := tok.getData(tag)
	if err != nil {
		return nil, err
	}
	if s == swFileNotFound || s == swWrongData {
		return nil, newErr(KindNotFound, "object not found")
	}
	if s != swSuccess {
		return nil, wrapErr(KindIOError, "reading object", apduError(s))
	}
	top, err := bertlv.ParseSequence(body)
	if err != nil {
		return nil, wrapErr(KindPIVTagError, "parsing object container", err)
	}
	if v, ok := bertlv.Find(top, 0x53); ok {
		return v, nil
	}
	return body, nil
}

// WriteFile performs a raw PUT DATA against tag with a pre-built `53`
// value, requiring prior management-key authentication.
func (tok *Token) WriteFile(tag uint32, value []byte) error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	s, err := tok.putData(tag, value)
	if err != nil {
		return err
	}
	if s != swSuccess {
		return wrapErr(KindIOError, "writing object", apduError(s))
	}
	tok.mustResetOnEnd = true
	return nil
}
