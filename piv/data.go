package piv

import "github.com/coldglass/pivbox/bertlv"

// getData issues GET DATA for the given BER object tag, wrapped in a `5C`
// tag-list per NIST SP 800-73-4, and returns the container's raw payload
// (not yet unwrapped from its own outer `53` tag, since some callers —
// certificates — need the outer container's siblings too).
func (tok *Token) getData(tag uint32) ([]byte, statusWord, error) {
	body, s, err := tok.transmit(insGetData, 0x3f, 0xff, bertlv.Build(0x5c, encodeObjTag(tag)), true)
	if err != nil {
		return nil, 0, err
	}
	return body, s, nil
}

// putData issues PUT DATA for tag with the given raw `53`-wrapped value.
func (tok *Token) putData(tag uint32, value []byte) (statusWord, error) {
	req := bertlv.BuildAll(
		bertlv.Node{Tag: 0x5c, Value: encodeObjTag(tag)},
		bertlv.Node{Tag: 0x53, Value: value},
	)
	_, s, err := tok.transmit(insPutData, 0x3f, 0xff, req, false)
	return s, err
}

// encodeObjTag renders a PIV object tag (e.g. 0x5FC102) as its minimal
// big-endian byte form for the `5C` tag-list field.
func encodeObjTag(tag uint32) []byte {
	switch {
	case tag <= 0xff:
		return []byte{byte(tag)}
	case tag <= 0xffff:
		return []byte{byte(tag >> 8), byte(tag)}
	default:
		return []byte{byte(tag >> 16), byte(tag >> 8), byte(tag)}
	}
}

// unwrap53 strips the outer `53` GET DATA container, if present, and
// returns its children.
func unwrap53(body []byte) ([]bertlv.Node, error) {
	top, err := bertlv.ParseSequence(body)
	if err != nil {
		return nil, err
	}
	if v, ok := bertlv.Find(top, 0x53); ok {
		return bertlv.ParseSequence(v)
	}
	return top, nil
}
