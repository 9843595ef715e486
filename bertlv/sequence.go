package bertlv

// ParseSequence walks one level of BER-TLV encoded data and returns the
// tag/value pairs in encounter order, preserving repeats. Parse (the
// teacher's original decoder) flattens into a map keyed by tag, which
// loses information when the same tag appears more than once at a given
// nesting level — PIV's algorithm list (tag AC, repeated 80/06 pairs per
// supported algorithm) is exactly that shape, so callers that need
// repeated siblings use ParseSequence instead of Parse.
func ParseSequence(data []byte) ([]Node, error) {
	var out []Node
	for len(data) > 0 {
		tag, rest, err := readTag(data)
		if err != nil {
			return nil, err
		}
		length, rest, err := readLength(rest)
		if err != nil {
			return nil, err
		}
		if len(rest) < length {
			return nil, ErrNoBytesLeft
		}
		out = append(out, Node{Tag: tag, Value: rest[:length]})
		data = rest[length:]
	}
	return out, nil
}

func readTag(data []byte) (uint16, []byte, error) {
	if len(data) == 0 {
		return 0, nil, ErrNoBytesLeft
	}
	tag := uint16(data[0])
	rest := data[1:]
	if tag&longTagMaskValue == longTagMaskValue {
		for {
			if len(rest) == 0 {
				return 0, nil, ErrNoBytesLeft
			}
			b := rest[0]
			rest = rest[1:]
			tag = tag<<8 | uint16(b)
			if b&highBitMask != highBitMask {
				break
			}
		}
	}
	return tag, rest, nil
}

func readLength(data []byte) (int, []byte, error) {
	if len(data) == 0 {
		return 0, nil, ErrNoBytesLeft
	}
	first := data[0]
	rest := data[1:]
	if first&highBitMask == 0 {
		return int(first), rest, nil
	}
	n := int(first & sevenBitMask)
	if len(rest) < n {
		return 0, nil, ErrNoBytesLeft
	}
	length := 0
	for i := 0; i < n; i++ {
		length = length<<8 | int(rest[i])
	}
	return length, rest[n:], nil
}

// Find returns the value of the first node in seq with the given tag.
func Find(seq []Node, tag uint16) ([]byte, bool) {
	for _, n := range seq {
		if n.Tag == tag {
			return n.Value, true
		}
	}
	return nil, false
}

// FindAll returns the values of every node in seq with the given tag, in
// order, preserving repeats (e.g. the AC algorithm list's 80/06 pairs).
func FindAll(seq []Node, tag uint16) [][]byte {
	var out [][]byte
	for _, n := range seq {
		if n.Tag == tag {
			out = append(out, n.Value)
		}
	}
	return out
}
