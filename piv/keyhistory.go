package piv

import "github.com/coldglass/pivbox/bertlv"

const (
	tagKHOnCard  uint16 = 0xc1
	tagKHOffCard uint16 = 0xc2
	tagKHURL     uint16 = 0xf3
)

// ReadKeyHistory reads and parses the Key History object (§4.C6).
// Absence is tolerated and leaves KeyHistory zeroed.
func (tok *Token) ReadKeyHistory() error {
	if err := tok.requireSelected(); err != nil {
		return err
	}

	body, s, err := tok.getData(tagKeyHistory)
	if err != nil {
		return err
	}
	if s == swFileNotFound || s == swWrongData || s == swFuncNotSupported {
		return nil
	}
	if s != swSuccess {
		return wrapErr(KindIOError, "reading key history", apduError(s))
	}

	fields, err := unwrap53(body)
	if err != nil {
		return wrapErr(KindPIVTagError, "parsing key history", err)
	}

	var kh KeyHistory
	for _, f := range fields {
		switch f.Tag {
		case tagKHOnCard:
			if len(f.Value) > 0 {
				kh.OnCardCount = int(f.Value[0])
			}
		case tagKHOffCard:
			if len(f.Value) > 0 {
				kh.OffCardCount = int(f.Value[0])
			}
		case tagKHURL:
			kh.OffCardURL = string(f.Value)
		}
	}
	tok.KeyHistory = kh
	return nil
}

// WriteKeyHistory writes the Key History object (§4.C8). Requires a
// successful management-key authentication beforehand.
func (tok *Token) WriteKeyHistory(kh KeyHistory) error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	if kh.OnCardCount > 20 || kh.OffCardCount > 20 || kh.OnCardCount+kh.OffCardCount > 20 {
		return newErr(KindArgument, "oncard+offcard key history count exceeds 20")
	}
	if kh.OffCardCount > 0 && kh.OffCardURL == "" {
		return newErr(KindArgument, "offcard count requires an offcard url")
	}

	nodes := []bertlv.Node{
		{Tag: tagKHOnCard, Value: []byte{byte(kh.OnCardCount)}},
		{Tag: tagKHOffCard, Value: []byte{byte(kh.OffCardCount)}},
	}
	if kh.OffCardURL != "" {
		nodes = append(nodes, bertlv.Node{Tag: tagKHURL, Value: []byte(kh.OffCardURL)})
	}

	s, err := tok.putData(tagKeyHistory, bertlv.BuildAll(nodes...))
	if err != nil {
		return err
	}
	if s != swSuccess {
		return wrapErr(KindIOError, "writing key history", apduError(s))
	}
	tok.KeyHistory = kh
	tok.mustResetOnEnd = true
	return nil
}
