package piv

import (
	"github.com/coldglass/pivbox/bertlv"
)

// tag values inside the Application Property Template (§4.C6 "SELECT").
const (
	tagAPT      uint16 = 0x61
	tagAID      uint16 = 0x4f
	tagAuthority uint16 = 0x79
	tagAppLabel uint16 = 0x50
	tagAppURI   uint16 = 0x5f50
	tagAlgList  uint16 = 0xac
	tagAlgID    uint16 = 0x80
	tagObjID    uint16 = 0x06
)

// Select sends SELECT for the PIV AID and parses the Application
// Property Template (§4.C6 "SELECT"). It is idempotent per §8 invariant
// 4: calling it twice never duplicates Algorithms.
func (tok *Token) Select() error {
	if err := tok.requireTxn(); err != nil {
		return err
	}

	body, s, err := tok.transmit(insSelectApplication, 0x04, 0x00, aidPIV, true)
	if err != nil {
		return err
	}
	if s != swSuccess {
		return wrapErr(KindIOError, "selecting piv applet", apduError(s))
	}

	if len(body) > 0 {
		if err := tok.parseAPT(body); err != nil {
			return err
		}
	}
	tok.selected = true
	return nil
}

func (tok *Token) parseAPT(body []byte) error {
	top, err := bertlv.ParseSequence(body)
	if err != nil {
		return wrapErr(KindPIVTagError, "parsing select response", err)
	}
	aptValue, ok := bertlv.Find(top, tagAPT)
	if !ok {
		// Some cards answer SELECT with the APT fields at the top level
		// rather than wrapped in 61; tolerate both.
		aptValue = body
	}
	fields, err := bertlv.ParseSequence(aptValue)
	if err != nil {
		return wrapErr(KindPIVTagError, "parsing application property template", err)
	}

	for _, f := range fields {
		switch f.Tag {
		case tagAID, tagAuthority:
			// Recognized, not retained.
		case tagAppLabel:
			tok.AppLabel = string(f.Value)
		case tagAppURI:
			tok.AppURI = string(f.Value)
		case tagAlgList:
			tok.mergeAlgorithms(f.Value)
		default:
			return newErr(KindPIVTagError, "unexpected tag in application property template")
		}
	}
	return nil
}

func (tok *Token) mergeAlgorithms(algList []byte) {
	entries, err := bertlv.ParseSequence(algList)
	if err != nil {
		return
	}
	seen := make(map[Algorithm]bool, len(tok.Algorithms))
	for _, a := range tok.Algorithms {
		seen[a] = true
	}
	for _, e := range entries {
		if e.Tag != tagAlgID || len(e.Value) == 0 {
			continue
		}
		alg := Algorithm(e.Value[0])
		if !seen[alg] {
			seen[alg] = true
			tok.Algorithms = append(tok.Algorithms, alg)
		}
		// tagObjID (06) entries are skipped per §4.C6.
	}
}

// SupportsAlgorithm reports whether the card advertised alg during
// Select.
func (tok *Token) SupportsAlgorithm(alg Algorithm) bool {
	for _, a := range tok.Algorithms {
		if a == alg {
			return true
		}
	}
	return false
}
