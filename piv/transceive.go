package piv

import "fmt"

// transceiveOne drives exactly one request/response exchange over the
// token's open card channel (§4.C2). It is the only place in the package
// that calls Card.Transmit.
func (tok *Token) transceiveOne(a apdu) ([]byte, statusWord, error) {
	raw, err := a.marshal()
	if err != nil {
		return nil, 0, err
	}

	if tok.log.IsDebugEnabled() {
		tok.log.DebugMsgf("apdu > ins=%02x p1=%02x p2=%02x len=%d", a.instruction, a.param1, a.param2, len(a.data))
	}
	if tr := tok.trace; tr != nil && tr.Transmit != nil {
		tr.Transmit(raw)
	}

	resp, err := tok.card.Transmit(raw)
	if err != nil {
		return nil, 0, wrapErr(KindIOError, "transmitting apdu", err)
	}

	data, s, err := parseReply(resp)
	if err != nil {
		return nil, 0, err
	}

	if tr := tok.trace; tr != nil && tr.TransmitResult != nil {
		tr.TransmitResult(raw, resp, len(resp), byte(s>>8), byte(s))
	}
	if tok.log.IsDebugEnabled() {
		tok.log.DebugMsgf("apdu < sw=%04x len=%d", uint16(s), len(data))
	}

	return data, s, nil
}

// errFromStatus is a convenience used by callers that want the fallback
// §6 mapping (apduError) rather than a command-specific one.
func errFromStatus(s statusWord) error {
	if s == swSuccess {
		return nil
	}
	return fmt.Errorf("%w", apduError(s))
}
