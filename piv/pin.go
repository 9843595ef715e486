package piv

// PIN/PUK verification, change, and reset (§4.C8 "credential_auth"). The
// five-shape decision table from §3 is implemented by VerifyPIN together
// with PINRetriesRemaining. VerifyPIN, ChangePIN, and ResetPIN each map
// onto one NIST SP 800-73-4 command (VERIFY / CHANGE REFERENCE DATA /
// RESET RETRY COUNTER) parameterized by PINKind as P2.

// VerifyPIN authenticates kind's credential. minRetries, if greater than
// zero, asks VerifyPIN to probe the retry counter first (an empty
// VERIFY, via PINRetriesRemaining) and refuse with a KindMinRetries
// error instead of spending an attempt when the remaining count is
// already at or below minRetries; pass 0 to always attempt the PIN
// directly. On success the returned retries is -1. On a wrong-PIN
// failure it returns the retries-remaining count reported by the card
// and a KindPermission error with Retries set; callers should stop
// retrying once Retries reaches 0 rather than resubmit and trigger a
// permanent block.
func (tok *Token) VerifyPIN(kind PINKind, pin string, minRetries int) (retries int, err error) {
	if err := tok.requireSelected(); err != nil {
		return -1, err
	}
	if len(pin) == 0 || len(pin) > 8 {
		return -1, newErr(KindArgument, "pin must be 1-8 characters")
	}
	if minRetries > 0 {
		remaining, err := tok.PINRetriesRemaining(kind)
		if err != nil {
			return -1, err
		}
		if remaining <= minRetries {
			return remaining, &Error{Kind: KindMinRetries, Message: "pin retries at or below caller's minimum", Retries: remaining}
		}
	}
	return tok.tryPIN(kind, pin)
}

func (tok *Token) tryPIN(kind PINKind, pin string) (int, error) {
	data := padPIN(pin)
	_, s, err := tok.transmit(insVerify, 0x00, byte(kind), data, false)
	if err != nil {
		return -1, err
	}
	if s == swSuccess {
		return -1, nil
	}
	if n, ok := s.wrongPINRetries(); ok {
		return n, &Error{Kind: KindPermission, Message: "wrong pin", SW: uint16(s), Retries: n}
	}
	if s == swAuthBlocked {
		return 0, &Error{Kind: KindPermission, Message: "pin blocked", SW: uint16(s), Retries: 0}
	}
	return -1, wrapErr(KindIOError, "verifying pin", apduError(s))
}

// PINRetriesRemaining probes the retry counter without attempting
// authentication, by sending VERIFY with no data (§6, "empty VERIFY").
func (tok *Token) PINRetriesRemaining(kind PINKind) (int, error) {
	if err := tok.requireSelected(); err != nil {
		return -1, err
	}
	_, s, err := tok.transmit(insVerify, 0x00, byte(kind), nil, false)
	if err != nil {
		return -1, err
	}
	if s == swSuccess {
		return -1, nil
	}
	if n, ok := s.wrongPINRetries(); ok {
		return n, nil
	}
	if s == swAuthBlocked {
		return 0, nil
	}
	return -1, wrapErr(KindIOError, "checking pin retries", apduError(s))
}

// ChangePIN replaces kind's credential, authenticating with oldPIN in
// the same command (§4.C8 "CHANGE REFERENCE DATA"). A wrong oldPIN
// decrements the retry counter exactly as VerifyPIN does.
func (tok *Token) ChangePIN(kind PINKind, oldPIN, newPIN string) error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	if len(newPIN) == 0 || len(newPIN) > 8 {
		return newErr(KindArgument, "pin must be 1-8 characters")
	}
	s, err := tok.changeReference(insChangeReference, byte(kind), oldPIN, newPIN)
	if err != nil {
		return err
	}
	if s == swSuccess {
		tok.mustResetOnEnd = true
		return nil
	}
	if n, ok := s.wrongPINRetries(); ok {
		return &Error{Kind: KindPermission, Message: "wrong pin", SW: uint16(s), Retries: n}
	}
	if s == swAuthBlocked {
		return &Error{Kind: KindPermission, Message: "pin blocked", SW: uint16(s), Retries: 0}
	}
	return wrapErr(KindIOError, "changing pin", apduError(s))
}

// ResetPIN resets the application or global PIN to newPIN, authenticating
// with the PUK (§4.C8 "RESET RETRY COUNTER"). A wrong PUK decrements the
// PUK retry counter, not the PIN's.
func (tok *Token) ResetPIN(puk, newPIN string) error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	if len(newPIN) == 0 || len(newPIN) > 8 {
		return newErr(KindArgument, "pin must be 1-8 characters")
	}
	s, err := tok.changeReference(insResetRetry, byte(PINApplication), puk, newPIN)
	if err != nil {
		return err
	}
	if s == swSuccess {
		tok.mustResetOnEnd = true
		return nil
	}
	if n, ok := s.wrongPINRetries(); ok {
		return &Error{Kind: KindPermission, Message: "wrong puk", SW: uint16(s), Retries: n}
	}
	if s == swAuthBlocked {
		return &Error{Kind: KindPermission, Message: "puk blocked", SW: uint16(s), Retries: 0}
	}
	return wrapErr(KindIOError, "resetting pin", apduError(s))
}

// ChangePUK replaces the PUK using CHANGE REFERENCE DATA with P2=0x81.
func (tok *Token) ChangePUK(oldPUK, newPUK string) error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	if len(newPUK) == 0 || len(newPUK) > 8 {
		return newErr(KindArgument, "puk must be 1-8 characters")
	}
	s, err := tok.changeReference(insChangeReference, 0x81, oldPUK, newPUK)
	if err != nil {
		return err
	}
	if s == swSuccess {
		tok.mustResetOnEnd = true
		return nil
	}
	if n, ok := s.wrongPINRetries(); ok {
		return &Error{Kind: KindPermission, Message: "wrong puk", SW: uint16(s), Retries: n}
	}
	return wrapErr(KindIOError, "changing puk", apduError(s))
}

func (tok *Token) changeReference(ins, p2 byte, oldVal, newVal string) (statusWord, error) {
	data := append(padPIN(oldVal), padPIN(newVal)...)
	_, s, err := tok.transmit(ins, 0x00, p2, data, false)
	return s, err
}

// padPIN right-pads pin with 0xFF to the 8-byte field NIST SP 800-73-4
// mandates for VERIFY/CHANGE REFERENCE DATA/RESET RETRY COUNTER.
func padPIN(pin string) []byte {
	b := make([]byte, 8)
	copy(b, pin)
	for i := len(pin); i < 8; i++ {
		b[i] = 0xff
	}
	return b
}
