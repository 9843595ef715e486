package piv

import "fmt"

// Begin acquires an exclusive transaction on the token (§4.C4). If the
// reader reports the card was reset since the last operation, it
// reconnects and retries once before giving up.
func (tok *Token) Begin() error {
	if tok.inTxn {
		return newErr(KindArgument, "transaction already open")
	}

	if err := tok.card.BeginTransaction(); err != nil {
		reset, werr := tok.card.WasReset()
		if werr == nil && reset {
			if rerr := tok.card.Reconnect(); rerr != nil {
				return wrapErr(KindIOError, "reconnecting after card reset", rerr)
			}
			if err = tok.card.BeginTransaction(); err != nil {
				return wrapErr(KindIOError, "beginning transaction after reconnect", err)
			}
		} else {
			return wrapErr(KindIOError, "beginning transaction", err)
		}
	}

	tok.inTxn = true
	return nil
}

// End releases the transaction, instructing the reader to reset the card
// iff mustResetOnEnd was set by an operation that changed authentication
// state (§4.C4). A release failure is logged, never propagated: the
// transaction is considered closed either way.
func (tok *Token) End() {
	if !tok.inTxn {
		return
	}
	reset := tok.mustResetOnEnd
	if err := tok.card.EndTransaction(reset); err != nil {
		tok.log.ErrorMsg(err, "ending smartcard transaction")
	}
	tok.inTxn = false
	tok.mustResetOnEnd = false
}

// requireTxn is asserted at the top of every operation in §4.C8 that
// issues APDUs (§8 invariant 1).
func (tok *Token) requireTxn() error {
	if !tok.inTxn {
		return newErr(KindArgument, "operation requires an open transaction")
	}
	return nil
}

// requireSelected asserts a prior successful Select for this session.
func (tok *Token) requireSelected() error {
	if err := tok.requireTxn(); err != nil {
		return err
	}
	if !tok.selected {
		return newErr(KindArgument, fmt.Sprintf("token on %q has not selected the PIV applet", tok.Reader))
	}
	return nil
}
