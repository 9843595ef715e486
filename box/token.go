package box

import (
	"bytes"

	"github.com/coldglass/pivbox/piv"
)

// FindToken implements the §4.C9 "Find token for a box" search policy
// over an already-enumerated token list. The returned token is left
// with an open transaction; the caller is responsible for calling End.
func FindToken(b *Box, toks []*piv.Token) (*piv.Token, piv.SlotID, error) {
	if b.GUIDSlotValid {
		for _, tok := range toks {
			if !bytes.Equal(tok.GUID, b.GUID) {
				continue
			}
			if err := ensureTxn(tok); err != nil {
				return nil, 0, err
			}
			id := piv.SlotID(b.Slot)
			slot := tok.Slot(id)
			if slot == nil {
				var err error
				slot, err = tok.ReadCert(id)
				if err != nil {
					return nil, 0, wrapErr(KindArgument, "reading targeted slot certificate", err)
				}
			}
			recip, err := ecdhPublicKeyOf(slot.PublicKey)
			if err != nil {
				return nil, 0, err
			}
			if !bytes.Equal(recip.Bytes(), b.RecipientPub.Bytes()) {
				return nil, 0, newErr(KindKeysNotEqual, "slot public key does not match box recipient")
			}
			return tok, id, nil
		}
		return nil, 0, newErr(KindNotFound, "no token matches box guid")
	}

	probeSlot := piv.SlotKeyManagement
	if b.Slot != 0 {
		probeSlot = piv.SlotID(b.Slot)
	}
	for _, tok := range toks {
		if err := ensureTxn(tok); err != nil {
			continue
		}
		slot, err := tok.ReadCert(probeSlot)
		if err != nil {
			continue
		}
		if recip, err := ecdhPublicKeyOf(slot.PublicKey); err == nil && bytes.Equal(recip.Bytes(), b.RecipientPub.Bytes()) {
			return tok, probeSlot, nil
		}
	}

	for _, tok := range toks {
		if err := ensureTxn(tok); err != nil {
			continue
		}
		slots, err := tok.ReadAllCerts()
		if err != nil {
			continue
		}
		for _, slot := range slots {
			recip, err := ecdhPublicKeyOf(slot.PublicKey)
			if err != nil {
				continue
			}
			if bytes.Equal(recip.Bytes(), b.RecipientPub.Bytes()) {
				return tok, slot.ID, nil
			}
		}
	}

	return nil, 0, newErr(KindNotFound, "no token slot matches box recipient")
}

// ensureTxn begins a transaction on tok if one is not already open,
// tolerating the "already open" case transparently.
func ensureTxn(tok *piv.Token) error {
	err := tok.Begin()
	if err == nil || piv.CaughtBy(err, piv.KindArgument) {
		return nil
	}
	return err
}
