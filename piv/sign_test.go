package piv

import "testing"

// S6: a 0x6982 from sign sets the slot's PIN auth bit for subsequent
// calls, in addition to returning a KindPermission error.
func TestSignSetsPINBitOnSecurityStatusNotSatisfied(t *testing.T) {
	card := newFakeCard()
	card.on(insGeneralAuthenticate, func(cmd []byte) []byte { return []byte{0x69, 0x82} })
	tok := selectedTestToken(t, card)
	slot := tok.slotOrCreate(SlotCardAuthentication)
	slot.Algorithm = AlgECCP256
	slot.Auth.PIN = false

	_, err := tok.Sign(SlotCardAuthentication, SignOpts{HashOnCard: false}, make([]byte, 32))
	if !CaughtBy(err, KindPermission) {
		t.Fatalf("expected KindPermission, got %v", err)
	}
	if !slot.Auth.PIN {
		t.Fatalf("Sign must set slot.Auth.PIN on 0x6982")
	}
}
