package piv

import (
	"crypto/ecdh"
	"crypto/rand"
	"testing"
)

// S6: ECDH's 0x6982 also marks the slot as PIN-required.
func TestECDHSetsPINBitOnSecurityStatusNotSatisfied(t *testing.T) {
	peerKey, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating peer key: %v", err)
	}

	card := newFakeCard()
	card.on(insGeneralAuthenticate, func(cmd []byte) []byte { return []byte{0x69, 0x82} })
	tok := selectedTestToken(t, card)
	slot := tok.slotOrCreate(SlotKeyManagement)
	slot.Algorithm = AlgECCP256
	slot.Auth.PIN = false

	_, err = tok.ECDH(SlotKeyManagement, peerKey.PublicKey())
	if !CaughtBy(err, KindPermission) {
		t.Fatalf("expected KindPermission, got %v", err)
	}
	if !slot.Auth.PIN {
		t.Fatalf("ECDH must set slot.Auth.PIN on 0x6982")
	}
}
