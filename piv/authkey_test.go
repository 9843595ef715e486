package piv

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"strings"
	"testing"
)

// AuthKey challenge-signs the slot's key and verifies the signature
// against the caller's copy of the public key (grounded on piv_auth_key,
// _examples/original_source/piv.c:517).
func TestAuthKeySucceedsForMatchingKey(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	card := newFakeCard()
	card.on(insGeneralAuthenticate, func(cmd []byte) []byte {
		data := cmd[5:]
		digest, ok := parseAuthTLVVar(data, 0x81)
		if !ok {
			t.Fatalf("malformed sign request: % x", data)
		}
		sig, err := ecdsa.SignASN1(rand.Reader, priv, digest)
		if err != nil {
			t.Fatalf("signing: %v", err)
		}
		return okSW(bertlvAuthChallenge(0x82, sig)...)
	})
	tok := selectedTestToken(t, card)
	slot := tok.slotOrCreate(SlotAuthentication)
	slot.Algorithm = AlgECCP256
	slot.PublicKey = &priv.PublicKey

	if err := tok.AuthKey(SlotAuthentication, &priv.PublicKey); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthKeyRejectsMismatchedKey(t *testing.T) {
	slotPriv, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	callerPriv, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)

	tok := selectedTestToken(t, newFakeCard())
	slot := tok.slotOrCreate(SlotAuthentication)
	slot.Algorithm = AlgECCP256
	slot.PublicKey = &slotPriv.PublicKey

	err := tok.AuthKey(SlotAuthentication, &callerPriv.PublicKey)
	if !CaughtBy(err, KindKeyAuth) {
		t.Fatalf("expected KindKeyAuth, got %v", err)
	}
	if !strings.Contains(err.Error(), KindKeysNotEqual.String()) {
		t.Fatalf("expected cause chain to mention %s, got %v", KindKeysNotEqual, err)
	}
}
