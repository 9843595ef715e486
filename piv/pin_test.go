package piv

import "testing"

func selectedTestToken(t *testing.T, card *fakeCard) *Token {
	t.Helper()
	tok := newTestToken(t, card)
	tok.selected = true
	return tok
}

// PINRetriesRemaining must send an empty VERIFY and never the padded PIN
// bytes (§8 invariants 10 and S4).
func TestPINRetriesRemaining(t *testing.T) {
	card := newFakeCard()
	card.on(insVerify, func(cmd []byte) []byte {
		if len(cmd) != 4 {
			t.Fatalf("expected bare VERIFY with no Lc/data, got % x", cmd)
		}
		return []byte{0x63, 0xc3}
	})
	tok := selectedTestToken(t, card)

	retries, err := tok.PINRetriesRemaining(PINApplication)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retries != 3 {
		t.Fatalf("retries = %d, want 3", retries)
	}
}

func TestVerifyPINSuccess(t *testing.T) {
	card := newFakeCard()
	card.on(insVerify, func(cmd []byte) []byte {
		data := cmd[5:]
		if string(data) != "1234"+"\xff\xff\xff\xff" {
			t.Fatalf("unexpected padded pin bytes: % x", data)
		}
		return []byte{0x90, 0x00}
	})
	tok := selectedTestToken(t, card)

	retries, err := tok.VerifyPIN(PINApplication, "1234", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retries != -1 {
		t.Fatalf("retries = %d, want -1 on success", retries)
	}
}

func TestVerifyPINWrongReportsRetries(t *testing.T) {
	card := newFakeCard()
	card.on(insVerify, func(cmd []byte) []byte { return []byte{0x63, 0xc2} })
	tok := selectedTestToken(t, card)

	retries, err := tok.VerifyPIN(PINApplication, "0000", 0)
	if retries != 2 {
		t.Fatalf("retries = %d, want 2", retries)
	}
	if !CaughtBy(err, KindPermission) {
		t.Fatalf("expected KindPermission, got %v", err)
	}
}

func TestVerifyPINBlocked(t *testing.T) {
	card := newFakeCard()
	card.on(insVerify, func(cmd []byte) []byte { return []byte{0x69, 0x83} })
	tok := selectedTestToken(t, card)

	retries, err := tok.VerifyPIN(PINApplication, "0000", 0)
	if retries != 0 {
		t.Fatalf("retries = %d, want 0", retries)
	}
	if !CaughtBy(err, KindPermission) {
		t.Fatalf("expected KindPermission, got %v", err)
	}
}

// verify_pin shape 5: (pin, Some(min>0)) probes the retry counter first
// and refuses without spending an attempt when remaining <= min.
func TestVerifyPINRefusesBelowMinRetries(t *testing.T) {
	card := newFakeCard()
	attempted := false
	card.on(insVerify, func(cmd []byte) []byte {
		if len(cmd) > 5 && len(cmd[5:]) > 0 {
			attempted = true
		}
		return []byte{0x63, 0xc1}
	})
	tok := selectedTestToken(t, card)

	retries, err := tok.VerifyPIN(PINApplication, "1234", 2)
	if attempted {
		t.Fatalf("VerifyPIN spent an attempt despite remaining <= minRetries")
	}
	if retries != 1 {
		t.Fatalf("retries = %d, want 1", retries)
	}
	if !CaughtBy(err, KindMinRetries) {
		t.Fatalf("expected KindMinRetries, got %v", err)
	}
}

// Above the floor, VerifyPIN proceeds to try the PIN as normal.
func TestVerifyPINProceedsAboveMinRetries(t *testing.T) {
	card := newFakeCard()
	probes := 0
	card.on(insVerify, func(cmd []byte) []byte {
		if len(cmd) <= 5 || len(cmd[5:]) == 0 {
			probes++
			return []byte{0x63, 0xc5}
		}
		return []byte{0x90, 0x00}
	})
	tok := selectedTestToken(t, card)

	retries, err := tok.VerifyPIN(PINApplication, "1234", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retries != -1 {
		t.Fatalf("retries = %d, want -1 on success", retries)
	}
	if probes != 1 {
		t.Fatalf("probes = %d, want exactly one probing VERIFY", probes)
	}
}

func TestVerifyPINRejectsEmptyAndLongPINs(t *testing.T) {
	tok := selectedTestToken(t, newFakeCard())
	if _, err := tok.VerifyPIN(PINApplication, "", 0); !CaughtBy(err, KindArgument) {
		t.Fatalf("expected KindArgument for empty pin, got %v", err)
	}
	if _, err := tok.VerifyPIN(PINApplication, "123456789", 0); !CaughtBy(err, KindArgument) {
		t.Fatalf("expected KindArgument for 9-char pin, got %v", err)
	}
}
