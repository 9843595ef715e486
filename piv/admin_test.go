package piv

import (
	"bytes"
	"crypto/cipher"
	"crypto/des"
	"testing"
)

var test3DESKey = bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, 3)

// AdminAuth must use the single-step challenge/response flow: request
// `7C{81 empty}`, encrypt the returned challenge under a zero IV, and
// send it back as `7C{82 <ciphertext>}` — never the two-step witness
// variant (`_examples/original_source/piv.c:2009-2011`).
func TestAdminAuthSingleStepFlow(t *testing.T) {
	block, err := des.NewTripleDESCipher(test3DESKey)
	if err != nil {
		t.Fatalf("building reference cipher: %v", err)
	}
	challenge := bytes.Repeat([]byte{0xAB}, 8)
	wantResponse := make([]byte, 8)
	cipher.NewCBCEncrypter(block, make([]byte, 8)).CryptBlocks(wantResponse, challenge)

	card := newFakeCard()
	step := 0
	card.on(insGeneralAuthenticate, func(cmd []byte) []byte {
		step++
		data := cmd[5 : 5+int(cmd[4])]
		switch step {
		case 1:
			if !bytes.Equal(data, []byte{0x7c, 0x02, 0x81, 0x00}) {
				t.Fatalf("step1 request = % x, want 7c 02 81 00", data)
			}
			return okSW(0x7c, 0x0a, 0x81, 0x08, challenge[0], challenge[1], challenge[2], challenge[3],
				challenge[4], challenge[5], challenge[6], challenge[7])
		case 2:
			want := append([]byte{0x7c, 0x0a, 0x82, 0x08}, wantResponse...)
			if !bytes.Equal(data, want) {
				t.Fatalf("step2 request = % x, want % x", data, want)
			}
			return []byte{0x90, 0x00}
		default:
			t.Fatalf("unexpected third GEN_AUTH call")
			return nil
		}
	})
	tok := selectedTestToken(t, card)

	if err := tok.AdminAuth(Alg3DES, test3DESKey); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step != 2 {
		t.Fatalf("GEN_AUTH called %d times, want exactly 2 (no witness round-trip)", step)
	}
	if !tok.mustResetOnEnd {
		t.Fatalf("AdminAuth must set mustResetOnEnd on success")
	}
}

// A step-1 0x6A80 means no admin key is configured.
func TestAdminAuthNoKeyConfigured(t *testing.T) {
	card := newFakeCard()
	card.on(insGeneralAuthenticate, func(cmd []byte) []byte { return []byte{0x6a, 0x80} })
	tok := selectedTestToken(t, card)

	err := tok.AdminAuth(Alg3DES, test3DESKey)
	if !CaughtBy(err, KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

// A step-2 0x6982 (or 0x6A80) means the card rejected our response.
func TestAdminAuthStep2Rejected(t *testing.T) {
	challenge := bytes.Repeat([]byte{0xCD}, 8)
	card := newFakeCard()
	step := 0
	card.on(insGeneralAuthenticate, func(cmd []byte) []byte {
		step++
		if step == 1 {
			return okSW(0x7c, 0x0a, 0x81, 0x08, challenge[0], challenge[1], challenge[2], challenge[3],
				challenge[4], challenge[5], challenge[6], challenge[7])
		}
		return []byte{0x69, 0x82}
	})
	tok := selectedTestToken(t, card)

	err := tok.AdminAuth(Alg3DES, test3DESKey)
	if !CaughtBy(err, KindPermission) {
		t.Fatalf("expected KindPermission, got %v", err)
	}
	if tok.mustResetOnEnd {
		t.Fatalf("mustResetOnEnd must not be set on a failed auth")
	}
}
