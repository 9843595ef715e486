package piv

import (
	"testing"

	"github.com/coldglass/pivbox/bertlv"
)

func aptBody(algs ...byte) []byte {
	var algEntries []bertlv.Node
	for _, a := range algs {
		algEntries = append(algEntries, bertlv.Node{Tag: tagAlgID, Value: []byte{a}})
	}
	apt := bertlv.BuildAll(
		bertlv.Node{Tag: tagAID, Value: aidPIV},
		bertlv.Node{Tag: tagAppLabel, Value: []byte("PIV")},
		bertlv.Node{Tag: tagAlgList, Value: bertlv.BuildAll(algEntries...)},
	)
	return bertlv.Build(tagAPT, apt)
}

// Select twice must not duplicate discovered algorithms (§8 invariant 4).
func TestSelectIdempotent(t *testing.T) {
	card := newFakeCard()
	card.on(insSelectApplication, func(cmd []byte) []byte {
		return okSW(aptBody(0x07, 0x11)...)
	})
	tok := newTestToken(t, card)

	if err := tok.Select(); err != nil {
		t.Fatalf("first select: %v", err)
	}
	if err := tok.Select(); err != nil {
		t.Fatalf("second select: %v", err)
	}
	if len(tok.Algorithms) != 2 {
		t.Fatalf("algorithms duplicated: got %v", tok.Algorithms)
	}
	if tok.AppLabel != "PIV" {
		t.Fatalf("app label = %q, want PIV", tok.AppLabel)
	}
	if !tok.SupportsAlgorithm(AlgRSA2048) || !tok.SupportsAlgorithm(AlgECCP256) {
		t.Fatalf("expected RSA2048 and ECCP256 in %v", tok.Algorithms)
	}
}

func TestSelectFailureStatus(t *testing.T) {
	card := newFakeCard()
	card.on(insSelectApplication, func(cmd []byte) []byte { return []byte{0x6a, 0x82} })
	tok := newTestToken(t, card)

	if err := tok.Select(); err == nil {
		t.Fatal("expected error on non-success select status")
	}
}
