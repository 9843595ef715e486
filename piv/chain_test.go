package piv

import "testing"

func TestChainSegments(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 1}, {1, 1}, {255, 1}, {256, 2}, {510, 2}, {511, 3}, {765, 3},
	}
	for _, c := range cases {
		segs := chainSegments(make([]byte, c.n))
		if len(segs) != c.want {
			t.Errorf("chainSegments(%d bytes) = %d segments, want %d", c.n, len(segs), c.want)
		}
	}
}

// §8 invariant 2: every segment but the last carries the chaining bit.
func TestChainClassBitsOnlyOnNonFinalSegments(t *testing.T) {
	n := 3
	for i := 0; i < n; i++ {
		cla := chainClass(0x00, i, n)
		wantChained := i < n-1
		gotChained := cla&0x10 != 0
		if gotChained != wantChained {
			t.Errorf("segment %d/%d: chained=%v, want %v", i, n, gotChained, wantChained)
		}
	}
}

// Drives a 300-byte command through transmit and checks it was split into
// exactly two send-APDUs with the chaining bit set on the first only
// (§8 invariant 2), and that a chained response is reassembled in order
// (§8 invariant 3).
func TestTransmitChainsLongCommandAndResponse(t *testing.T) {
	card := newFakeCard()
	var seen []byte
	var clas []byte
	card.on(0x55, func(cmd []byte) []byte {
		cla := cmd[0]
		clas = append(clas, cla)
		data := cmd[5 : 5+int(cmd[4])]
		seen = append(seen, data...)
		if cla&0x10 != 0 {
			return []byte{0x90, 0x00} // intermediate segment ack
		}
		// Final segment: answer with first chunk plus "more data" SW.
		return append([]byte{0xaa, 0xbb}, 0x61, 0x02)
	})
	card.on(insContinue, func(cmd []byte) []byte {
		return append([]byte{0xcc, 0xdd}, 0x90, 0x00)
	})
	tok := newTestToken(t, card)

	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}
	reply, sw, err := tok.transmit(0x55, 0x00, 0x00, payload, true)
	if err != nil {
		t.Fatalf("transmit: %v", err)
	}
	if sw != swSuccess {
		t.Fatalf("final sw = %04x, want 9000", sw)
	}
	if len(clas) != 2 || clas[0]&0x10 == 0 || clas[1]&0x10 != 0 {
		t.Fatalf("send-APDU classes = % x, want two with the chaining bit on the first only", clas)
	}
	if len(seen) != len(payload) {
		t.Fatalf("card observed %d payload bytes, want %d", len(seen), len(payload))
	}
	want := []byte{0xaa, 0xbb, 0xcc, 0xdd}
	if len(reply) != len(want) {
		t.Fatalf("reply = % x, want % x", reply, want)
	}
	for i := range want {
		if reply[i] != want[i] {
			t.Fatalf("reply = % x, want % x", reply, want)
		}
	}
}
