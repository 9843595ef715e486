package piv

import "testing"

// fakeCard is a minimal in-memory Card: it hands each raw command APDU to
// a responder function and returns whatever the responder produces. Tests
// register responders per instruction byte, mirroring how a simulator's
// command dispatch table works.
type fakeCard struct {
	responders map[byte]func(cmd []byte) []byte
	reset      bool
}

func newFakeCard() *fakeCard {
	return &fakeCard{responders: make(map[byte]func(cmd []byte) []byte)}
}

func (c *fakeCard) on(ins byte, f func(cmd []byte) []byte) {
	c.responders[ins] = f
}

func (c *fakeCard) BeginTransaction() error    { return nil }
func (c *fakeCard) EndTransaction(bool) error  { return nil }
func (c *fakeCard) WasReset() (bool, error)    { return c.reset, nil }
func (c *fakeCard) Reconnect() error           { c.reset = false; return nil }
func (c *fakeCard) Disconnect() error          { return nil }

func (c *fakeCard) Transmit(cmd []byte) ([]byte, error) {
	ins := cmd[1]
	f, ok := c.responders[ins]
	if !ok {
		return []byte{0x6d, 0x00}, nil // INS not supported
	}
	return f(cmd), nil
}

// fakeContext hands out a single pre-built fakeCard per reader name.
type fakeContext struct {
	readers []string
	card    *fakeCard
}

func (c *fakeContext) ListReaders() ([]string, error) { return c.readers, nil }
func (c *fakeContext) Connect(string) (Card, error)    { return c.card, nil }
func (c *fakeContext) Close() error                    { return nil }

// okSW appends a success trailer to body.
func okSW(body ...byte) []byte { return append(append([]byte{}, body...), 0x90, 0x00) }

func newTestToken(t *testing.T, card *fakeCard) *Token {
	t.Helper()
	o := newOptions(nil)
	tok := newToken("fake reader", &fakeContext{readers: []string{"fake reader"}, card: card}, card, o)
	if err := tok.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tok
}
