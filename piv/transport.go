package piv

// This file defines the narrow ISO 7816 transport surface the driver
// consumes (§6, "ISO 7816 surface (consumer)"). PC/SC reader access is an
// external collaborator; piv never imports a PC/SC binding directly from
// its operations, only through these two
// interfaces, mirroring the split the teacher keeps between piv.go and
// pcsc_interface.go.

// CardContext lists and connects to readers.
type CardContext interface {
	// ListReaders returns the names of attached PC/SC readers.
	ListReaders() ([]string, error)
	// Connect opens a channel to the named reader, negotiating T=0 or
	// T=1 automatically.
	Connect(reader string) (Card, error)
	Close() error
}

// Card is an open channel to one reader slot. All APDU exchange happens
// inside a transaction (§4.C4); Transmit outside one is a caller bug, not
// something this interface needs to prevent.
type Card interface {
	// BeginTransaction acquires exclusive access to the card.
	BeginTransaction() error
	// EndTransaction releases exclusive access. reset requests the
	// reader power-cycle the card on release (§4.C4 must_reset_on_end).
	EndTransaction(reset bool) error
	// Transmit sends one raw command APDU and returns the raw response
	// (data plus trailing SW1 SW2), blocking until the reader replies.
	Transmit(cmd []byte) ([]byte, error)
	// WasReset reports whether the card signaled it was reset/powered
	// down since the last successful operation (§4.C4 begin retry).
	WasReset() (bool, error)
	// Reconnect re-establishes the protocol after a detected reset.
	Reconnect() error
	// Disconnect releases the channel.
	Disconnect() error
}

// CardContextFactory constructs a CardContext, letting Connect/Enumerate
// be parameterized over the transport the same way the teacher's
// SCConstructor lets PCSCConstructor be swapped for a test fake.
type CardContextFactory func() (CardContext, error)
