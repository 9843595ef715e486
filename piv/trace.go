package piv

// ClientTrace is a set of optional hooks fired around each APDU exchange,
// adapted from the teacher's pcsc_trace.go (itself modeled on
// net/http/httptrace.ClientTrace). Unlike the teacher's version this one
// is attached directly to a Token rather than threaded through a
// context.Context, since every operation here already takes a *Token.
type ClientTrace struct {
	// Transmit is called with the raw bytes about to be sent to the card.
	Transmit func(req []byte)
	// TransmitResult is called with the raw request, the raw response,
	// its length, and the parsed status word bytes.
	TransmitResult func(req, resp []byte, respLen int, sw1, sw2 byte)
}
