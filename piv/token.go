package piv

import (
	"crypto/rand"
	"io"

	"github.com/google/uuid"
)

// AuthMethod flags which PIN/biometric methods a token advertises via
// Discovery (§3, §4.C6).
type AuthMethod struct {
	AppPIN    bool
	GlobalPIN bool
	OCC       bool
	VCI       bool
}

// PreferredAuth is the Discovery-derived priority order for which
// credential a caller should present first (§4.C6).
type PreferredAuth int

const (
	PreferredAuthAppPIN PreferredAuth = iota
	PreferredAuthGlobalPIN
	PreferredAuthOCC
)

// FirmwareVersion is a YubicoPIV three-byte version (§3).
type FirmwareVersion struct {
	Major, Minor, Patch byte
}

// AtLeast reports whether v >= major.minor.patch.
func (v FirmwareVersion) AtLeast(major, minor, patch byte) bool {
	if v.Major != major {
		return v.Major > major
	}
	if v.Minor != minor {
		return v.Minor > minor
	}
	return v.Patch >= patch
}

// KeyHistory is the parsed Key History object (§4.C6).
type KeyHistory struct {
	OnCardCount  int
	OffCardCount int
	OffCardURL   string
}

// Token is a connected PIV card (§3 "Token"). All APDU-sending operations
// require Begin to have been called first; End releases the transaction.
type Token struct {
	// Reader is the PC/SC reader name this token is connected through.
	Reader string

	ctx  CardContext
	card Card
	rand io.Reader
	log  Logger
	trace *ClientTrace

	chainFixup bool

	inTxn          bool
	mustResetOnEnd bool
	selected       bool

	// Identity, populated by Select/ReadCHUID/ReadDiscovery/ReadKeyHistory.
	GUID           []byte // 16 bytes, or nil if unavailable
	CardholderUUID uuid.UUID
	FASCN          []byte
	Expiry         []byte // 8-byte YYYYMMDD
	HasCHUID       bool
	SignedCHUID    bool

	Algorithms    []Algorithm
	Auth          AuthMethod
	PreferredAuth PreferredAuth

	KeyHistory KeyHistory

	AppLabel string
	AppURI   string

	IsYkpiv  bool
	Firmware FirmwareVersion
	Serial   uint32
	hasSerial bool

	slots            []*Slot
	didReadAllCerts  bool
}

// newToken wires a fresh Token around an open (not-yet-transacted) card
// channel.
func newToken(reader string, ctx CardContext, card Card, opts *options) *Token {
	return &Token{
		Reader:     reader,
		ctx:        ctx,
		card:       card,
		rand:       opts.rand,
		log:        nopLogger(opts.logger),
		trace:      opts.trace,
		chainFixup: opts.chainFixup,
	}
}

// Close ends any open transaction and releases the card channel.
func (tok *Token) Close() error {
	if tok.inTxn {
		tok.End()
	}
	if tok.card != nil {
		if err := tok.card.Disconnect(); err != nil {
			return wrapErr(KindIOError, "disconnecting", err)
		}
	}
	return nil
}

// Slots returns the token's slot catalog in discovery order (§9 "Cyclic
// / linked structures": insertion order, never re-sorted).
func (tok *Token) Slots() []*Slot {
	out := make([]*Slot, len(tok.slots))
	copy(out, tok.slots)
	return out
}

// Slot returns the catalog entry for id, or nil if it hasn't been read
// yet (ReadCert populates it on demand, §3 "Slot" invariants).
func (tok *Token) Slot(id SlotID) *Slot {
	for _, s := range tok.slots {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (tok *Token) slotOrCreate(id SlotID) *Slot {
	if s := tok.Slot(id); s != nil {
		return s
	}
	s := &Slot{ID: id}
	// Default auth mask (§4.C7): every slot but card-auth (9E) and
	// Yubico attestation (F9) requires PIN by default.
	if id != SlotCardAuthentication && id != SlotAttestation {
		s.Auth.PIN = true
	}
	tok.slots = append(tok.slots, s)
	return s
}

func defaultRand() io.Reader { return rand.Reader }
