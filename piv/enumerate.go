package piv

import (
	"bytes"
	"fmt"
)

// Connect opens and transacts a Token against a single named reader
// (§4.C6 "Connect"): establish context, connect, begin transaction,
// SELECT the PIV AID. The caller owns the transaction until Close.
func Connect(reader string, opts ...Option) (*Token, error) {
	o := newOptions(opts)
	ctx, err := openContext(o)
	if err != nil {
		return nil, err
	}
	card, err := ctx.Connect(reader)
	if err != nil {
		ctx.Close()
		return nil, wrapErr(KindPCSCError, fmt.Sprintf("connecting to %q", reader), err)
	}
	tok := newToken(reader, ctx, card, o)
	if err := tok.Begin(); err != nil {
		tok.Close()
		return nil, err
	}
	if err := tok.Select(); err != nil {
		tok.Close()
		return nil, err
	}
	return tok, nil
}

func openContext(o *options) (CardContext, error) {
	factory := o.ctxFactory
	if factory == nil {
		factory = defaultContextFactory
	}
	ctx, err := factory()
	if err != nil {
		return nil, wrapErr(KindPCSCContextError, "establishing pcsc context", err)
	}
	return ctx, nil
}

// defaultContextFactory is overridden at init by the scx adapter's
// importer (cmd packages import internal/scx and call
// piv.SetDefaultCardContextFactory), keeping this package free of a
// direct PC/SC dependency per §6.
var defaultContextFactory CardContextFactory = func() (CardContext, error) {
	return nil, newErr(KindNotSupported, "no card context factory configured; see SetDefaultCardContextFactory")
}

// SetDefaultCardContextFactory installs the process-wide PC/SC context
// factory used by Connect/Enumerate/Find when no WithCardContextFactory
// option is given. Call this once at program startup with
// scx.NewContext.
func SetDefaultCardContextFactory(f CardContextFactory) {
	defaultContextFactory = f
}

// readIdentity runs the full §4.C6 enumeration sequence against an
// already-selected token: CHUID, Discovery, Key History, then the
// YubicoPIV vendor probe. Each step's absence is tolerated individually.
func (tok *Token) readIdentity() error {
	if err := tok.ReadCHUID(); err != nil && !CaughtBy(err, KindNotFound) {
		return err
	}
	if err := tok.ReadDiscovery(); err != nil && !CaughtBy(err, KindNotFound) {
		return err
	}
	if err := tok.ReadKeyHistory(); err != nil && !CaughtBy(err, KindNotFound) {
		return err
	}
	if err := tok.probeYubico(); err != nil {
		return err
	}
	return nil
}

// Enumerate lists every attached reader, connects to each in turn, and
// runs the identity-read sequence (§4.C6 "Enumeration"). A reader that
// fails to connect or select is skipped, not fatal to the whole scan;
// its error is logged through the Logger and enumeration continues. Every returned
// Token has an open transaction; the caller must Close each one.
func Enumerate(opts ...Option) ([]*Token, error) {
	o := newOptions(opts)
	ctx, err := openContext(o)
	if err != nil {
		return nil, err
	}
	readers, err := ctx.ListReaders()
	if err != nil {
		ctx.Close()
		return nil, wrapErr(KindPCSCError, "listing readers", err)
	}

	log := nopLogger(o.logger)
	var toks []*Token
	for _, reader := range readers {
		card, err := ctx.Connect(reader)
		if err != nil {
			log.ErrorMsgf(err, "skipping reader %q", reader)
			continue
		}
		tok := newToken(reader, ctx, card, o)
		if err := tok.Begin(); err != nil {
			log.ErrorMsgf(err, "skipping reader %q", reader)
			tok.Close()
			continue
		}
		if err := tok.Select(); err != nil {
			log.ErrorMsgf(err, "skipping reader %q", reader)
			tok.Close()
			continue
		}
		if err := tok.readIdentity(); err != nil {
			log.ErrorMsgf(err, "skipping reader %q", reader)
			tok.Close()
			continue
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// Find returns the first enumerated token whose AppLabel or AppURI
// matches label, closing every other token it opened along the way.
func Find(label string, opts ...Option) (*Token, error) {
	toks, err := Enumerate(opts...)
	if err != nil {
		return nil, err
	}
	var match *Token
	for _, tok := range toks {
		if match == nil && (tok.AppLabel == label || tok.AppURI == label) {
			match = tok
			continue
		}
		tok.Close()
	}
	if match == nil {
		return nil, newErr(KindNotFound, fmt.Sprintf("no token matching label %q", label))
	}
	return match, nil
}

// FindByGUID returns the first enumerated token whose GUID starts with
// guid, closing every other token it opened along the way. An empty guid
// selects the token that has no CHUID; if more than one such token is
// attached the result is a KindDuplicate error.
func FindByGUID(guid []byte, opts ...Option) (*Token, error) {
	toks, err := Enumerate(opts...)
	if err != nil {
		return nil, err
	}
	var match *Token
	dup := false
	for _, tok := range toks {
		hit := !tok.HasCHUID
		if len(guid) > 0 {
			hit = bytes.HasPrefix(tok.GUID, guid)
		}
		if hit && match == nil {
			match = tok
			continue
		}
		if hit && len(guid) == 0 {
			dup = true
		}
		tok.Close()
	}
	if dup {
		match.Close()
		return nil, newErr(KindDuplicate, "more than one token without a chuid")
	}
	if match == nil {
		return nil, newErr(KindNotFound, "no token matching guid")
	}
	return match, nil
}
