// Package scx adapts github.com/ebfe/scard to the piv.CardContext/piv.Card
// interfaces. It replaces the teacher's hand-written cgo SCardConnect /
// SCardTransmit bindings (piv/pcsc_linux.go, piv/pcsc_darwin.go) with a
// real third-party PC/SC wrapper, grounded on how
// gregLibert-smart-card/main.go drives the same library.
package scx

import (
	"fmt"

	"github.com/ebfe/scard"

	"github.com/coldglass/pivbox/piv"
)

// Context wraps a scard.Context.
type Context struct {
	ctx *scard.Context
}

// NewContext establishes a PC/SC context, satisfying piv.CardContextFactory.
func NewContext() (piv.CardContext, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establishing pcsc context: %w", err)
	}
	return &Context{ctx: ctx}, nil
}

func (c *Context) ListReaders() ([]string, error) {
	readers, err := c.ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("listing readers: %w", err)
	}
	return readers, nil
}

func (c *Context) Connect(reader string) (piv.Card, error) {
	card, err := c.ctx.Connect(reader, scard.ShareExclusive, scard.ProtocolAny)
	if err != nil {
		return nil, fmt.Errorf("connecting to %q: %w", reader, err)
	}
	return &Card{reader: reader, card: card}, nil
}

func (c *Context) Close() error {
	return c.ctx.Release()
}

// Card wraps a scard.Card.
type Card struct {
	reader string
	card   *scard.Card
}

func (c *Card) BeginTransaction() error {
	return c.card.BeginTransaction()
}

func (c *Card) EndTransaction(reset bool) error {
	disp := scard.LeaveCard
	if reset {
		disp = scard.ResetCard
	}
	return c.card.EndTransaction(disp)
}

func (c *Card) Transmit(cmd []byte) ([]byte, error) {
	resp, err := c.card.Transmit(cmd)
	if err != nil {
		return nil, fmt.Errorf("transmitting apdu: %w", err)
	}
	return resp, nil
}

func (c *Card) WasReset() (bool, error) {
	status, err := c.card.Status()
	if err != nil {
		return false, fmt.Errorf("reading card status: %w", err)
	}
	return status.State&scard.StateUnpowered != 0 || status.State&scard.StateUnaware != 0, nil
}

func (c *Card) Reconnect() error {
	return c.card.Reconnect(scard.ShareExclusive, scard.ProtocolAny, scard.ResetCard)
}

func (c *Card) Disconnect() error {
	return c.card.Disconnect(scard.LeaveCard)
}
