package piv

import (
	"crypto"

	"github.com/coldglass/pivbox/bertlv"
)

const (
	tagMetaAlgorithm uint16 = 0x01
	tagMetaPolicy    uint16 = 0x02
	tagMetaOrigin    uint16 = 0x03
	tagMetaPublicKey uint16 = 0x04
	tagMetaRetries   uint16 = 0x05
	tagMetaDefault   uint16 = 0x06
)

// KeyOrigin reports whether a slot's key pair was generated on-card or
// imported (§4.C7 "Metadata fusion").
type KeyOrigin int

const (
	OriginUnknown KeyOrigin = iota
	OriginGenerated
	OriginImported
)

// SlotMetadata is the fused result of YubicoPIV GET METADATA for one
// credential slot (§4.C7).
type SlotMetadata struct {
	Algorithm Algorithm
	PinPolicy PinPolicy
	TouchPolicy TouchPolicy
	Origin    KeyOrigin
	PublicKey crypto.PublicKey

	// IsDefault is only meaningful for the management-key slot: true
	// when the card still holds the factory-default key.
	IsDefault bool
}

// GetMetadata fetches YubicoPIV metadata for id (INS 0xF7) and fuses it
// into the token's slot catalog: Slot.Algorithm and Slot.Auth are
// updated from the authoritative card-reported values rather than
// whatever GenerateKey/ImportKey last assumed locally (§4.C7 "Metadata
// fusion" — card state wins over client-side bookkeeping).
func (tok *Token) GetMetadata(id SlotID) (SlotMetadata, error) {
	if err := tok.requireSelected(); err != nil {
		return SlotMetadata{}, err
	}
	if !tok.IsYkpiv {
		return SlotMetadata{}, newErr(KindNotSupported, "metadata requires yubicopiv")
	}

	body, s, err := tok.transmit(insGetMetadata, 0x00, byte(id), nil, true)
	if err != nil {
		return SlotMetadata{}, err
	}
	if s == swFileNotFound {
		return SlotMetadata{}, newErr(KindNotFound, "slot has no key")
	}
	if s != swSuccess {
		return SlotMetadata{}, wrapErr(KindIOError, "reading metadata", apduError(s))
	}

	fields, err := bertlv.ParseSequence(body)
	if err != nil {
		return SlotMetadata{}, wrapErr(KindPIVTagError, "parsing metadata", err)
	}

	var md SlotMetadata
	for _, f := range fields {
		switch f.Tag {
		case tagMetaAlgorithm:
			if len(f.Value) > 0 {
				md.Algorithm = Algorithm(f.Value[0])
			}
		case tagMetaPolicy:
			if len(f.Value) >= 2 {
				md.PinPolicy = PinPolicy(f.Value[0])
				md.TouchPolicy = TouchPolicy(f.Value[1])
			}
		case tagMetaOrigin:
			if len(f.Value) > 0 {
				switch f.Value[0] {
				case 1:
					md.Origin = OriginGenerated
				case 2:
					md.Origin = OriginImported
				}
			}
		case tagMetaPublicKey:
			if pub, err := parsePublicKeyTemplate(f.Value, md.Algorithm); err == nil {
				md.PublicKey = pub
			}
		case tagMetaDefault:
			if len(f.Value) > 0 {
				md.IsDefault = f.Value[0] != 0
			}
		}
	}

	if id != SlotCardManagement {
		slot := tok.slotOrCreate(id)
		slot.Algorithm = md.Algorithm
		fuseAuthMask(&slot.Auth, md.PinPolicy, md.TouchPolicy)
		slot.MetadataFetched = true
		if md.PublicKey != nil {
			slot.PublicKey = md.PublicKey
		}
	}
	return md, nil
}

// fuseAuthMask applies the §4.C7 "Metadata fusion" rule shared by
// GetMetadata and attestation-extension fallback: NEVER clears a bit,
// ONCE/ALWAYS/CACHED sets it, and touch's DEFAULT is a no-op that
// leaves the prior value alone.
func fuseAuthMask(auth *SlotAuth, pin PinPolicy, touch TouchPolicy) {
	auth.PIN = pin != PinPolicyNever
	if touch != TouchPolicyDefault {
		auth.Touch = touch == TouchPolicyAlways || touch == TouchPolicyCached
	}
}
