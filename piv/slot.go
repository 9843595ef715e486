package piv

import (
	"crypto"
	"crypto/x509"
)

// SlotAuth is the PIN/touch requirement mask learned from metadata or
// attestation (§3 "Slot", §4.C7 "Metadata fusion"). It is monotonic only
// within a single learn event; an explicit policy rewrite (a later
// GenerateKey call, for instance) replaces it wholesale.
type SlotAuth struct {
	PIN   bool
	Touch bool
}

// Slot is one key/certificate position on a Token (§3 "Slot").
type Slot struct {
	ID        SlotID
	Algorithm Algorithm

	Certificate *x509.Certificate
	Subject     string
	PublicKey   crypto.PublicKey

	Auth SlotAuth

	MetadataFetched bool
}
