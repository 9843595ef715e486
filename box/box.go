package box

import "crypto/ecdh"

// magic is the v2/v3 wire-format marker (§6). Legacy v1 boxes carry no
// magic; they are distinguished by a first byte of 0x01.
var magic = [2]byte{0xb0, 0xc5}

const (
	// VersionLegacy is the SSH-key-blob wire format (§6 "Legacy v1
	// variant").
	VersionLegacy uint8 = 1
	Version2      uint8 = 2
	Version3      uint8 = 3

	// versionNext bounds the decoder's accepted version range;
	// versions >= this are rejected with KindVersion.
	versionNext uint8 = 4
)

// Box is the sealed-envelope value (§3 "ECDH box"). All fields are
// optional until populated; Plaintext is only non-empty once Open has
// succeeded.
type Box struct {
	Version uint8

	// GUIDSlotValid, GUID, and Slot record which token+slot this box was
	// sealed to online, if any (§4.C9 "Find token for a box").
	GUIDSlotValid bool
	GUID          []byte
	Slot          uint8

	Curve         ecdh.Curve
	RecipientPub  *ecdh.PublicKey
	EphemeralPub  *ecdh.PublicKey

	CipherName string
	KDFName    string

	// Nonce feeds the KDF (§4.C9 step 3-4); present only for v >= 2.
	Nonce []byte
	// IV is the AEAD nonce.
	IV []byte
	// Ciphertext includes the trailing AEAD tag.
	Ciphertext []byte

	// Plaintext is populated only after a successful Open; Seal never
	// sets it, and zeroes the caller's plaintext buffer and its padded
	// copy after encryption (§5 "Memory").
	Plaintext []byte
}

// IsOpen reports whether Plaintext has been populated (§3 invariant:
// "When plaintext is non-empty, the box is open; otherwise sealed").
func (b *Box) IsOpen() bool { return len(b.Plaintext) > 0 }

// Zero overwrites Plaintext with zero bytes and releases it, per §5
// "Memory": plaintext buffers in boxes must be zeroed before freeing.
func (b *Box) Zero() {
	for i := range b.Plaintext {
		b.Plaintext[i] = 0
	}
	b.Plaintext = nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
