package box

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"
)

// cipherSuite describes one AEAD cipher choice (§4.C9 "seal" step 6-7,
// §6 binary format's cstring8 cipher_name field). blockSize governs the
// PKCS#7 padding granularity applied before encryption — a property of
// the envelope format, not of the underlying AEAD construction.
type cipherSuite struct {
	Name      string
	KeyLen    int
	IVLen     int
	AuthLen   int
	BlockSize int
	New       func(key []byte) (cipher.AEAD, error)
}

var cipherSuites = map[string]cipherSuite{
	"chacha20-poly1305": {
		Name: "chacha20-poly1305", KeyLen: chacha20poly1305.KeySize,
		IVLen: chacha20poly1305.NonceSize, AuthLen: chacha20poly1305.Overhead, BlockSize: 8,
		New: func(key []byte) (cipher.AEAD, error) { return chacha20poly1305.New(key) },
	},
	"aes256-gcm": {
		Name: "aes256-gcm", KeyLen: 32, IVLen: 12, AuthLen: 16, BlockSize: 16,
		New: newAESGCM,
	},
	"aes128-gcm": {
		Name: "aes128-gcm", KeyLen: 16, IVLen: 12, AuthLen: 16, BlockSize: 16,
		New: newAESGCM,
	},
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// defaultCipherName is "chacha20-poly1305" per §4.C9 "Seal (offline)".
const defaultCipherName = "chacha20-poly1305"

func lookupCipher(name string) (cipherSuite, error) {
	if name == "" {
		name = defaultCipherName
	}
	cs, ok := cipherSuites[name]
	if !ok {
		return cipherSuite{}, newErr(KindArgument, "unknown cipher "+name)
	}
	return cs, nil
}
