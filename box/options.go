package box

import (
	"crypto/ecdh"
	"crypto/rand"
	"io"
)

// sealOptions configures Seal/SealOnline, mirroring the functional-
// options shape used throughout the piv package (§"Configuration").
type sealOptions struct {
	cipher    string
	kdf       string
	version   uint8
	ephemeral *ecdh.PrivateKey
	rand      io.Reader
}

// Option configures Seal or SealOnline.
type Option func(*sealOptions)

func newSealOptions(opts []Option) *sealOptions {
	o := &sealOptions{
		cipher:  defaultCipherName,
		kdf:     defaultKDFName,
		version: Version3,
		rand:    rand.Reader,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCipher selects the AEAD cipher by name (default "chacha20-poly1305").
func WithCipher(name string) Option {
	return func(o *sealOptions) { o.cipher = name }
}

// WithKDF selects the key-derivation function by name (default "sha512").
func WithKDF(name string) Option {
	return func(o *sealOptions) { o.kdf = name }
}

// WithVersion selects the wire-format version (default Version3).
func WithVersion(v uint8) Option {
	return func(o *sealOptions) { o.version = v }
}

// WithEphemeral supplies a pre-generated ephemeral key pair instead of
// letting Seal generate one (§4.C9 "seal" step 1, "if not supplied").
func WithEphemeral(priv *ecdh.PrivateKey) Option {
	return func(o *sealOptions) { o.ephemeral = priv }
}

// WithRand overrides the source of randomness for ephemeral key, nonce,
// and IV generation. Defaults to crypto/rand.
func WithRand(r io.Reader) Option {
	return func(o *sealOptions) { o.rand = r }
}
