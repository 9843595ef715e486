package box

import (
	"crypto/ecdh"

	"github.com/coldglass/pivbox/piv"
)

// Open decrypts b using the raw recipient private key (§4.C9 "Open",
// offline path). priv.Curve() must equal b.Curve.
func Open(b *Box, priv *ecdh.PrivateKey) ([]byte, error) {
	if priv.Curve() != b.Curve {
		return nil, newErr(KindCurve, "private key curve does not match box curve")
	}
	shared, err := priv.ECDH(b.EphemeralPub)
	if err != nil {
		return nil, wrapErr(KindArgument, "computing ecdh shared secret", err)
	}
	return open(b, shared)
}

// OpenOnline decrypts b using tok's on-card ECDH for the box's slot
// (§4.C9 "Open", online path). id should be the slot the box was
// sealed to (FindToken resolves this from the box itself when possible).
func OpenOnline(b *Box, tok *piv.Token, id piv.SlotID) ([]byte, error) {
	shared, err := tok.ECDH(id, b.EphemeralPub)
	if err != nil {
		return nil, wrapErr(KindKeyAuth, "performing on-card ecdh", err)
	}
	return open(b, shared)
}

func open(b *Box, shared []byte) ([]byte, error) {
	cs, err := lookupCipher(b.CipherName)
	if err != nil {
		return nil, err
	}
	ks, err := lookupKDF(b.KDFName)
	if err != nil {
		return nil, err
	}
	if len(b.IV) != cs.IVLen {
		return nil, newErr(KindArgument, "iv length does not match cipher")
	}
	if len(b.Ciphertext) < cs.BlockSize+cs.AuthLen {
		return nil, newErr(KindArgument, "ciphertext shorter than block size plus auth tag")
	}

	key, err := ks.Derive(shared, b.Nonce, cs.KeyLen)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(key)

	aead, err := cs.New(key)
	if err != nil {
		return nil, wrapErr(KindArgument, "constructing aead", err)
	}

	padded, err := aead.Open(nil, b.IV, b.Ciphertext, nil)
	if err != nil {
		return nil, wrapErr(KindKeyAuth, "aead authentication failed", err)
	}

	plaintext, err := pkcs7Unpad(padded, cs.BlockSize)
	if err != nil {
		zeroBytes(padded)
		return nil, err
	}
	b.Plaintext = plaintext
	return plaintext, nil
}

// pkcs7Unpad strips PKCS#7 padding with a constant-structure check: the
// last byte p must be in [1, blockSize], and every one of the last p
// bytes must equal p (§4.C9 step 8').
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, newErr(KindPadding, "padded data is not a multiple of the block size")
	}
	p := data[len(data)-1]
	if p == 0 || int(p) > blockSize || int(p) > len(data) {
		return nil, newErr(KindPadding, "invalid padding length")
	}
	bad := 0
	for i := len(data) - int(p); i < len(data); i++ {
		if data[i] != p {
			bad++
		}
	}
	if bad != 0 {
		return nil, newErr(KindPadding, "invalid padding bytes")
	}
	out := make([]byte, len(data)-int(p))
	copy(out, data)
	return out, nil
}
