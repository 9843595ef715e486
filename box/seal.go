package box

import (
	"crypto/ecdh"
	"io"

	"github.com/coldglass/pivbox/piv"
)

// Seal encrypts plaintext to recipient's ECDH public key (§4.C9 "Seal
// (offline)"). plaintext is zeroed in place once encryption completes,
// matching §5 "Memory": the caller's buffer, not a copy, is mutated.
func Seal(recipient *ecdh.PublicKey, plaintext []byte, opts ...Option) (*Box, error) {
	o := newSealOptions(opts)
	b, err := seal(recipient, plaintext, o)
	if err != nil {
		return nil, err
	}
	zeroBytes(plaintext)
	return b, nil
}

// SealOnline seals plaintext to the public key in slot id of tok,
// additionally recording the token's GUID and slot so a later Open can
// use the "Find token for a box" search policy (§4.C9).
func SealOnline(tok *piv.Token, id piv.SlotID, plaintext []byte, opts ...Option) (*Box, error) {
	slot := tok.Slot(id)
	if slot == nil {
		var err error
		slot, err = tok.ReadCert(id)
		if err != nil {
			return nil, wrapErr(KindArgument, "reading recipient slot certificate", err)
		}
	}
	recip, err := ecdhPublicKeyOf(slot.PublicKey)
	if err != nil {
		return nil, err
	}

	o := newSealOptions(opts)
	b, err := seal(recip, plaintext, o)
	if err != nil {
		return nil, err
	}
	if len(tok.GUID) == 16 {
		b.GUIDSlotValid = true
		b.GUID = append([]byte(nil), tok.GUID...)
		b.Slot = byte(id)
	}
	zeroBytes(plaintext)
	return b, nil
}

func seal(recipient *ecdh.PublicKey, plaintext []byte, o *sealOptions) (*Box, error) {
	cs, err := lookupCipher(o.cipher)
	if err != nil {
		return nil, err
	}
	ks, err := lookupKDF(o.kdf)
	if err != nil {
		return nil, err
	}
	if ks.DigestLen < cs.KeyLen {
		return nil, newErr(KindArgument, "kdf digest length shorter than cipher key length")
	}
	if o.version < VersionLegacy || o.version >= versionNext {
		return nil, newErr(KindVersion, "unsupported box version")
	}

	curve := recipient.Curve()
	ephPriv := o.ephemeral
	if ephPriv == nil {
		ephPriv, err = curve.GenerateKey(o.rand)
		if err != nil {
			return nil, wrapErr(KindArgument, "generating ephemeral key", err)
		}
	} else if ephPriv.Curve() != curve {
		return nil, newErr(KindCurve, "recipient.curve must equal ephemeral.curve")
	}

	shared, err := ephPriv.ECDH(recipient)
	if err != nil {
		return nil, wrapErr(KindArgument, "computing ecdh shared secret", err)
	}

	var nonce []byte
	if o.version >= Version2 {
		nonce = make([]byte, 16)
		if _, err := io.ReadFull(o.rand, nonce); err != nil {
			return nil, wrapErr(KindArgument, "generating nonce", err)
		}
	}

	key, err := ks.Derive(shared, nonce, cs.KeyLen)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(key)

	aead, err := cs.New(key)
	if err != nil {
		return nil, wrapErr(KindArgument, "constructing aead", err)
	}

	iv := make([]byte, cs.IVLen)
	if _, err := io.ReadFull(o.rand, iv); err != nil {
		return nil, wrapErr(KindArgument, "generating iv", err)
	}

	padded := pkcs7Pad(plaintext, cs.BlockSize)
	ciphertext := aead.Seal(nil, iv, padded, nil)
	zeroBytes(padded)

	return &Box{
		Version:      o.version,
		Curve:        curve,
		RecipientPub: recipient,
		EphemeralPub: ephPriv.PublicKey(),
		CipherName:   cs.Name,
		KDFName:      ks.Name,
		Nonce:        nonce,
		IV:           iv,
		Ciphertext:   ciphertext,
	}, nil
}

// pkcs7Pad pads data to a multiple of blockSize, always adding at least
// one pad byte (§4.C9 step 6: `pad ∈ [1, blocksz]`).
func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+pad)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}
