package piv

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
)

// AuthKey challenge-signs slot id's private key and verifies the result
// against pub, the caller's independently-held copy of that key. This is
// the operation a caller uses to confirm a slot's key really is the one
// it expects before trusting it for anything security-sensitive, rather
// than trusting whatever the on-card certificate or cached catalog
// claims (grounded on piv_auth_key, _examples/original_source/piv.c:517).
//
// A mismatch between pub and the slot's catalogued public key is
// KindKeysNotEqual, wrapped in KindKeyAuth; a card-side signing failure
// or a signature that doesn't verify is also KindKeyAuth.
func (tok *Token) AuthKey(id SlotID, pub crypto.PublicKey) error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	slot := tok.Slot(id)
	if slot == nil {
		return newErr(KindNotFound, "slot not catalogued; call ReadCert or GenerateKey first")
	}
	if !publicKeysEqual(pub, slot.PublicKey) {
		return wrapErr(KindKeyAuth,
			"authenticating key in slot",
			newErr(KindKeysNotEqual, "given public key and slot's public key do not match"))
	}

	challenge := make([]byte, 64)
	if _, err := tok.rand.Read(challenge); err != nil {
		return wrapErr(KindIOError, "generating challenge", err)
	}
	hash := crypto.SHA256
	h := hash.New()
	h.Write(challenge)
	digest := h.Sum(nil)

	sig, err := tok.Sign(id, SignOpts{Hash: hash}, digest)
	if err != nil {
		return wrapErr(KindKeyAuth, "authenticating key in slot", err)
	}
	if err := verifyKeyAuthSignature(pub, hash, digest, sig); err != nil {
		return wrapErr(KindKeyAuth, "authenticating key in slot", err)
	}
	return nil
}

// publicKeysEqual reports whether a and b are the same key, using the
// Equal method the stdlib key types already implement.
func publicKeysEqual(a, b crypto.PublicKey) bool {
	type equaler interface {
		Equal(x crypto.PublicKey) bool
	}
	ea, ok := a.(equaler)
	if !ok || b == nil {
		return false
	}
	return ea.Equal(b)
}

func verifyKeyAuthSignature(pub crypto.PublicKey, hash crypto.Hash, digest, sig []byte) error {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return rsa.VerifyPKCS1v15(k, hash, digest, sig)
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(k, digest, sig) {
			return newErr(KindInvalidData, "ecdsa signature did not verify")
		}
		return nil
	default:
		return newErr(KindBadAlgorithm, "unsupported public key type for key authentication")
	}
}
