package box

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"
)

// kdfSuite derives a symmetric key from the ECDH shared secret (§4.C9
// "seal" step 4: `key = H(shared || nonce)` truncated to the cipher's
// key length). The plain digest KDFs (sha256/384/512) are a bare hash
// over the concatenation; the hkdf- variants run the shared secret
// through HKDF instead, using nonce as salt, for callers that want
// domain separation beyond a single hash pass.
type kdfSuite struct {
	Name      string
	DigestLen int
	Derive    func(shared, nonce []byte, keyLen int) ([]byte, error)
}

var kdfSuites = map[string]kdfSuite{
	"sha256": {Name: "sha256", DigestLen: sha256.Size, Derive: plainHashKDF(sha256.New)},
	"sha384": {Name: "sha384", DigestLen: sha512.Size384, Derive: plainHashKDF(sha512.New384)},
	"sha512": {Name: "sha512", DigestLen: sha512.Size, Derive: plainHashKDF(sha512.New)},

	"hkdf-sha256": {Name: "hkdf-sha256", DigestLen: sha256.Size, Derive: hkdfKDF(sha256.New)},
	"hkdf-sha384": {Name: "hkdf-sha384", DigestLen: sha512.Size384, Derive: hkdfKDF(sha512.New384)},
	"hkdf-sha512": {Name: "hkdf-sha512", DigestLen: sha512.Size, Derive: hkdfKDF(sha512.New)},
}

func plainHashKDF(newHash func() hash.Hash) func([]byte, []byte, int) ([]byte, error) {
	return func(shared, nonce []byte, keyLen int) ([]byte, error) {
		h := newHash()
		h.Write(shared)
		h.Write(nonce)
		sum := h.Sum(nil)
		if keyLen > len(sum) {
			return nil, newErr(KindArgument, "cipher key length exceeds kdf digest length")
		}
		return sum[:keyLen], nil
	}
}

func hkdfKDF(newHash func() hash.Hash) func([]byte, []byte, int) ([]byte, error) {
	return func(shared, nonce []byte, keyLen int) ([]byte, error) {
		r := hkdf.New(newHash, shared, nonce, []byte("pivbox ecdh box"))
		out := make([]byte, keyLen)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, wrapErr(KindArgument, "deriving key via hkdf", err)
		}
		return out, nil
	}
}

// defaultKDFName is "sha512" per §4.C9 "Seal (offline)".
const defaultKDFName = "sha512"

func lookupKDF(name string) (kdfSuite, error) {
	if name == "" {
		name = defaultKDFName
	}
	ks, ok := kdfSuites[name]
	if !ok {
		return kdfSuite{}, newErr(KindArgument, "unknown kdf "+name)
	}
	return ks, nil
}
