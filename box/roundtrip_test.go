package box

import (
	"bytes"
	"crypto/ecdh"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var testCurves = []ecdh.Curve{ecdh.P256(), ecdh.P384(), ecdh.P521()}

// §8 invariant 6: open(seal(x, pub), priv) == x, across ciphers, KDFs,
// curves, and versions, for the offline path.
func TestSealOpenRoundTrip(t *testing.T) {
	ciphers := []string{"chacha20-poly1305", "aes256-gcm", "aes128-gcm"}
	kdfs := []string{"sha256", "sha384", "sha512", "hkdf-sha256", "hkdf-sha384", "hkdf-sha512"}
	versions := []uint8{Version2, Version3}
	plaintexts := [][]byte{
		[]byte("hello"),
		make([]byte, 1),
		make([]byte, 65536),
	}

	for _, curve := range testCurves {
		recipPriv, err := curve.GenerateKey(rand.Reader)
		require.NoError(t, err)

		for _, cipher := range ciphers {
			for _, kdf := range kdfs {
				for _, version := range versions {
					for _, pt := range plaintexts {
						msg := append([]byte(nil), pt...)
						b, err := Seal(recipPriv.PublicKey(), msg,
							WithCipher(cipher), WithKDF(kdf), WithVersion(version))
						require.NoError(t, err, "cipher=%s kdf=%s version=%d", cipher, kdf, version)

						opened, err := Open(b, recipPriv)
						require.NoError(t, err, "cipher=%s kdf=%s version=%d", cipher, kdf, version)
						require.True(t, bytes.Equal(opened, pt))
					}
				}
			}
		}
	}
}

// §8 invariant 8: ciphertext length equals pad(|plaintext|, blocksz) + auth_len.
func TestCiphertextLengthInvariant(t *testing.T) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	for n := 0; n < 40; n++ {
		plain := make([]byte, n)
		b, err := Seal(priv.PublicKey(), plain)
		require.NoError(t, err)

		cs, err := lookupCipher(defaultCipherName)
		require.NoError(t, err)
		pad := cs.BlockSize - n%cs.BlockSize
		wantLen := n + pad + cs.AuthLen
		require.Equal(t, wantLen, len(b.Ciphertext), "n=%d", n)
	}
}

// S5: sealing "hello" (5 bytes) with the default cipher produces an
// 8-byte padded plaintext (pad byte 3) and a 24-byte ciphertext.
func TestSealHelloMatchesSpecScenario(t *testing.T) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	b, err := Seal(priv.PublicKey(), []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, "chacha20-poly1305", b.CipherName)
	require.Equal(t, 24, len(b.Ciphertext))
}

// Mismatched curves between recipient and a supplied ephemeral key must
// be rejected before any crypto runs.
func TestSealRejectsCurveMismatch(t *testing.T) {
	recip, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	eph, err := ecdh.P384().GenerateKey(rand.Reader)
	require.NoError(t, err)

	_, err = Seal(recip.PublicKey(), []byte("x"), WithEphemeral(eph))
	require.True(t, CaughtBy(err, KindCurve))
}

func TestOpenRejectsCurveMismatch(t *testing.T) {
	p256, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	p384, err := ecdh.P384().GenerateKey(rand.Reader)
	require.NoError(t, err)

	b, err := Seal(p256.PublicKey(), []byte("x"))
	require.NoError(t, err)

	_, err = Open(b, p384)
	require.True(t, CaughtBy(err, KindCurve))
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	b, err := Seal(priv.PublicKey(), []byte("tamper me"))
	require.NoError(t, err)

	b.Ciphertext[0] ^= 0xff
	_, err = Open(b, priv)
	require.True(t, CaughtBy(err, KindKeyAuth))
}
