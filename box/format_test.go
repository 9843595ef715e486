package box

import (
	"crypto/ecdh"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// §8 invariant 7: decode(encode(b)) == b, for v2/v3 and legacy v1.
func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	for _, version := range []uint8{VersionLegacy, Version2, Version3} {
		b, err := Seal(priv.PublicKey(), []byte("round trip me"), WithVersion(version))
		require.NoError(t, err)
		b.GUIDSlotValid = true
		b.GUID = make([]byte, 16)
		for i := range b.GUID {
			b.GUID[i] = byte(i)
		}
		b.Slot = 0x9d

		data, err := b.Marshal()
		require.NoError(t, err)

		got, err := Unmarshal(data)
		require.NoError(t, err, "version=%d", version)
		require.Equal(t, b.Version, got.Version)
		require.Equal(t, b.CipherName, got.CipherName)
		require.Equal(t, b.KDFName, got.KDFName)
		require.Equal(t, b.IV, got.IV)
		require.Equal(t, b.Ciphertext, got.Ciphertext)
		require.Equal(t, b.GUID, got.GUID)
		require.Equal(t, b.Slot, got.Slot)
		require.Equal(t, b.RecipientPub.Bytes(), got.RecipientPub.Bytes())
		require.Equal(t, b.EphemeralPub.Bytes(), got.EphemeralPub.Bytes())

		opened, err := Open(got, priv)
		require.NoError(t, err, "version=%d", version)
		require.Equal(t, []byte("round trip me"), opened)
	}
}

// Boundary behavior: a v1 box with a 15-byte GUID is a LengthError.
func TestUnmarshalV1RejectsShortGUID(t *testing.T) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	b, err := Seal(priv.PublicKey(), []byte("x"), WithVersion(VersionLegacy))
	require.NoError(t, err)
	b.GUIDSlotValid = true
	b.GUID = make([]byte, 15)

	data, err := b.Marshal()
	require.NoError(t, err)
	_, err = Unmarshal(data)
	require.True(t, CaughtBy(err, KindLength))
}

func TestUnmarshalRejectsBadMagic(t *testing.T) {
	_, err := Unmarshal([]byte{0xde, 0xad, 0x02, 0x00})
	require.True(t, CaughtBy(err, KindMagic))
}

func TestUnmarshalRejectsUnsupportedVersion(t *testing.T) {
	data := []byte{magic[0], magic[1], 0x09}
	_, err := Unmarshal(data)
	require.True(t, CaughtBy(err, KindVersion))
}

func TestUnmarshalRejectsEmpty(t *testing.T) {
	_, err := Unmarshal(nil)
	require.True(t, CaughtBy(err, KindMagic))
}
