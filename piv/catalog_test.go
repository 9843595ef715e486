package piv

import (
	"bytes"
	"compress/gzip"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/coldglass/pivbox/bertlv"
)

// selfSignedTestCert builds a throwaway self-signed ECDSA P-256
// certificate for ReadCert tests.
func selfSignedTestCert(t *testing.T) (der []byte, pub *ecdsa.PublicKey) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "pivbox test"},
		NotBefore:    time.Unix(0, 0),
		NotAfter:     time.Unix(0, 0).Add(24 * time.Hour),
	}
	der, err = x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("creating certificate: %v", err)
	}
	return der, &priv.PublicKey
}

// certObjectResponse builds the raw GET DATA response ReadCert expects:
// an outer `53` container wrapping `70` (cert body) and `71` (CertInfo).
func certObjectResponse(der []byte, certInfo byte) []byte {
	inner := bertlv.BuildAll(
		bertlv.Node{Tag: tagCertBody, Value: der},
		bertlv.Node{Tag: tagCertInfo, Value: []byte{certInfo}},
		bertlv.Node{Tag: tagCertErrDet, Value: nil},
	)
	return okSW(bertlv.Build(0x53, inner)...)
}

func gzipBytes(t *testing.T, n int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(make([]byte, n)); err != nil {
		t.Fatalf("writing gzip payload: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}
	return buf.Bytes()
}

// S3: a decompressed certificate of exactly 16384 bytes succeeds; one
// byte over fails at the raw inflate layer (ReadCert re-wraps this as
// KindDecompression once it has the certificate object context).
func TestGunzipCertMaxPayloadBoundary(t *testing.T) {
	if _, err := gunzipCert(gzipBytes(t, maxCertPayload)); err != nil {
		t.Fatalf("16384-byte payload: unexpected error %v", err)
	}
	_, err := gunzipCert(gzipBytes(t, maxCertPayload+1))
	if !CaughtBy(err, KindCertFlag) {
		t.Fatalf("16385-byte payload: got %v, want a KindCertFlag error", err)
	}
}

// §4.C7: CertInfo bit 0x04 (X509 compression scheme) must be zero.
func TestReadCertRejectsX509CompressionBit(t *testing.T) {
	der, _ := selfSignedTestCert(t)
	card := newFakeCard()
	card.on(insGetData, func(cmd []byte) []byte {
		return certObjectResponse(der, certInfoX509CompressBit)
	})
	tok := selectedTestToken(t, card)

	_, err := tok.ReadCert(SlotAuthentication)
	if !CaughtBy(err, KindCertFlag) {
		t.Fatalf("expected KindCertFlag, got %v", err)
	}
}

// ReadCert on firmware >= 5.3.0 fetches and fuses GET METADATA (§4.C7
// "Slot catalog" / "Metadata fusion").
func TestReadCertFusesMetadataOnModernFirmware(t *testing.T) {
	der, _ := selfSignedTestCert(t)
	card := newFakeCard()
	card.on(insGetData, func(cmd []byte) []byte { return certObjectResponse(der, 0) })
	card.on(insGetMetadata, func(cmd []byte) []byte {
		meta := bertlv.BuildAll(
			bertlv.Node{Tag: tagMetaPolicy, Value: []byte{byte(PinPolicyNever), byte(TouchPolicyAlways)}},
		)
		return okSW(meta...)
	})
	tok := selectedTestToken(t, card)
	tok.IsYkpiv = true
	tok.Firmware = FirmwareVersion{5, 3, 0}

	slot, err := tok.ReadCert(SlotAuthentication)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.Auth.PIN {
		t.Fatalf("metadata reported pin_policy NEVER, expected Auth.PIN cleared")
	}
	if !slot.Auth.Touch {
		t.Fatalf("metadata reported touch_policy ALWAYS, expected Auth.Touch set")
	}
}

// Below metadata firmware but at/above the attestation floor, ReadCert
// falls back to parsing the Yubico attestation-extension OID.
func TestReadCertFusesAttestationFallback(t *testing.T) {
	der, _ := selfSignedTestCert(t)
	attestDER := buildAttestationCert(t, []byte{byte(PinPolicyAlways), byte(TouchPolicyCached)})

	card := newFakeCard()
	card.on(insGetData, func(cmd []byte) []byte { return certObjectResponse(der, 0) })
	card.on(insAttest, func(cmd []byte) []byte { return okSW(attestDER...) })
	tok := selectedTestToken(t, card)
	tok.IsYkpiv = true
	tok.Firmware = FirmwareVersion{4, 3, 0}

	slot, err := tok.ReadCert(SlotAuthentication)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slot.Auth.PIN {
		t.Fatalf("attestation reported pin_policy ALWAYS, expected Auth.PIN set")
	}
	if !slot.Auth.Touch {
		t.Fatalf("attestation reported touch_policy CACHED, expected Auth.Touch set")
	}
}

// buildAttestationCert makes a throwaway self-signed certificate carrying
// the Yubico pin/touch-policy extension at the fixed OID ATTEST parses.
func buildAttestationCert(t *testing.T, policyBytes []byte) []byte {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "pivbox attestation"},
		NotBefore:    time.Unix(0, 0),
		NotAfter:     time.Unix(0, 0).Add(24 * time.Hour),
		ExtraExtensions: []pkix.Extension{
			{Id: attestPolicyOID, Value: policyBytes},
		},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("creating attestation certificate: %v", err)
	}
	return der
}
