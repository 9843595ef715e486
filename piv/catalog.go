package piv

import (
	"bytes"
	"compress/gzip"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"io"

	"github.com/coldglass/pivbox/bertlv"
)

const (
	tagCertBody  uint16 = 0x70
	tagCertInfo  uint16 = 0x71
	tagCertMSCUID uint16 = 0x72
	tagCertErrDet uint16 = 0xfe

	certInfoGzipBit          byte = 0x01
	certInfoX509CompressBit  byte = 0x04
)

// attestPolicyOID is the Yubico extension carrying a slot's pin/touch
// policy inside its attestation certificate (§4.C7 "Attestation-based
// metadata"), 2 bytes: pin_policy, touch_policy.
var attestPolicyOID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 41482, 3, 8}

// ReadCert reads and parses the X.509 certificate in slot (§4.C7
// "Catalog"). A missing certificate is KindNotFound; a present-but-
// oversized or malformed payload is KindCertFlag/KindDecompression per
// §6.
func (tok *Token) ReadCert(id SlotID) (*Slot, error) {
	if err := tok.requireSelected(); err != nil {
		return nil, err
	}
	tag, ok := certTag(id)
	if !ok {
		return nil, newErr(KindArgument, "slot has no certificate object")
	}

	body, s, err := tok.getData(tag)
	if err != nil {
		return nil, err
	}
	if s == swFileNotFound || s == swWrongData {
		return nil, newErr(KindNotFound, "no certificate in slot")
	}
	if s != swSuccess {
		return nil, wrapErr(KindIOError, "reading certificate", apduError(s))
	}

	fields, err := unwrap53(body)
	if err != nil {
		return nil, wrapErr(KindPIVTagError, "parsing certificate container", err)
	}

	var der []byte
	gzipped := false
	for _, f := range fields {
		switch f.Tag {
		case tagCertBody:
			der = f.Value
		case tagCertInfo:
			if len(f.Value) > 0 {
				if f.Value[0]&certInfoX509CompressBit != 0 {
					return nil, newErr(KindCertFlag, "certinfo x509-compression-scheme bit must be zero")
				}
				gzipped = f.Value[0]&certInfoGzipBit != 0
			}
		}
	}
	if der == nil {
		return nil, newErr(KindNotFound, "no certificate in slot")
	}

	if gzipped {
		der, err = gunzipCert(der)
		if err != nil {
			return nil, wrapErr(KindDecompression, "inflating certificate", err)
		}
	}
	if len(der) > maxCertPayload {
		return nil, newErr(KindCertFlag, "certificate exceeds maximum payload size")
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, wrapErr(KindInvalidData, "parsing certificate", err)
	}

	slot := tok.slotOrCreate(id)
	slot.Certificate = cert
	slot.Subject = cert.Subject.String()
	slot.PublicKey = cert.PublicKey
	if alg, ok := algorithmForPublicKey(cert.PublicKey); ok {
		slot.Algorithm = alg
	}

	tok.fusePolicyFromCard(id, slot)
	return slot, nil
}

// fusePolicyFromCard fetches authoritative PIN/touch policy for id and
// fuses it into slot.Auth (§4.C7 "Slot catalog"): YubicoPIV GET METADATA
// on firmware >= 5.3.0, else the attestation-certificate extension
// fallback on firmware >= 4.0.0. Both sources are best-effort — a
// missing or malformed result just leaves the default auth mask.
func (tok *Token) fusePolicyFromCard(id SlotID, slot *Slot) {
	if !tok.IsYkpiv {
		return
	}
	switch {
	case tok.Firmware.AtLeast(5, 3, 0):
		tok.GetMetadata(id)
	case tok.Firmware.AtLeast(4, 0, 0):
		tok.fuseAttestationPolicy(id, slot)
	}
}

// fuseAttestationPolicy is the ATTEST-based fallback for cards that
// support YubicoPIV attestation but not GET METADATA (§4.C7
// "Attestation-based metadata").
func (tok *Token) fuseAttestationPolicy(id SlotID, slot *Slot) {
	cert, err := tok.Attest(id)
	if err != nil {
		return
	}
	for _, ext := range cert.Extensions {
		if !ext.Id.Equal(attestPolicyOID) || len(ext.Value) < 2 {
			continue
		}
		fuseAuthMask(&slot.Auth, PinPolicy(ext.Value[0]), TouchPolicy(ext.Value[1]))
		return
	}
}

func gunzipCert(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	limited := io.LimitReader(r, maxCertPayload+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(out) > maxCertPayload {
		return nil, newErr(KindCertFlag, "decompressed certificate exceeds maximum payload size")
	}
	return out, nil
}

// algorithmForPublicKey derives the PIV Algorithm identifier implied by
// a parsed certificate's public key, when unambiguous.
func algorithmForPublicKey(pub interface{}) (Algorithm, bool) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		switch k.N.BitLen() {
		case 1024:
			return AlgRSA1024, true
		case 2048:
			return AlgRSA2048, true
		}
	case *ecdsa.PublicKey:
		switch k.Curve.Params().BitSize {
		case 256:
			return AlgECCP256, true
		case 384:
			return AlgECCP384, true
		}
	}
	return 0, false
}

// wellKnownSlots and retiredSlotCount bound ReadAllCerts' scan (§4.C7).
var wellKnownSlots = []SlotID{
	SlotAuthentication, SlotSignature, SlotKeyManagement, SlotCardAuthentication,
}

const retiredSlotCount = 20

// ReadAllCerts reads every well-known and retired-key-management slot's
// certificate, tolerating per-slot KindNotFound and continuing the scan
// (§4.C7 "read_all_certs"). It returns every slot it successfully
// populated, idempotently refreshing the token's slot catalog.
func (tok *Token) ReadAllCerts() ([]*Slot, error) {
	if err := tok.requireSelected(); err != nil {
		return nil, err
	}

	var out []*Slot
	ids := make([]SlotID, 0, len(wellKnownSlots)+retiredSlotCount)
	ids = append(ids, wellKnownSlots...)
	for i := 0; i < retiredSlotCount; i++ {
		ids = append(ids, RetiredKeyManagementSlot(i))
	}

	for _, id := range ids {
		slot, err := tok.ReadCert(id)
		if err != nil {
			if CaughtBy(err, KindNotFound) {
				continue
			}
			return out, err
		}
		out = append(out, slot)
	}
	tok.didReadAllCerts = true
	return out, nil
}

// buildCertObject wraps a DER certificate in the `70`/`71`/`fe` fields
// of a certificate object, optionally gzip-compressing it (§4.C8
// "WriteCert"); putData adds the outer `53` wrapper.
func buildCertObject(der []byte, compress bool) ([]byte, error) {
	body := der
	infoBit := byte(0)
	if compress {
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(der); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		body = buf.Bytes()
		infoBit = certInfoGzipBit
	}
	return bertlv.BuildAll(
		bertlv.Node{Tag: tagCertBody, Value: body},
		bertlv.Node{Tag: tagCertInfo, Value: []byte{infoBit}},
		bertlv.Node{Tag: tagCertErrDet, Value: nil},
	), nil
}

// WriteCert stores der as slot id's certificate, requiring prior
// management-key authentication. compress gzip-compresses the payload,
// matching how larger ECC/RSA certificates are typically stored.
func (tok *Token) WriteCert(id SlotID, der []byte, compress bool) error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	tag, ok := certTag(id)
	if !ok {
		return newErr(KindArgument, "slot has no certificate object")
	}
	obj, err := buildCertObject(der, compress)
	if err != nil {
		return wrapErr(KindInvalidData, "compressing certificate", err)
	}
	s, err := tok.putData(tag, obj)
	if err != nil {
		return err
	}
	if s != swSuccess {
		return wrapErr(KindIOError, "writing certificate", apduError(s))
	}
	tok.mustResetOnEnd = true
	return nil
}
