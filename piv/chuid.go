package piv

import (
	"crypto/sha256"

	"github.com/google/uuid"
)

const (
	tagFASCN      uint16 = 0x30
	tagCardGUID   uint16 = 0x34
	tagExpiry     uint16 = 0x35
	tagCHUUID     uint16 = 0x36
	tagSignature  uint16 = 0x3e
)

// ReadCHUID reads and parses the Card Holder Unique Identifier object
// (§4.C6 "CHUID parse"). Absence (SW 6A82/6A80) is tolerated: HasCHUID is
// left false and nil is returned, matching the §7 propagation policy for
// enumeration.
func (tok *Token) ReadCHUID() error {
	if err := tok.requireSelected(); err != nil {
		return err
	}

	body, s, err := tok.getData(tagCHUID)
	if err != nil {
		return err
	}
	if s == swFileNotFound || s == swWrongData {
		tok.HasCHUID = false
		return nil
	}
	if s != swSuccess {
		return wrapErr(KindIOError, "reading chuid", apduError(s))
	}

	fields, err := unwrap53(body)
	if err != nil {
		return wrapErr(KindPIVTagError, "parsing chuid", err)
	}

	tok.HasCHUID = true
	for _, f := range fields {
		switch f.Tag {
		case tagFASCN:
			tok.FASCN = f.Value
		case tagExpiry:
			tok.Expiry = f.Value
		case tagCardGUID:
			if !isAllZero(f.Value) {
				tok.GUID = append([]byte(nil), f.Value...)
			}
		case tagCHUUID:
			if !isAllZero(f.Value) && len(f.Value) == 16 {
				id, err := uuid.FromBytes(f.Value)
				if err == nil {
					tok.CardholderUUID = id
				}
			}
		case tagSignature:
			tok.SignedCHUID = len(f.Value) > 0
		}
		// org-id, DUNS, buffer-length, and CRC tags are ignored per §4.C6.
	}

	if tok.GUID == nil {
		if tok.CardholderUUID != uuid.Nil {
			tok.GUID = append([]byte(nil), tok.CardholderUUID[:]...)
		} else if len(tok.FASCN) > 0 {
			tok.GUID = synthesizeGUID(tok.FASCN)
		}
	}

	return nil
}

// synthesizeGUID implements §4.C6's fallback and §8 invariant 9: the
// first 16 bytes of SHA-256(FASC-N).
func synthesizeGUID(fascn []byte) []byte {
	sum := sha256.Sum256(fascn)
	return append([]byte(nil), sum[:16]...)
}

func isAllZero(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
