package piv

// PIV application identifier (NIST SP 800-73-4 §3.2.1) and the AIDs of
// two YubicoPIV vendor applets. Only aidPIV is selected by this package.
var (
	aidPIV        = []byte{0xa0, 0x00, 0x00, 0x03, 0x08, 0x00, 0x00, 0x10, 0x00, 0x01, 0x00}
	aidYubicoMgmt = [...]byte{0xa0, 0x00, 0x00, 0x05, 0x27, 0x47, 0x11, 0x17}
	aidYubiKey    = [...]byte{0xa0, 0x00, 0x00, 0x05, 0x27, 0x20, 0x01, 0x01}
)

// Instruction bytes, NIST SP 800-73-4 + YubicoPIV extensions (§6).
const (
	insSelectApplication  byte = 0xa4
	insVerify             byte = 0x20
	insChangeReference    byte = 0x24
	insResetRetry         byte = 0x2c
	insGeneralAuthenticate byte = 0x87
	insGetData            byte = 0xcb
	insPutData            byte = 0xdb
	insGenerateAsymmetric byte = 0x47
	insContinue           byte = 0xc0

	insSetMGMKey     byte = 0xff
	insImportKey     byte = 0xfe
	insGetVersion    byte = 0xfd
	insSetPINRetries byte = 0xfa
	insAttest        byte = 0xf9
	insGetSerial     byte = 0xf8
	insReset         byte = 0xfb
	insGetMetadata   byte = 0xf7
)

// SlotID identifies a key/certificate position on a token.
type SlotID byte

// Well-known slots (§6).
const (
	SlotAuthentication     SlotID = 0x9a
	SlotSignature          SlotID = 0x9c
	SlotKeyManagement      SlotID = 0x9d
	SlotCardAuthentication SlotID = 0x9e
	SlotCardManagement     SlotID = 0x9b
	SlotAttestation        SlotID = 0xf9

	retiredSlotFirst SlotID = 0x82
	retiredSlotLast  SlotID = 0x95
)

// RetiredKeyManagementSlot returns the retired key-management slot at
// index n, n in [0, 19].
func RetiredKeyManagementSlot(n int) SlotID {
	return SlotID(int(retiredSlotFirst) + n)
}

// IsRetired reports whether s is one of the 20 retired key-history slots
// (0x82..0x95).
func (s SlotID) IsRetired() bool {
	return s >= retiredSlotFirst && s <= retiredSlotLast
}

// Algorithm identifies an on-card key algorithm, per §6.
type Algorithm byte

const (
	Alg3DES      Algorithm = 0x03
	AlgRSA1024   Algorithm = 0x06
	AlgRSA2048   Algorithm = 0x07
	AlgAES128    Algorithm = 0x08
	AlgAES192    Algorithm = 0x0a
	AlgAES256    Algorithm = 0x0c
	AlgECCP256   Algorithm = 0x11
	AlgECCP384   Algorithm = 0x14
	AlgECCP256SHA1   Algorithm = 0xf0 // JCOP22x hash-on-card variants
	AlgECCP256SHA256 Algorithm = 0xf1
	AlgECCP384SHA1   Algorithm = 0xf2
	AlgECCP384SHA256 Algorithm = 0xf3
	AlgECCP384SHA384 Algorithm = 0xf4
)

// PINKind distinguishes the application PIN from the global PIV PIN
// (§6, "PIN kinds").
type PINKind byte

const (
	PINApplication PINKind = 0x80
	PINGlobal      PINKind = 0x00
)

// PinPolicy and TouchPolicy are YubicoPIV per-slot metadata/generation
// policies (§4.C7, §4.C8).
type PinPolicy byte

const (
	PinPolicyDefault PinPolicy = 0x00
	PinPolicyNever   PinPolicy = 0x01
	PinPolicyOnce    PinPolicy = 0x02
	PinPolicyAlways  PinPolicy = 0x03
)

type TouchPolicy byte

const (
	TouchPolicyDefault TouchPolicy = 0x00
	TouchPolicyNever   TouchPolicy = 0x01
	TouchPolicyAlways  TouchPolicy = 0x02
	TouchPolicyCached  TouchPolicy = 0x03
)

// File/object tags, NIST SP 800-73-4 Table 7 + YubicoPIV cert tags (§6).
const (
	tagCHUID      = 0x5fc102
	tagDiscovery  = 0x7e
	tagKeyHistory = 0x5fc10c
	tagRetiredCertBase = 0x5fc10d // slot 0x82; +n per slot offset

	tagCertAuthentication = 0x5fc105
	tagCertSignature      = 0x5fc10a
	tagCertKeyManagement  = 0x5fc10b
	tagCertCardAuth       = 0x5fc101
)

// certTag resolves the GET DATA object tag holding the X.509 certificate
// for a given slot (§4.C7).
func certTag(slot SlotID) (uint32, bool) {
	switch slot {
	case SlotAuthentication:
		return tagCertAuthentication, true
	case SlotSignature:
		return tagCertSignature, true
	case SlotKeyManagement:
		return tagCertKeyManagement, true
	case SlotCardAuthentication:
		return tagCertCardAuth, true
	}
	if slot.IsRetired() {
		return uint32(tagRetiredCertBase + int(slot-retiredSlotFirst)), true
	}
	return 0, false
}

const (
	// maxAPDUSize is the minimum reply buffer size mandated by §4.C2.
	maxAPDUSize = 261
	// maxChainSegment is the largest data payload a single chained
	// command frame may carry before CLA-chaining splits it (§4.C3).
	maxChainSegment = 255
	// maxCertPayload caps decompressed certificate bytes (§6).
	maxCertPayload = 16384
)

// DefaultPIN, DefaultPUK, and DefaultManagementKey are the PIV applet's
// factory values.
var (
	DefaultPIN            = "123456"
	DefaultPUK            = "12345678"
	DefaultManagementKey  = [24]byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	}
)
