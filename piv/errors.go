package piv

import (
	"errors"
	"fmt"
)

// Kind is the structured error taxonomy from §7. It mirrors the teacher's
// apduErr/AuthErr split but collapses every status-word mapping and every
// parse/semantic fault into one discriminated type so callers can branch
// on Kind instead of re-deriving it from a status word themselves.
type Kind int

const (
	KindUnknown Kind = iota
	KindPCSCError
	KindPCSCContextError
	KindIOError
	KindAPDUError
	KindPIVTagError
	KindInvalidData
	KindPermission
	KindMinRetries
	KindNotFound
	KindDuplicate
	KindNotSupported
	KindLength
	KindBadAlgorithm
	KindCertFlag
	KindDecompression
	KindDeviceOutOfMemory
	KindResetConditions
	KindExtensionMissing
	KindExtensionInvalid
	KindArgument
	KindKeyAuth
	KindKeysNotEqual
)

func (k Kind) String() string {
	switch k {
	case KindPCSCError:
		return "PCSCError"
	case KindPCSCContextError:
		return "PCSCContextError"
	case KindIOError:
		return "IOError"
	case KindAPDUError:
		return "APDUError"
	case KindPIVTagError:
		return "PIVTagError"
	case KindInvalidData:
		return "InvalidDataError"
	case KindPermission:
		return "PermissionError"
	case KindMinRetries:
		return "MinRetriesError"
	case KindNotFound:
		return "NotFoundError"
	case KindDuplicate:
		return "DuplicateError"
	case KindNotSupported:
		return "NotSupportedError"
	case KindLength:
		return "LengthError"
	case KindBadAlgorithm:
		return "BadAlgorithmError"
	case KindCertFlag:
		return "CertFlagError"
	case KindDecompression:
		return "DecompressionError"
	case KindDeviceOutOfMemory:
		return "DeviceOutOfMemoryError"
	case KindResetConditions:
		return "ResetConditionsError"
	case KindExtensionMissing:
		return "ExtensionMissing"
	case KindExtensionInvalid:
		return "ExtensionInvalid"
	case KindArgument:
		return "ArgumentError"
	case KindKeyAuth:
		return "KeyAuthError"
	case KindKeysNotEqual:
		return "KeysNotEqualError"
	default:
		return "UnknownError"
	}
}

// Error is the structured error value returned by the piv package. It
// carries a cause chain the same way the teacher's apduErr.Unwrap does,
// so errors.As/errors.Is keeps working for callers that only care about
// one specific Kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// Retries is populated for KindMinRetries and wrong-PIN/PUK
	// KindPermission errors (§7, §8 S4/S6).
	Retries int
	// SW is the raw status word, when the error originated from one
	// (KindAPDUError, KindPermission, KindNotFound, ...).
	SW uint16
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.SW != 0 {
		msg = fmt.Sprintf("%s (sw=%04x)", msg, e.SW)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, piv.ErrNotFound) style sentinels work without
// exposing every Kind as its own package-level var, matching the
// teacher's ErrNotFound/AuthErr duality (pcsc.go) but generalized.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// CaughtBy reports whether err (or anything in its chain) is a *Error of
// the given Kind. Used by read_all_certs and enumeration to implement the
// "caused_by(kind)" predicate named in §9.
func CaughtBy(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// statusWord is the two-byte SW1/SW2 trailer from an APDU response.
type statusWord uint16

func sw(sw1, sw2 byte) statusWord { return statusWord(uint16(sw1)<<8 | uint16(sw2)) }

const (
	swSuccess         statusWord = 0x9000
	swWrongLength     statusWord = 0x6700
	swSecurityStatus  statusWord = 0x6982
	swAuthBlocked     statusWord = 0x6983
	swWrongData       statusWord = 0x6a80
	swFuncNotSupported statusWord = 0x6a81
	swFileNotFound    statusWord = 0x6a82
	swOutOfMemory     statusWord = 0x6a84
	swIncorrectP1P2   statusWord = 0x6a86
	swInsNotSupported statusWord = 0x6d00
)

// isChainContinue reports the SWs that mean "keep going" inside the
// chaining loop (§4.C3 step 1): clean completion, BYTES_REMAINING,
// WARNING_NO_CHANGE and WARNING.
func (s statusWord) isChainContinue() bool {
	if s == swSuccess {
		return true
	}
	hi := byte(s >> 8)
	return hi == 0x61 || hi == 0x62 || hi == 0x63
}

func (s statusWord) isBytesRemaining() bool { return byte(s>>8) == 0x61 }
func (s statusWord) isCorrectLe() bool      { return byte(s>>8) == 0x6c }
func (s statusWord) leHint() byte           { return byte(s) }

// wrongPINRetries extracts the retry count from a 0x63Cx status word
// (§6 taxonomy, "63Cx wrong PIN").
func (s statusWord) wrongPINRetries() (int, bool) {
	if s&0xfff0 == 0x63c0 {
		return int(s & 0x0f), true
	}
	return 0, false
}

// apduError translates a non-success status word into a *Error per the
// §6 status-word taxonomy. Callers that need a different mapping for a
// specific command (e.g. sign_prehash's 0x6982 handling, §4.C8) build
// their own *Error instead of calling this.
func apduError(s statusWord) error {
	switch s {
	case swSuccess:
		return nil
	case swWrongLength:
		return &Error{Kind: KindAPDUError, Message: "wrong length", SW: uint16(s)}
	case swSecurityStatus:
		return &Error{Kind: KindPermission, Message: "security status not satisfied", SW: uint16(s)}
	case swAuthBlocked:
		return &Error{Kind: KindPermission, Message: "authentication method blocked", SW: uint16(s), Retries: 0}
	case swWrongData:
		return &Error{Kind: KindInvalidData, Message: "wrong data", SW: uint16(s)}
	case swFuncNotSupported:
		return &Error{Kind: KindNotSupported, Message: "function not supported", SW: uint16(s)}
	case swFileNotFound:
		return &Error{Kind: KindNotFound, Message: "file or application not found", SW: uint16(s)}
	case swOutOfMemory:
		return &Error{Kind: KindDeviceOutOfMemory, Message: "not enough memory on card", SW: uint16(s)}
	case swIncorrectP1P2:
		return &Error{Kind: KindNotSupported, Message: "incorrect P1/P2", SW: uint16(s)}
	case swInsNotSupported:
		return &Error{Kind: KindNotSupported, Message: "instruction not supported", SW: uint16(s)}
	}
	if n, ok := s.wrongPINRetries(); ok {
		return &Error{Kind: KindPermission, Message: "wrong pin or puk", SW: uint16(s), Retries: n}
	}
	return &Error{Kind: KindAPDUError, Message: "unexpected status word", SW: uint16(s)}
}
