package box

import (
	"errors"
	"fmt"
)

// Kind is the box package's own error taxonomy (§7), disjoint from
// piv.Kind since a box is usable entirely offline and most of its
// failure modes (bad magic, bad padding, curve mismatch) have no
// APDU/status-word analogue.
type Kind int

const (
	KindUnknown Kind = iota
	KindSealed
	KindPadding
	KindMagic
	KindVersion
	KindCurve
	KindKeyAuth
	KindKeysNotEqual
	KindArgument
	KindNotFound
	KindDuplicate
	KindLength
)

func (k Kind) String() string {
	switch k {
	case KindSealed:
		return "BoxSealed"
	case KindPadding:
		return "PaddingError"
	case KindMagic:
		return "MagicError"
	case KindVersion:
		return "VersionError"
	case KindCurve:
		return "CurveError"
	case KindKeyAuth:
		return "KeyAuthError"
	case KindKeysNotEqual:
		return "KeysNotEqualError"
	case KindArgument:
		return "ArgumentError"
	case KindNotFound:
		return "NotFoundError"
	case KindDuplicate:
		return "DuplicateError"
	case KindLength:
		return "LengthError"
	default:
		return "UnknownError"
	}
}

// Error is the structured error value returned by the box package.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

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

// CaughtBy reports whether err (or its chain) is a *Error of kind.
func CaughtBy(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
