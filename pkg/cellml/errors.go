package cellml

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a semantic violation raised by the data model.
type ErrorKind int

const (
	ErrInvalidIdentifier ErrorKind = iota
	ErrDuplicateName
	ErrUnknownUnits
	ErrIncompatibleUnits
	ErrInterfaceMismatch
	ErrBadConnection
	ErrDuplicateConnection
	ErrOverdetermined
	ErrMissingInitialValue
	ErrCyclicEncapsulation
	ErrBadValue
	ErrUnsupported
)

// String returns the kind's name for error messages.
func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidIdentifier:
		return "invalid identifier"
	case ErrDuplicateName:
		return "duplicate name"
	case ErrUnknownUnits:
		return "unknown units"
	case ErrIncompatibleUnits:
		return "incompatible units"
	case ErrInterfaceMismatch:
		return "interface mismatch"
	case ErrBadConnection:
		return "bad connection"
	case ErrDuplicateConnection:
		return "duplicate connection"
	case ErrOverdetermined:
		return "overdetermined variable"
	case ErrMissingInitialValue:
		return "missing initial value"
	case ErrCyclicEncapsulation:
		return "cyclic encapsulation"
	case ErrBadValue:
		return "bad value"
	case ErrUnsupported:
		return "unsupported feature"
	default:
		return "semantic violation"
	}
}

// Error is a semantic violation carrying its kind and the offending entity.
type Error struct {
	Kind    ErrorKind
	Entity  string
	Message string
}

func (e *Error) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, entity, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the semantic error kind from an error chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given semantic error kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Warning codes emitted by validation and parsing. Warnings are values rather
// than errors; callers decide whether to surface or escalate them.
const (
	WarnMultipleFreeVariables = "multiple-free-variables"
	WarnFreeVariable          = "free-variable"
	WarnUnresolvedUnits       = "unresolved-units"
)

// Warning is a non-fatal finding attributed to an entity.
type Warning struct {
	Code    string
	Entity  string
	Message string
}

func (w Warning) String() string {
	if w.Entity != "" {
		return fmt.Sprintf("%s: %s: %s", w.Code, w.Entity, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}
