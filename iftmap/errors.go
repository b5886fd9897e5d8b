package iftmap

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failures that table reading, writing and map
// manipulation can produce.
type ErrorKind int

const (
	// KindInvalidFormat indicates malformed input: a wrong format number,
	// truncated data, or an unrecognized enum value.
	KindInvalidFormat ErrorKind = iota
	// KindOverflow indicates a value that does not fit its wire field.
	KindOverflow
	// KindUnsupported indicates a feature the codec knowingly does not emit.
	KindUnsupported
	// KindInconsistent indicates a decoded map that contradicts itself.
	KindInconsistent
	// KindOracle indicates a failure reported by the glyph-closure oracle.
	KindOracle
	// KindNotFound indicates a missing table or entry.
	KindNotFound
	// KindInternal indicates a bug in this module.
	KindInternal
)

// String returns the canonical name of an error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidFormat:
		return "INVALID_FORMAT"
	case KindOverflow:
		return "OVERFLOW"
	case KindUnsupported:
		return "UNSUPPORTED"
	case KindInconsistent:
		return "INCONSISTENT"
	case KindOracle:
		return "ORACLE_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// TableError is the error type returned by all fallible operations of this
// module. Section names the table region or operation that failed.
type TableError struct {
	Kind    ErrorKind
	Section string
	Issue   string
	wrapped error
}

// Error implements the error interface.
func (e *TableError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Section, e.Issue)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Issue)
}

// Unwrap returns the underlying cause, if any.
func (e *TableError) Unwrap() error {
	return e.wrapped
}

// Errorf creates a TableError for a given kind and section.
func Errorf(kind ErrorKind, section string, format string, args ...any) *TableError {
	return &TableError{
		Kind:    kind,
		Section: section,
		Issue:   fmt.Sprintf(format, args...),
	}
}

// WrapError attaches kind and section to an underlying error.
func WrapError(err error, kind ErrorKind, section string) *TableError {
	return &TableError{
		Kind:    kind,
		Section: section,
		Issue:   err.Error(),
		wrapped: err,
	}
}

// KindOf extracts the error kind from err. Errors not created by this module
// report KindInternal.
func KindOf(err error) ErrorKind {
	var terr *TableError
	if errors.As(err, &terr) {
		return terr.Kind
	}
	return KindInternal
}
