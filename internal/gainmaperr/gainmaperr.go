// Package gainmaperr defines the error taxonomy shared by Apply and Compute.
package gainmaperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a gain-map core failure.
type Kind int

const (
	// Other wraps an error surfaced unchanged from a collaborator (YUV/RGB
	// conversion, scaler, plane allocation).
	Other Kind = iota
	// InvalidArgument marks null inputs, out-of-range headroom, invariant
	// violations, and rational-conversion failures.
	InvalidArgument
	// NotImplemented marks unsupported color spaces, unsupported primary
	// pairs, and ICC profiles.
	NotImplemented
	// OutOfMemory marks scratch allocation failure.
	OutOfMemory
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case NotImplemented:
		return "NotImplemented"
	case OutOfMemory:
		return "OutOfMemory"
	default:
		return "Other"
	}
}

// Error is the core's error type: a Kind plus a human-readable message and an
// optional wrapped cause from a collaborator.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New builds an Error with no wrapped cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a new Error of the given kind, preserving cause's
// message and stack via github.com/pkg/errors so collaborator failures are
// propagated unchanged per spec (§7 "Other — any error surfaced ... is
// propagated unchanged") while still carrying a Kind for callers that switch
// on it.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}

// Is reports whether err is a gainmap error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
