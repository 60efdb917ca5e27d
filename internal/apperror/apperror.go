// Package apperror defines the error taxonomy shared by all modules.
// Storage-layer errors are translated into one of these kinds before they
// leave a module; handlers map kinds onto HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and for HTTP mapping.
type Kind string

const (
	// KindNotFound means the referenced entity is absent or soft-deleted.
	KindNotFound Kind = "not_found"
	// KindConflict means a uniqueness constraint was violated.
	KindConflict Kind = "conflict"
	// KindInvalidOperation means the request would violate a domain invariant.
	KindInvalidOperation Kind = "invalid_operation"
	// KindBadRequest means the input was malformed.
	KindBadRequest Kind = "bad_request"
	// KindInternal means a data-integrity or infrastructure failure.
	KindInternal Kind = "internal"
)

// Error is a structured application error with a machine-readable kind
// and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// InvalidOperation builds a KindInvalidOperation error.
func InvalidOperation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidOperation, Message: fmt.Sprintf(format, args...)}
}

// BadRequest builds a KindBadRequest error.
func BadRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps err as a KindInternal error.
func Internal(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// MessageOf extracts the message from err. Unclassified errors report a
// generic message so raw storage errors never reach a caller.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal server error"
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
