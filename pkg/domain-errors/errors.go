// Package domainerrors defines the error taxonomy shared by all modules.
//
// Services return *Error values carrying a stable Code (what class of
// failure) and, when the failure is a policy denial or a state conflict,
// a machine-readable Reason. The transport layer maps codes to HTTP
// statuses; tests assert on codes and reasons, never on message text.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers.
type Code string

const (
	CodeValidation   Code = "validation"
	CodeInvalidInput Code = "invalid_input"
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"
)

// Reason is a stable machine-readable cause attached to forbidden and
// conflict errors so callers can distinguish why an operation failed.
type Reason string

const (
	ReasonForbiddenRole         Reason = "forbidden-role"
	ReasonForbiddenJurisdiction Reason = "forbidden-jurisdiction"
	ReasonSelfDeleteDenied      Reason = "self-delete-denied"
	ReasonProtectedRole         Reason = "protected-role"
	ReasonAlreadyInProcess      Reason = "already-in-process"
	ReasonNotInProcess          Reason = "not-in-process"
	ReasonDuplicate             Reason = "duplicate"
)

// Error is the concrete error type returned by domain services.
type Error struct {
	Code    Code
	Reason  Reason
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewWithReason constructs a domain error carrying a denial/conflict reason.
func NewWithReason(code Code, reason Reason, message string) *Error {
	return &Error{Code: code, Reason: reason, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) is a domain error
// with the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a convenience alias for HasCode used in test assertions.
func Is(err error, code Code) bool { return HasCode(err, code) }

// ReasonOf extracts the reason from err, or "" when err carries none.
func ReasonOf(err error) Reason {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// non-domain errors so unexpected failures never leak details.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
