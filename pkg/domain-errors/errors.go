// Package dErrors provides coded domain errors so services can signal intent
// without leaking transport concerns, and handlers can translate codes to
// HTTP statuses in one place.
package dErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain failure.
type Code string

const (
	// CodeInvalidInput marks malformed or incomplete caller input, e.g. a
	// donor snapshot missing the fields the scorer requires.
	CodeInvalidInput Code = "invalid_input"
	// CodeIllegalTransition marks a match status change not permitted from
	// the current state.
	CodeIllegalTransition Code = "illegal_transition"
	// CodeNotFound marks a missing donor, recipient, or match.
	CodeNotFound Code = "not_found"
	// CodeDuplicateMatch marks an insert that would violate the one match
	// per (donor, recipient) pair invariant. Recoverable by skipping.
	CodeDuplicateMatch Code = "duplicate_match"
	// CodePersistence marks a storage collaborator failure.
	CodePersistence Code = "persistence_failure"

	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"
)

// Error is the concrete domain error carried across module boundaries.
type Error struct {
	Code    Code
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

// New builds a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the domain code from err, or CodeInternal when err carries
// none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// ToHTTPStatus maps a domain code to the HTTP status handlers should emit.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeIllegalTransition, CodeDuplicateMatch, CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodePersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
