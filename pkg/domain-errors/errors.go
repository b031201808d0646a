// Package domainerrors provides coded errors shared by services, stores, and transports.
//
// Services return *Error values carrying a Code; transports map codes to status codes
// and callers branch on HasCode instead of matching strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure. Codes are stable and appear in API responses and audit details.
type Code string

const (
	CodeInvalidTransition         Code = "invalid_transition"
	CodeBanned                    Code = "banned"
	CodeReapplicationNotGranted   Code = "reapplication_not_granted"
	CodeInstitutionNotFound       Code = "institution_not_found"
	CodeInstitutionAlreadyClaimed Code = "institution_already_claimed"
	CodeInvalidVerificationCode   Code = "invalid_verification_code"
	CodeConflict                  Code = "conflict"
	CodeTimeout                   Code = "timeout"
	CodeNotFound                  Code = "not_found"
	CodeValidation                Code = "validation_error"

	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeRateLimited        Code = "rate_limited"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a coded domain error. Err, when set, is the underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether the outermost coded error in err's chain has the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Is is an alias of HasCode kept for call sites that read better as dErrors.Is(err, code).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost coded error in err's chain, or CodeInternal
// for uncoded errors. A nil error has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the client-safe message of a coded error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
