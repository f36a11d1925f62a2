// Package domainerrors defines the coded errors domain logic returns across
// package boundaries. Stores speak in sentinels; services translate those
// into codes here; transport maps codes to HTTP statuses. The code string is
// the only error detail that ever reaches a caller.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies an error class. Codes are part of the API contract: they
// appear verbatim in error envelopes and audit events.
type Code string

const (
	CodeInvalidInput Code = "invalid_input"
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"

	// Disclosure contract violations.
	CodeMaskLengthMismatch Code = "mask_length_mismatch"
	CodeUnknownField       Code = "unknown_field"

	// CodeInvalidValue is reserved for value-level validation. The engine
	// treats stored values as opaque bytes, so nothing raises it today.
	CodeInvalidValue Code = "invalid_value"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from err. Uncoded errors report CodeInternal so
// infrastructure details never leak through the envelope.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest, CodeMaskLengthMismatch, CodeUnknownField, CodeInvalidValue:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
