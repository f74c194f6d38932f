// Package errors provides structured error types for lightbox.
//
// Every error that crosses a package boundary in the gallery core carries a
// machine-readable [Code] so that callers (the CLI, the HTTP server, or an
// embedding UI) can decide how to react without string matching:
//
//   - INVALID_IMAGE_DATA: a catalog entry has non-positive dimensions or is
//     missing a tier the viewer needs
//   - INDEX_OUT_OF_RANGE: a viewer index precondition was violated
//   - FETCH_FAILED: a catalog page could not be fetched
//   - INVALID_INPUT / INVALID_STATE: bad arguments or an operation that is
//     not valid in the current state
//
// # Usage
//
//	err := errors.New(errors.ErrCodeIndexOutOfRange, "index %d outside [0, %d)", i, n)
//	if errors.Is(err, errors.ErrCodeIndexOutOfRange) {
//	    // Caller should have checked the arrow flags
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFetchFailed, origErr, "fetch page at offset %d", off)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidImageData Code = "INVALID_IMAGE_DATA"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"

	// State machine errors
	ErrCodeIndexOutOfRange Code = "INDEX_OUT_OF_RANGE"
	ErrCodeInvalidState    Code = "INVALID_STATE"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Data source errors
	ErrCodeFetchFailed Code = "FETCH_FAILED"
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// Only the outermost *Error is considered, so a FETCH_FAILED wrapping a
// NETWORK_ERROR reports FETCH_FAILED.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IndexError carries the offending index and the valid length for
// INDEX_OUT_OF_RANGE and INVALID_IMAGE_DATA conditions, so callers can drop
// or highlight the exact item.
type IndexError struct {
	Index  int
	Length int
	Err    *Error
}

// Error implements the error interface.
func (e *IndexError) Error() string { return e.Err.Error() }

// Unwrap returns the coded error.
func (e *IndexError) Unwrap() error { return e.Err }

// AtIndex attaches an index to a coded error.
func AtIndex(index, length int, err *Error) error {
	return &IndexError{Index: index, Length: length, Err: err}
}

// IndexOf returns the index recorded by [AtIndex], if any.
func IndexOf(err error) (int, bool) {
	var ie *IndexError
	if errors.As(err, &ie) {
		return ie.Index, true
	}
	return -1, false
}
