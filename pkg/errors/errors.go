// Package errors provides structured error types for the Atlas application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, server, and library code
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages rendered inline in the host document
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (block parameters, coordinates)
//   - *_NOT_FOUND: Resource not found
//   - DECODE_*: Image decoding failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidBlock, "type=image requires an image key")
//	if errors.Is(err, errors.ErrCodeInvalidBlock) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStoreWrite, origErr, "write tile %d/%d/%d", z, x, y)
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
	ErrCodeInvalidBlock      Code = "INVALID_BLOCK"
	ErrCodeInvalidCoordinate Code = "INVALID_COORDINATE"
	ErrCodeInvalidMarker     Code = "INVALID_MARKER"
	ErrCodeInvalidPath       Code = "INVALID_PATH"
	ErrCodeInvalidZoom       Code = "INVALID_ZOOM"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeImageNotFound   Code = "IMAGE_NOT_FOUND"
	ErrCodePyramidNotFound Code = "PYRAMID_NOT_FOUND"

	// Image decoding errors
	ErrCodeDecodeFailed  Code = "DECODE_FAILED"
	ErrCodeDecodeTimeout Code = "DECODE_TIMEOUT"

	// Storage errors
	ErrCodeStoreWrite Code = "STORE_WRITE"
	ErrCodeStoreRead  Code = "STORE_READ"

	// Session errors
	ErrCodeSessionDestroyed Code = "SESSION_DESTROYED"

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
