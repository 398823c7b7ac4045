// Package errors provides structured error types shared by the CLI and the
// HTTP server.
//
// Core packages report failures with plain sentinel errors (for example
// [hierarchy.ErrDuplicateLeaf]). Front-ends translate them with [FromDomain]
// into an [*Error] carrying a machine-readable [Code], which maps onto an HTTP
// status via [HTTPStatus].
//
// # Error Codes
//
// Codes follow a simple naming convention:
//   - INVALID_*: input validation failures
//   - MALFORMED_*, DUPLICATE_*, DETACHED_*, UNKNOWN_*, MISSING_*: hierarchy
//     and bundling failures
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
//	if errors.Is(err, errors.ErrCodeInvalidFormat) {
//	    // Handle validation error
//	}
//
//	// Classify a core error
//	apiErr := errors.FromDomain(err)
//	status := errors.HTTPStatus(apiErr.Code)
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
	"github.com/matzehuels/hierbundle/pkg/core/render"
	"github.com/matzehuels/hierbundle/pkg/core/render/layout"
	"github.com/matzehuels/hierbundle/pkg/graph"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidVizType   Code = "INVALID_VIZ_TYPE"
	ErrCodeInvalidDelimiter Code = "INVALID_DELIMITER"
	ErrCodeInvalidTension   Code = "INVALID_TENSION"
	ErrCodeInvalidSpline    Code = "INVALID_SPLINE"

	// Hierarchy and bundling errors
	ErrCodeMalformedIdentifier Code = "MALFORMED_IDENTIFIER"
	ErrCodeDuplicateLeaf       Code = "DUPLICATE_LEAF"
	ErrCodeDetachedNode        Code = "DETACHED_NODE"
	ErrCodeUnknownLeaf         Code = "UNKNOWN_LEAF"
	ErrCodeMissingCoordinate   Code = "MISSING_COORDINATE"

	// Resource errors
	ErrCodeNotFound    Code = "NOT_FOUND"
	ErrCodeUnsupported Code = "UNSUPPORTED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// domainCodes maps core sentinel errors to codes. Order matters: the first
// match in the chain wins.
var domainCodes = []struct {
	err  error
	code Code
}{
	{hierarchy.ErrInvalidDelimiter, ErrCodeInvalidDelimiter},
	{hierarchy.ErrNoIdentifiers, ErrCodeInvalidInput},
	{hierarchy.ErrMalformedIdentifier, ErrCodeMalformedIdentifier},
	{hierarchy.ErrDuplicateLeaf, ErrCodeDuplicateLeaf},
	{hierarchy.ErrDetachedNode, ErrCodeDetachedNode},
	{bundle.ErrUnknownLeaf, ErrCodeUnknownLeaf},
	{bundle.ErrMissingCoordinate, ErrCodeMissingCoordinate},
	{bundle.ErrInvalidTension, ErrCodeInvalidTension},
	{layout.ErrNilTree, ErrCodeInvalidInput},
	{graph.ErrEmptyDocument, ErrCodeInvalidInput},
	{graph.ErrInvalidDocument, ErrCodeInvalidInput},
	{render.ErrConverterMissing, ErrCodeUnsupported},
}

// FromDomain classifies err into an *Error. Errors that already carry a code
// are returned unchanged; unrecognized errors become INTERNAL_ERROR. A nil
// error yields nil.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	for _, dc := range domainCodes {
		if errors.Is(err, dc.err) {
			return &Error{Code: dc.code, Message: err.Error(), Cause: err}
		}
	}
	return &Error{Code: ErrCodeInternal, Message: err.Error(), Cause: err}
}

// HTTPStatus returns the HTTP status code for an error code.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidVizType,
		ErrCodeInvalidDelimiter, ErrCodeInvalidTension, ErrCodeInvalidSpline:
		return http.StatusBadRequest
	case ErrCodeMalformedIdentifier, ErrCodeDuplicateLeaf, ErrCodeUnknownLeaf,
		ErrCodeMissingCoordinate:
		return http.StatusUnprocessableEntity
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
