// Package apierr defines the structured error values the emulator returns
// alongside data, in place of thrown exceptions.
//
// Expected outcomes such as missing objects or conflicting uploads are never
// Go errors: operations hand back an *Error next to their data so test code
// can assert on the code and status the real backend would report.
package apierr

import (
	"errors"
	"fmt"
)

// Code categorizes emulator errors.
type Code string

const (
	// CodeNotFound indicates a storage object is absent.
	CodeNotFound Code = "NOT_FOUND"

	// CodeConflict indicates a non-upsert write to an existing storage path.
	CodeConflict Code = "CONFLICT"

	// CodeSchemaViolation indicates a write rejected by a table schema.
	CodeSchemaViolation Code = "SCHEMA_VIOLATION"
)

// Error is the structured {message, statusCode} error shape.
type Error struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`

	// Details carries optional context such as the bucket and path.
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NotFound creates a 404 error.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message, StatusCode: 404}
}

// Conflict creates a 409 error.
func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message, StatusCode: 409}
}

// SchemaViolation creates a 400 error for a rejected write.
func SchemaViolation(table string, err error) *Error {
	return &Error{
		Code:       CodeSchemaViolation,
		Message:    err.Error(),
		StatusCode: 400,
		Details:    map[string]string{"table": table},
	}
}

// WithDetail returns e with an extra detail entry.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Is reports whether err is an *Error carrying code.
// Uses errors.As to handle wrapped errors.
func Is(err error, code Code) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// IsNotFound returns true if the error is a not-found error.
func IsNotFound(err error) bool { return Is(err, CodeNotFound) }

// IsConflict returns true if the error is a conflict error.
func IsConflict(err error) bool { return Is(err, CodeConflict) }
