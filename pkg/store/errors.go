package store

import (
	"errors"
	"fmt"
)

// Code is the application-level error taxonomy every layer above Store
// maps its failures into, so MCPDispatcher has one place to translate
// errors into JSON-RPC codes.
type Code string

const (
	CodeUnauthenticated      Code = "Unauthenticated"
	CodeTenantMismatch       Code = "TenantMismatch"
	CodeValidationError      Code = "ValidationError"
	CodeNotFound             Code = "NotFound"
	CodeConflict             Code = "Conflict"
	CodeInvariantViolation   Code = "InvariantViolation"
	CodeCircularDependency   Code = "CircularDependency"
	CodeReferentialIntegrity Code = "ReferentialIntegrity"
	CodeExpiredCapsule       Code = "ExpiredCapsule"
	CodeTemporaryUnavailable Code = "TemporaryUnavailable"
	CodeDeadlineExceeded     Code = "DeadlineExceeded"
	CodePermanentError       Code = "PermanentError"
)

// Error is the single error type every component above Store returns.
// Field is only meaningful for CodeValidationError.
type Error struct {
	Code    Code
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %q: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsCode reports whether err (or anything it wraps) carries the given code.
func IsCode(err error, code Code) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func NewValidationError(field, message string) error {
	return &Error{Code: CodeValidationError, Field: field, Message: message}
}

func NewNotFound(kind, id string) error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %q not found", kind, id)}
}

func NewConflict(message string) error {
	return &Error{Code: CodeConflict, Message: message}
}

func NewInvariantViolation(message string) error {
	return &Error{Code: CodeInvariantViolation, Message: message}
}

func NewCircularDependency(message string) error {
	return &Error{Code: CodeCircularDependency, Message: message}
}

func NewReferentialIntegrity(message string) error {
	return &Error{Code: CodeReferentialIntegrity, Message: message}
}

func NewExpiredCapsule(id string) error {
	return &Error{Code: CodeExpiredCapsule, Message: fmt.Sprintf("capsule %q has expired", id)}
}

func NewTenantMismatch() error {
	return &Error{Code: CodeTenantMismatch, Message: "tenant_id in payload does not match authenticated tenant"}
}

func NewUnauthenticated(message string) error {
	return &Error{Code: CodeUnauthenticated, Message: message}
}

func NewTemporaryUnavailable(err error) error {
	return &Error{Code: CodeTemporaryUnavailable, Message: "downstream dependency temporarily unavailable", Err: err}
}

func NewDeadlineExceeded() error {
	return &Error{Code: CodeDeadlineExceeded, Message: "request exceeded its deadline"}
}

func NewPermanentError(err error) error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Code: CodePermanentError, Message: msg, Err: err}
}
