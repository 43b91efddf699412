// Package errs defines the error taxonomy shared by services and handlers.
//
// Services return *Error values; handlers map the Code to an HTTP status.
//
//	if errors.Is(err, errs.ErrConflict) { ... }
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code returned to clients.
type Code string

const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeSuspended       Code = "SUSPENDED"
	CodeForbiddenRole   Code = "FORBIDDEN_ROLE"
	CodeConflict        Code = "CONFLICT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeUpstream        Code = "UPSTREAM_FAILURE"
	CodeValidation      Code = "VALIDATION"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeInternal        Code = "INTERNAL"
)

// HTTPStatus returns the status code the API uses for c.
// Conflicts are reported as 400 (duplicate email, already reviewed).
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeSuspended, CodeForbiddenRole:
		return http.StatusForbidden
	case CodeConflict, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, a client-safe message and an optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"error"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same Code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status for this error.
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// Sentinels for errors.Is.
var (
	ErrUnauthenticated = &Error{Code: CodeUnauthenticated, Message: "not authenticated"}
	ErrSuspended       = &Error{Code: CodeSuspended, Message: "account suspended"}
	ErrForbiddenRole   = &Error{Code: CodeForbiddenRole, Message: "admin role required"}
	ErrConflict        = &Error{Code: CodeConflict, Message: "conflict"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUpstream        = &Error{Code: CodeUpstream, Message: "upstream failure"}
	ErrValidation      = &Error{Code: CodeValidation, Message: "validation error"}
	ErrRateLimited     = &Error{Code: CodeRateLimited, Message: "too many requests"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal error"}
)

func Unauthenticated(msg string) *Error { return &Error{Code: CodeUnauthenticated, Message: msg} }

func Suspended(msg string) *Error { return &Error{Code: CodeSuspended, Message: msg} }

func ForbiddenRole(msg string) *Error { return &Error{Code: CodeForbiddenRole, Message: msg} }

func Conflict(msg string) *Error { return &Error{Code: CodeConflict, Message: msg} }

func NotFound(msg string) *Error { return &Error{Code: CodeNotFound, Message: msg} }

func Validation(msg string) *Error { return &Error{Code: CodeValidation, Message: msg} }

// ValidationWithDetails carries per-field messages, usually from the validation package.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

func Internal(msg string) *Error { return &Error{Code: CodeInternal, Message: msg} }

// Wrap attaches a code and message to err.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Upstream wraps a failure from an external service.
func Upstream(err error, msg string) *Error {
	return &Error{Code: CodeUpstream, Message: msg, cause: err}
}

// From returns err as an *Error, wrapping unknown errors as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, CodeInternal, "internal server error")
}
