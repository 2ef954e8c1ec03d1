// Package apperr is the error taxonomy used across memento. Handlers unwrap
// AppError with errors.As and map it straight to an HTTP status and body;
// everything else becomes a 500 with no internal detail leaked.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Type classifies an AppError for callers that want to branch on it.
type Type string

const (
	TypeValidation    Type = "validation"
	TypeNotFound      Type = "not_found"
	TypeUnauthorized  Type = "unauthorized"
	TypeForbidden     Type = "forbidden"
	TypeQuotaExceeded Type = "quota_exceeded"
	TypeConflict      Type = "conflict"
	TypeRateLimit     Type = "rate_limit"
	TypeUnavailable   Type = "unavailable"
	TypeIntegrity     Type = "integrity"
	TypeInternal      Type = "internal"
)

// AppError is the single error type surfaced across service boundaries.
type AppError struct {
	Type       Type
	Message    string
	HTTPStatus int
	Cause      error
	Details    map[string]any
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithDetails attaches structured context (e.g. quota limit/current).
func (e *AppError) WithDetails(d map[string]any) *AppError {
	e.Details = d
	return e
}

func New(t Type, status int, message string) *AppError {
	return &AppError{Type: t, Message: message, HTTPStatus: status}
}

func NewValidation(message string) *AppError {
	return New(TypeValidation, http.StatusBadRequest, message)
}

func NewNotFound(resource string) *AppError {
	return New(TypeNotFound, http.StatusNotFound, resource+" not found")
}

func NewUnauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return New(TypeUnauthorized, http.StatusUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return New(TypeForbidden, http.StatusForbidden, message)
}

// NewQuotaExceeded builds the {error:"quota_exceeded", limit, current} shape
// returned when memory/item/workspace creation exceeds a plan limit.
func NewQuotaExceeded(resource string, limit, current int) *AppError {
	return New(TypeQuotaExceeded, http.StatusForbidden, resource+" quota exceeded").
		WithDetails(map[string]any{"limit": limit, "current": current})
}

func NewConflict(message string) *AppError {
	return New(TypeConflict, http.StatusConflict, message)
}

func NewRateLimit(retryAfterSeconds int) *AppError {
	return New(TypeRateLimit, http.StatusTooManyRequests, "rate limit exceeded").
		WithDetails(map[string]any{"retry_after": retryAfterSeconds})
}

func NewUnavailable(service string) *AppError {
	return New(TypeUnavailable, http.StatusServiceUnavailable, service+" unavailable")
}

// NewIntegrity signals a malformed encrypted value; never caught and
// downgraded to plaintext.
func NewIntegrity(message string) *AppError {
	return New(TypeIntegrity, http.StatusInternalServerError, message)
}

func NewInternal(message string, cause error) *AppError {
	e := New(TypeInternal, http.StatusInternalServerError, message)
	e.Cause = cause
	return e
}

// As extracts an *AppError from err, if any.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Is reports whether err is an AppError of the given type.
func Is(err error, t Type) bool {
	ae, ok := As(err)
	return ok && ae.Type == t
}
