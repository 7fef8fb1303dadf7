package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}

	// RateLimitError indicates the caller exhausted a usage quota
	RateLimitError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }
func (e *RateLimitError) Error() string    { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }
func (e *RateLimitError) StatusCode() int    { return http.StatusTooManyRequests }

// Is allows errors.Is() to match the typed errors against their sentinels
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }
func (e *RateLimitError) Is(target error) bool    { return target == ErrRateLimited }

// NewNotFoundError creates a NotFoundError with the given message
func NewNotFoundError(message string) *NotFoundError { return &NotFoundError{Message: message} }

// NewValidationError creates a ValidationError with the given message
func NewValidationError(message string) *ValidationError { return &ValidationError{Message: message} }

// NewUnauthorizedError creates an UnauthorizedError with the given message
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// NewForbiddenError creates a ForbiddenError with the given message
func NewForbiddenError(message string) *ForbiddenError { return &ForbiddenError{Message: message} }

// NewRateLimitError creates a RateLimitError with the given message
func NewRateLimitError(message string) *RateLimitError { return &RateLimitError{Message: message} }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("rate limited")

	// ErrDatabase wraps any underlying storage failure. Repositories discard the
	// driver cause (it is logged at the operation boundary) and return a fixed
	// per-operation message wrapping this sentinel.
	ErrDatabase = errors.New("database operation failed")

	// ErrUpstream indicates a model provider failure. It is never surfaced to
	// clients in detail; the stream emits a single generic error notice.
	ErrUpstream = errors.New("upstream model failure")
)
