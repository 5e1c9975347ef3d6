package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable error category that callers can switch on.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindDuplicateEmail     Kind = "duplicate_email"
	KindNotFound           Kind = "not_found"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindNotVerified        Kind = "not_verified"
	KindInvalidCode        Kind = "invalid_code"
	KindUnauthenticated    Kind = "unauthenticated"
	KindNotifyFailed       Kind = "notify_failed"
	KindRateLimited        Kind = "rate_limited"
	KindInternal           Kind = "internal"
)

// AppError carries a kind, a human readable message and an optional cause.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
	// Fields holds per-field messages for validation failures.
	Fields map[string]string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *AppError) Unwrap() error { return e.Err }

// New creates an AppError without a cause.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an existing error.
func Wrap(err error, kind Kind, message string) *AppError {
	if err == nil {
		return New(kind, message)
	}
	return &AppError{Kind: kind, Message: message, Err: err}
}

// Internal wraps an unexpected infrastructure failure.
func Internal(err error) *AppError {
	return Wrap(err, KindInternal, "Internal server error")
}

// Validation builds a validation error with per-field messages.
func Validation(fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

// KindOf reports the kind of err, or KindInternal for errors that are not AppErrors.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err is an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Kind == kind
}
