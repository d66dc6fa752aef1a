// Package apperror defines the error taxonomy shared by services and HTTP
// handlers. Every error carries a kind that maps to an HTTP status, a message
// safe to show to clients, optional per-field problems, and the wrapped cause.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error for status mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateEmail
	KindInvalidCredentials
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindTooManyImages
	KindStorage
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the application error type. The Message is safe for clients; Err
// holds the underlying cause and is only surfaced in development mode.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so callers can compare against constructor sentinels
// with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindDuplicateEmail, KindTooManyImages:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation reports malformed input, optionally with per-field problems.
func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// DuplicateEmail reports a registration attempt with an email already in use.
func DuplicateEmail() *Error {
	return New(KindDuplicateEmail, "user already exists")
}

// InvalidCredentials reports a failed login. The message is identical for an
// unknown email and a wrong password so accounts cannot be enumerated.
func InvalidCredentials() *Error {
	return New(KindInvalidCredentials, "invalid credentials")
}

// Unauthenticated reports a request without a usable identity.
func Unauthenticated(message string) *Error {
	return New(KindUnauthenticated, message)
}

// Forbidden reports an authenticated caller acting outside their ownership.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// NotFound reports a missing resource. Ownership mismatches use the same kind
// so the existence of other users' records is not leaked.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// TooManyImages reports a request that would push a car past the image cap.
func TooManyImages(max int) *Error {
	return New(KindTooManyImages, fmt.Sprintf("a car may have at most %d images", max))
}

// Storage reports a disk or database failure.
func Storage(message string, err error) *Error {
	return Wrap(KindStorage, message, err)
}

// Internal reports an unclassified server-side failure.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// From converts any error into an *Error, defaulting to an internal error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(KindInternal, "internal server error", err)
}
