// Package apperr is the application error taxonomy shared by services and HTTP handlers.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation     Kind = "VALIDATION_ERROR"
	KindAuthentication Kind = "AUTHENTICATION_ERROR"
	KindAuthorization  Kind = "AUTHORIZATION_ERROR"
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindDatabase       Kind = "DATABASE_ERROR"
	KindIntegration    Kind = "INTEGRATION_ERROR"
	KindRateLimited    Kind = "RATE_LIMITED"
	KindInternal       Kind = "INTERNAL_ERROR"
)

// Error is the domain error type with a kind, a machine-readable code and optional field errors.
type Error struct {
	Kind    Kind
	Code    string            // Machine-readable code, defaults to Kind
	Message string            // User-facing message
	Fields  map[string]string // Field name -> message for validation failures
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// HTTPStatus maps the error kind to an HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindIntegration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns Code, or the kind when no specific code was set.
func (e *Error) ErrorCode() string {
	if e.Code != "" {
		return e.Code
	}
	return string(e.Kind)
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func Authentication(message string, cause error) *Error {
	return newError(KindAuthentication, message, cause)
}

func Authorization(message string) *Error {
	return newError(KindAuthorization, message, nil)
}

func NotFound(message string, cause error) *Error {
	return newError(KindNotFound, message, cause)
}

func Conflict(message string, cause error) *Error {
	return newError(KindConflict, message, cause)
}

func Database(message string, cause error) *Error {
	return newError(KindDatabase, message, cause)
}

func Integration(message string, cause error) *Error {
	return newError(KindIntegration, message, cause)
}

func RateLimited(message string) *Error {
	return newError(KindRateLimited, message, nil)
}

// WithCode sets a specific machine-readable code and returns the same error.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// As extracts the *Error from err's chain. Errors that carry no kind are reported as internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: KindInternal, Message: "internal server error", Cause: err}
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
