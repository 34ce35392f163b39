// Package apperr defines the error kinds services return and the HTTP
// status each kind maps to.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindForbidden
	KindNotFound
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Status maps a kind onto its HTTP status. Conflicts surface as 400.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a client-facing message and an optional cause that is only
// ever logged or exposed outside production.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// Expose allows the cause to reach clients in production too.
	Expose bool
	// Code overrides the kind's status, e.g. to relay an upstream status.
	Code int
}

// HTTPStatus is Code when set, otherwise the kind's status.
func (e *Error) HTTPStatus() int {
	if e.Code != 0 {
		return e.Code
	}
	return e.Kind.Status()
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Exposed marks the cause as safe to show to clients.
func (e *Error) Exposed() *Error {
	e.Expose = true
	return e
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Authentication(msg string) *Error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// Unavailable reports a failed call to a dependency outside this service.
func Unavailable(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status for err; unknown errors are 500.
func StatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
