package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for translation at the API boundary.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindForbidden        Kind = "forbidden"
	KindValidationFailed Kind = "validation_failed"
	KindConflict         Kind = "conflict"
	KindNotFound         Kind = "not_found"
	KindUnavailable      Kind = "unavailable"
	KindTooManyRequests  Kind = "too_many_requests"
	KindInternal         Kind = "internal"
)

// Error is a domain failure carrying a kind and a user-facing detail.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.NotFound(""))
// works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	return StatusOf(e.Kind)
}

// StatusOf maps a kind to its HTTP status code.
func StatusOf(k Kind) int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidationFailed, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func Unauthenticated(detail string) *Error { return &Error{Kind: KindUnauthenticated, Detail: detail} }

func Forbidden(detail string) *Error { return &Error{Kind: KindForbidden, Detail: detail} }

func ValidationFailed(detail string) *Error {
	return &Error{Kind: KindValidationFailed, Detail: detail}
}

func Conflict(detail string) *Error { return &Error{Kind: KindConflict, Detail: detail} }

func NotFound(detail string) *Error { return &Error{Kind: KindNotFound, Detail: detail} }

func Unavailable(detail string, err error) *Error {
	return &Error{Kind: KindUnavailable, Detail: detail, Err: err}
}

func TooManyRequests(detail string) *Error {
	return &Error{Kind: KindTooManyRequests, Detail: detail}
}

// Wrap attaches a kind and detail to an underlying cause.
func Wrap(err error, kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// As extracts an *Error from err. Unclassified errors become KindInternal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Detail: "Internal server error", Err: err}
}

// KindOf returns the kind of err, or KindInternal when it carries none.
func KindOf(err error) Kind {
	return As(err).Kind
}
