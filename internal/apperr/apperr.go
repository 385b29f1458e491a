// Package apperr defines the error taxonomy shared by the realtime core and
// its HTTP/WebSocket surfaces.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error by how callers are expected to react to it.
type Kind int

const (
	KindInternal Kind = iota
	KindAuth
	KindValidation
	KindStateConflict
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindStateConflict:
		return "state_conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is a classified error with a stable code and a client-facing message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by code so wrapped copies compare equal to their origin.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

// New returns a sentinel error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Internal wraps a storage or infrastructure fault. Its message never
// exposes the cause.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindInternal, Code: "internal", Message: "internal error", Err: err}
}

// KindOf reports the kind of err, treating unclassified errors as internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Public returns the code and message that may be shown to a client.
func Public(err error) (code, message string) {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal {
		return ae.Code, ae.Message
	}
	return "internal", "internal error"
}

// HTTPStatus maps err onto an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuth:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindStateConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
