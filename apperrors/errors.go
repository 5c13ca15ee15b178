// Package apperrors holds the three error kinds the API exposes to clients
// and their mapping to HTTP status codes.
package apperrors

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindForbidden
)

const (
	internalMessage   = "An internal error occurred. Please try again later."
	badRequestMessage = "Bad request."
	forbiddenMessage  = "Forbidden."
)

// UserError is returned by the use cases. Msg is only set for BadRequest and
// Forbidden and is safe to show to the caller. Cause is for logs only.
type UserError struct {
	Kind  Kind
	Msg   string
	Cause error
}

func Internal() *UserError { return &UserError{Kind: KindInternal} }

func BadRequest(msg string) *UserError { return &UserError{Kind: KindBadRequest, Msg: msg} }

func Forbidden(msg string) *UserError { return &UserError{Kind: KindForbidden, Msg: msg} }

// WithCause attaches the underlying failure for logging.
func (e *UserError) WithCause(err error) *UserError {
	e.Cause = err
	return e
}

func (e *UserError) Unwrap() error { return e.Cause }

func (e *UserError) Error() string {
	switch e.Kind {
	case KindBadRequest:
		return badRequestMessage
	case KindForbidden:
		return forbiddenMessage
	default:
		return internalMessage
	}
}

func (e *UserError) StatusCode() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON error payload.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Response maps any error to a status code and payload. Errors that are not
// a *UserError are treated as internal and their text is dropped.
func Response(err error) (int, Body) {
	var ue *UserError
	if !errors.As(err, &ue) || ue.Kind == KindInternal {
		return http.StatusInternalServerError, Body{Error: internalMessage}
	}
	return ue.StatusCode(), Body{Error: ue.Error(), Message: ue.Msg}
}
