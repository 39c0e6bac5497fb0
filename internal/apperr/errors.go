package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("not found")
	ErrInvalidID          = errors.New("invalid id")
	ErrInternal           = errors.New("internal server error")
)

// HTTPStatus maps an error chain to the response status code.
// Conflict is a 400 to keep existing clients working.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to the caller.
// Internal details never leave the server.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "Internal server error"
	}

	var msgErr *messageError
	if errors.As(err, &msgErr) {
		return msgErr.msg
	}

	switch {
	case errors.Is(err, ErrConflict):
		return "User already exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrUnauthenticated):
		return "Unauthorized"
	case errors.Is(err, ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	default:
		return "Invalid request"
	}
}

type messageError struct {
	kind error
	msg  string
}

func (e *messageError) Error() string { return e.kind.Error() + ": " + e.msg }
func (e *messageError) Unwrap() error { return e.kind }

// WithMessage tags err kind with a message that is shown to the caller as is.
func WithMessage(kind error, msg string) error {
	return &messageError{kind: kind, msg: msg}
}
