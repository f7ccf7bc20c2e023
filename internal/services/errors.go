package services

import "errors"

// Error kinds returned by the services. Handlers map each kind to an HTTP
// status code; any other error is treated as an internal failure.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error is a client-facing failure: Kind classifies it and Message is safe
// to return to the caller.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func validationError(message string) *Error {
	return newError(ErrValidation, message)
}
