package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrReaderNotFound     = errors.New("reader not found")
	ErrReaderNameTaken    = errors.New("reader name already taken")
	ErrForbidden          = errors.New("forbidden")
)

// ValidationError carries a client-safe message and matches ErrInvalidInput.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalidInput(msg string) error {
	return &ValidationError{Message: msg}
}
