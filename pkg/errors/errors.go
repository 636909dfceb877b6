package errors

import (
	"errors"
	"fmt"
)

// Re-export the standard library helpers so callers only import this package.
var (
	New    = errors.New
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// AppError is an error with a stable code and a caller-facing message.
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *AppError) Code() string {
	return e.code
}

func (e *AppError) Message() string {
	return e.message
}

func (e *AppError) Unwrap() error {
	return e.err
}

// NewAppError creates an application error with an explicit code.
func NewAppError(code string, message string, err error) *AppError {
	return &AppError{
		code:    code,
		message: message,
		err:     err,
	}
}

func NotFound(message string) *AppError {
	return NewAppError(ErrNotFound, message, nil)
}

func Validation(message string) *AppError {
	return NewAppError(ErrValidation, message, nil)
}

func Conflict(message string) *AppError {
	return NewAppError(ErrConflict, message, nil)
}

func Forbidden(message string) *AppError {
	return NewAppError(ErrForbidden, message, nil)
}

func Unauthenticated(message string) *AppError {
	return NewAppError(ErrUnauthenticated, message, nil)
}

// Gateway wraps a payment provider failure. The provider error code is kept
// in the message so transaction records and logs retain it.
func Gateway(message string, err error) *AppError {
	return NewAppError(ErrGateway, message, err)
}

// Wrap keeps the code of an existing AppError, otherwise marks it internal.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return NewAppError(appErr.Code(), message, err)
	}

	return NewAppError(ErrInternal, message, err)
}

// CodeOf returns the code of err, or INTERNAL for plain errors.
func CodeOf(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Code()
	}
	return ErrInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
