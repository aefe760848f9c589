package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	// ErrConflict is a validation error: errors.Is(ErrConflict, ErrValidation) holds.
	ErrConflict = fmt.Errorf("%w: already in use", ErrValidation)

	ErrInvalidCredentials     = errors.New("login unsuccessful, please check email and password")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrTokenInvalid           = errors.New("this is an invalid or expired token")
	ErrMailDelivery           = errors.New("could not send email")
)

// AppError carries a user-facing message alongside the wrapped cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation returns an AppError wrapping ErrValidation for the given field.
func Validation(field, message string) *AppError {
	return NewAppError(field, message, ErrValidation)
}

// Conflict returns an AppError wrapping ErrConflict for the given field.
func Conflict(field, message string) *AppError {
	return NewAppError(field, message, ErrConflict)
}
