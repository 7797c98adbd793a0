package errors

import (
	"errors"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBalanceConflict     = errors.New("balance was modified concurrently")
	ErrUserNotFound        = errors.New("user not found")
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	ok := errors.As(err, &validationError)
	return ok
}

var (
	ErrInvalidAmount          = NewValidationError("Amount must be greater than zero")
	ErrInvalidTransactionType = NewValidationError("Type must be 'income' or 'expense'")
	ErrMissingCategory        = NewValidationError("Category is required")
	ErrEmptyPatch             = NewValidationError("No valid update fields provided")
)
