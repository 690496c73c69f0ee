package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidSignature  = errors.New("invalid notification signature")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPaymentProvider   = errors.New("payment provider failure")
	ErrUnknownEntity     = errors.New("unknown payment entity")
	ErrInvalidToken      = errors.New("invalid service token")
)

// ValidationError describes a rejected client input with a user-facing message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AsValidation extracts ValidationError from err chain.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
