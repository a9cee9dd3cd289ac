package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the engine's failure taxonomy.
// Repositories and services wrap these with context; callers test with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ValidationError signals malformed or missing input, rejected before any side effect.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError signals a bin assignment conflict: duplicate codes within one
// batch, or a bin already claimed by another active order item.
// BinCodes lists the offending codes for the caller's diagnostic.
type ConflictError struct {
	Msg      string
	BinCodes []string
}

func (e *ConflictError) Error() string {
	if len(e.BinCodes) == 0 {
		return e.Msg
	}
	return e.Msg + ": " + strings.Join(e.BinCodes, ", ")
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
