package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("access denied")
	// ErrTransitionRejected is wrapped with the concrete reason.
	ErrTransitionRejected = errors.New("invalid status transition")
	ErrConflict           = errors.New("order was modified concurrently, reload and retry")
	ErrPaymentIncomplete  = errors.New("payment not completed")
	ErrPaymentUnavailable = errors.New("payment service unavailable")

	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrTestPaymentsOff    = fmt.Errorf("%w: test payments are disabled", ErrForbidden)
)

// ValidationError carries one message per violated field.
type ValidationError struct {
	Message string
	Errors  []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Errors, "; ")
}

func newValidationError(message string, errs ...string) *ValidationError {
	return &ValidationError{Message: message, Errors: errs}
}

func transitionRejected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransitionRejected, fmt.Sprintf(format, args...))
}
