package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("not allowed")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrTicketNotFound  = errors.New("ticket not found")
)

// ValidationError is a field-scoped failure that is safe to show to the
// caller. No state has been changed when one is returned.
type ValidationError struct {
	Field   string
	Message string

	cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrTicketUnavailable = &ValidationError{Field: "ticket_number", Message: "ticket is not available"}
	ErrStatusLocked      = &ValidationError{Field: "status", Message: "status cannot be changed"}
	ErrPaymentNotPending = &ValidationError{Field: "status", Message: "only pending payments can be changed"}
	ErrSubmissionsClosed = &ValidationError{Field: "ticket_number", Message: "ticket sales are closed for this cycle"}
)

// TicketUnavailable names the ticket that could not be taken while still
// matching ErrTicketUnavailable.
func TicketUnavailable(field string, number int) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("ticket %d is not available", number),
		cause:   ErrTicketUnavailable,
	}
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
