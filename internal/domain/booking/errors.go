package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("booking: validation failed")
	ErrSignatureMismatch = errors.New("booking: payment signature mismatch")
	ErrGatewayTransient  = errors.New("booking: gateway outcome unknown")
	ErrGatewayRejected   = errors.New("booking: gateway rejected the operation")
	ErrStateConflict     = errors.New("booking: state conflict")
	ErrNothingToRefund   = errors.New("booking: nothing to refund")
	ErrAlreadyCaptured   = errors.New("booking: payment already captured")
	ErrBookingNotFound   = errors.New("booking: not found")
	ErrNotOwned          = errors.New("booking: not owned by actor")
	ErrScheduleNotFound  = errors.New("booking: scheduled capture not found")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

func Invalid(field, msg string) error {
	return ValidationError{Field: field, Msg: msg}
}

func conflict(from, to Status) error {
	return fmt.Errorf("%w: cannot move from %s to %s", ErrStateConflict, from, to)
}

func conflictLease(op string) error {
	return fmt.Errorf("%w: %s already in progress", ErrStateConflict, op)
}
