package types

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrProgramNotFound    = fmt.Errorf("program %w", ErrNotFound)
	ErrBookingNotFound    = fmt.Errorf("booking %w", ErrNotFound)
	ErrConfiguration      = errors.New("not configured")
	ErrPaymentState       = errors.New("payment is not in a state that allows this action")
	ErrGatewayUnavailable = errors.New("payment provider is unavailable")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// GatewayError names the payment intent and the attempted action so staff can
// finish the job by hand in the provider's console.
type GatewayError struct {
	Action          PaymentAction
	PaymentIntentID string
	Err             error
}

func (e *GatewayError) Error() string {
	if e.PaymentIntentID == "" {
		return fmt.Sprintf("%s failed: %s", e.Action, e.Err.Error())
	}
	return fmt.Sprintf("%s of %s failed: %s", e.Action, e.PaymentIntentID, e.Err.Error())
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
