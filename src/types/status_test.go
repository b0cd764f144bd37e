package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingTransitions(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		allowed  bool
	}{
		{BOOKING_PENDING, BOOKING_CONFIRMED, true},
		{BOOKING_PENDING, BOOKING_CANCELLED, true},
		{BOOKING_CONFIRMED, BOOKING_CANCELLED, true},
		{BOOKING_CONFIRMED, BOOKING_PENDING, false},
		{BOOKING_CANCELLED, BOOKING_CONFIRMED, false},
		{BOOKING_CANCELLED, BOOKING_PENDING, false},
		{BOOKING_PENDING, BOOKING_PENDING, false},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%s->%s", c.from, c.to), func(t *testing.T) {
			assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to))
			err := ValidateTransition(c.from, c.to)
			if c.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	assert.True(t, BOOKING_CANCELLED.IsTerminal())
	assert.False(t, BOOKING_PENDING.IsTerminal())
	assert.False(t, BookingStatus("archived").IsValid())
}

func TestPaymentStateSettled(t *testing.T) {
	assert.True(t, PAYMENT_CANCELED.Settled())
	assert.True(t, PAYMENT_REFUNDED.Settled())
	assert.False(t, PAYMENT_REQUIRES_CAPTURE.Settled())
	assert.False(t, PAYMENT_SUCCEEDED.Settled())
}

func TestGatewayErrorUnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("confirm: %w", &GatewayError{
		Action:          PAYMENT_ACTION_CAPTURE,
		PaymentIntentID: "pi_123",
		Err:             ErrGatewayUnavailable,
	})

	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	var gerr *GatewayError
	assert.True(t, errors.As(err, &gerr))
	assert.Equal(t, "pi_123", gerr.PaymentIntentID)
	assert.Contains(t, err.Error(), "capture of pi_123 failed")
}

func TestNotFoundFamily(t *testing.T) {
	assert.ErrorIs(t, ErrProgramNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrBookingNotFound, ErrNotFound)
	assert.ErrorIs(t, NewValidationError("party_size", "must be positive"), ErrValidation)
}
