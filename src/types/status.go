package types

import "fmt"

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELLED BookingStatus = "cancelled"
)

// A booking never returns to pending and never leaves cancelled.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BOOKING_PENDING:   {BOOKING_CONFIRMED, BOOKING_CANCELLED},
	BOOKING_CONFIRMED: {BOOKING_CANCELLED},
	BOOKING_CANCELLED: {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

func (s BookingStatus) String() string {
	return string(s)
}

func ValidateTransition(from, to BookingStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// PaymentState mirrors the provider-side authorization. It is never stored locally.
type PaymentState string

const (
	PAYMENT_REQUIRES_CAPTURE PaymentState = "requires_capture"
	PAYMENT_SUCCEEDED        PaymentState = "succeeded"
	PAYMENT_CANCELED         PaymentState = "canceled"
	PAYMENT_REFUNDED         PaymentState = "refunded"
	PAYMENT_OTHER            PaymentState = "other"
)

// Settled reports whether no money is held or owed for this authorization.
func (p PaymentState) Settled() bool {
	return p == PAYMENT_CANCELED || p == PAYMENT_REFUNDED
}

type PaymentAction string

const (
	PAYMENT_ACTION_CAPTURE PaymentAction = "capture"
	PAYMENT_ACTION_CANCEL  PaymentAction = "cancel"
	PAYMENT_ACTION_REFUND  PaymentAction = "refund"
	PAYMENT_ACTION_INSPECT PaymentAction = "inspect"
)

// PaymentOutcome is what the gateway actually did for a resolve-on-cancel request.
type PaymentOutcome string

const (
	PAYMENT_OUTCOME_NONE     PaymentOutcome = ""
	PAYMENT_OUTCOME_CAPTURED PaymentOutcome = "captured"
	PAYMENT_OUTCOME_CANCELED PaymentOutcome = "canceled"
	PAYMENT_OUTCOME_REFUNDED PaymentOutcome = "refunded"
	PAYMENT_OUTCOME_NOOP     PaymentOutcome = "noop"
)
