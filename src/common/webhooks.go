package common

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"hbs/src/types"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// ParseStripeEvent verifies the signature of a raw webhook delivery and
// normalizes the events the booking lifecycle reacts to. Anything else comes
// back as PAYMENT_EVENT_IGNORED.
func ParseStripeEvent(payload []byte, signature, secret string) (*types.PaymentEvent, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: webhook secret is not set", types.ErrConfiguration)
	}
	if signature == "" {
		return nil, fmt.Errorf("%w: missing Stripe-Signature header", types.ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidSignature, err.Error())
	}

	out := &types.PaymentEvent{
		ID:           event.ID,
		Kind:         types.PAYMENT_EVENT_IGNORED,
		ProviderType: string(event.Type),
	}
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decoding checkout session %s: %w", event.ID, err)
		}
		out.Kind = types.PAYMENT_EVENT_CHECKOUT_COMPLETED
		out.SessionID = cs.ID
		out.CustomerEmail = checkoutEmail(&cs)
		if cs.PaymentIntent != nil {
			out.PaymentIntentID = cs.PaymentIntent.ID
		}
		if raw := cs.Metadata["booking_id"]; raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				log.Printf("[Webhook] Ignoring malformed booking_id %q on %s\n", raw, cs.ID)
			} else {
				out.BookingID = &id
			}
		}
	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decoding payment intent %s: %w", event.ID, err)
		}
		out.Kind = types.PAYMENT_EVENT_PAYMENT_FAILED
		out.PaymentIntentID = pi.ID
	}
	return out, nil
}

func checkoutEmail(cs *stripe.CheckoutSession) string {
	email := cs.CustomerEmail
	if cs.CustomerDetails != nil && cs.CustomerDetails.Email != "" {
		email = cs.CustomerDetails.Email
	}
	return strings.ToLower(strings.TrimSpace(email))
}

type PaymentEventHandler interface {
	HandlePaymentEvent(ctx context.Context, ev *types.PaymentEvent) error
}

type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// WebhookIngestor verifies deliveries and feeds them to the booking lifecycle.
// Event ids are remembered only after the handler succeeds, so a failed
// delivery is processed again on the provider's retry.
type WebhookIngestor struct {
	secret  string
	handler PaymentEventHandler
	deduper Deduper
}

func NewWebhookIngestor(secret string, handler PaymentEventHandler, deduper Deduper) *WebhookIngestor {
	return &WebhookIngestor{secret: secret, handler: handler, deduper: deduper}
}

func (w *WebhookIngestor) Handle(ctx context.Context, payload []byte, signature string) (*types.PaymentEvent, error) {
	ev, err := ParseStripeEvent(payload, signature, w.secret)
	if err != nil {
		log.Printf("[Webhook] Rejected delivery: %s\n", err.Error())
		return nil, err
	}
	log.Printf("[StripeEvent] %s %s\n", ev.ProviderType, ev.ID)
	if ev.Kind == types.PAYMENT_EVENT_IGNORED {
		return ev, nil
	}

	if w.deduper != nil {
		seen, err := w.deduper.Seen(ctx, ev.ID)
		if err != nil {
			// Handlers are idempotent, so a dedupe outage only costs a replay.
			log.Printf("[Webhook] Dedupe lookup failed for %s: %s\n", ev.ID, err.Error())
		} else if seen {
			log.Printf("[Webhook] Replay of %s skipped\n", ev.ID)
			return ev, nil
		}
	}

	if err := w.handler.HandlePaymentEvent(ctx, ev); err != nil {
		log.Printf("[Webhook] Error handling %s: %s\n", ev.ID, err.Error())
		return ev, err
	}

	if w.deduper != nil {
		if err := w.deduper.Mark(ctx, ev.ID); err != nil {
			log.Printf("[Webhook] Error remembering %s: %s\n", ev.ID, err.Error())
		}
	}
	return ev, nil
}
