package lib

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"

	"hbs/src/config"
	"hbs/src/types"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := config.StripeSecretKey()
	if apiKey == "" {
		return nil
	}
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

type CheckoutRequest struct {
	BookingID     *uuid.UUID
	ProgramID     uint
	ProgramTitle  string
	Price         float64
	Currency      string
	CustomerEmail string
	CustomerName  string
	Language      string
}

type CheckoutSession struct {
	ID              string            `json:"id"`
	URL             string            `json:"url,omitempty"`
	Status          string            `json:"status,omitempty"`
	PaymentStatus   string            `json:"payment_status,omitempty"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	PaymentIntentID string            `json:"payment_intent_id,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// StripeGateway wraps the provider calls the booking lifecycle needs. Cards are
// only authorized at checkout; money moves on Capture.
type StripeGateway struct {
	client *stripe.Client
}

// NewStripeGateway accepts a nil client; every call then fails with ErrConfiguration.
func NewStripeGateway(client *stripe.Client) *StripeGateway {
	return &StripeGateway{client: client}
}

// UnitAmount converts a display price to the provider's integer unit amount.
func UnitAmount(price float64) int64 {
	return int64(math.Round(price * 100))
}

func (g *StripeGateway) ready() error {
	if g == nil || g.client == nil {
		return fmt.Errorf("%w: Stripe client is not set", types.ErrConfiguration)
	}
	return nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	if config.AppHost() == "" {
		return nil, fmt.Errorf("%w: APP_HOST is not set", types.ErrConfiguration)
	}
	if req.Price <= 0 {
		return nil, types.NewValidationError("price", "must be positive")
	}
	if strings.TrimSpace(req.CustomerEmail) == "" {
		return nil, types.NewValidationError("guest_email", "is required")
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = config.DefaultCurrency()
	}
	metadata := map[string]string{
		"program_id":     fmt.Sprint(req.ProgramID),
		"customer_name":  req.CustomerName,
		"customer_email": req.CustomerEmail,
		"language":       req.Language,
	}
	if req.BookingID != nil {
		metadata["booking_id"] = req.BookingID.String()
	}
	returnURL := fmt.Sprintf("%s/booking/success?session_id={CHECKOUT_SESSION_ID}", config.AppHost())
	cancelURL := fmt.Sprintf("%s/booking/cancel?session_id={CHECKOUT_SESSION_ID}", config.AppHost())
	params := &stripe.CheckoutSessionCreateParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.CustomerEmail),
		SuccessURL:    stripe.String(returnURL),
		CancelURL:     stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(UnitAmount(req.Price)),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProgramTitle),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
			Metadata:      metadata,
		},
		Metadata: metadata,
	}
	if req.Language != "" {
		params.Locale = stripe.String(req.Language)
	}
	ctx, cancel := context.WithTimeout(ctx, config.RemoteCallTimeout())
	defer cancel()
	cs, err := g.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		log.Printf("[Stripe] CreateCheckoutSession failed: %s\n", err.Error())
		return nil, classifyStripeError(err)
	}
	log.Printf("[Stripe] CheckoutSessionID: %s\n", cs.ID)
	return toCheckoutSession(cs), nil
}

func (g *StripeGateway) RetrieveCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, config.RemoteCallTimeout())
	defer cancel()
	cs, err := g.client.V1CheckoutSessions.Retrieve(ctx, id, &stripe.CheckoutSessionRetrieveParams{})
	if err != nil {
		log.Printf("[Stripe] Unable to retrieve checkout session %s: %s\n", id, err.Error())
		return nil, classifyStripeError(err)
	}
	return toCheckoutSession(cs), nil
}

// Capture collects a held authorization.
func (g *StripeGateway) Capture(ctx context.Context, paymentIntentID string) error {
	if err := g.ready(); err != nil {
		return gatewayError(types.PAYMENT_ACTION_CAPTURE, paymentIntentID, err)
	}
	ctx, cancel := context.WithTimeout(ctx, config.RemoteCallTimeout())
	defer cancel()
	_, err := g.client.V1PaymentIntents.Capture(ctx, paymentIntentID, &stripe.PaymentIntentCaptureParams{})
	if err != nil {
		log.Printf("[Stripe] Capture of %s failed: %s\n", paymentIntentID, err.Error())
		return gatewayError(types.PAYMENT_ACTION_CAPTURE, paymentIntentID, classifyStripeError(err))
	}
	log.Printf("[Stripe] Captured %s\n", paymentIntentID)
	return nil
}

// Cancel releases a held authorization without attempting a refund.
func (g *StripeGateway) Cancel(ctx context.Context, paymentIntentID string) error {
	if err := g.ready(); err != nil {
		return gatewayError(types.PAYMENT_ACTION_CANCEL, paymentIntentID, err)
	}
	ctx, cancel := context.WithTimeout(ctx, config.RemoteCallTimeout())
	defer cancel()
	_, err := g.client.V1PaymentIntents.Cancel(ctx, paymentIntentID, &stripe.PaymentIntentCancelParams{})
	if err != nil {
		log.Printf("[Stripe] Cancel of %s failed: %s\n", paymentIntentID, err.Error())
		return gatewayError(types.PAYMENT_ACTION_CANCEL, paymentIntentID, classifyStripeError(err))
	}
	log.Printf("[Stripe] Canceled %s\n", paymentIntentID)
	return nil
}

func (g *StripeGateway) PaymentState(ctx context.Context, paymentIntentID string) (types.PaymentState, error) {
	if err := g.ready(); err != nil {
		return types.PAYMENT_OTHER, gatewayError(types.PAYMENT_ACTION_INSPECT, paymentIntentID, err)
	}
	ctx, cancel := context.WithTimeout(ctx, config.RemoteCallTimeout())
	defer cancel()
	params := &stripe.PaymentIntentRetrieveParams{}
	params.AddExpand("latest_charge")
	pi, err := g.client.V1PaymentIntents.Retrieve(ctx, paymentIntentID, params)
	if err != nil {
		log.Printf("[Stripe] Unable to retrieve %s: %s\n", paymentIntentID, err.Error())
		return types.PAYMENT_OTHER, gatewayError(types.PAYMENT_ACTION_INSPECT, paymentIntentID, classifyStripeError(err))
	}
	return paymentStateOf(pi), nil
}

// ResolveOnCancel releases or returns whatever money the authorization currently holds.
func (g *StripeGateway) ResolveOnCancel(ctx context.Context, paymentIntentID string) (types.PaymentOutcome, error) {
	state, err := g.PaymentState(ctx, paymentIntentID)
	if err != nil {
		return types.PAYMENT_OUTCOME_NONE, err
	}
	switch state {
	case types.PAYMENT_REQUIRES_CAPTURE:
		if err := g.Cancel(ctx, paymentIntentID); err != nil {
			return types.PAYMENT_OUTCOME_NONE, err
		}
		return types.PAYMENT_OUTCOME_CANCELED, nil
	case types.PAYMENT_SUCCEEDED:
		if err := g.refund(ctx, paymentIntentID); err != nil {
			return types.PAYMENT_OUTCOME_NONE, err
		}
		return types.PAYMENT_OUTCOME_REFUNDED, nil
	case types.PAYMENT_CANCELED, types.PAYMENT_REFUNDED:
		return types.PAYMENT_OUTCOME_NOOP, nil
	}
	return types.PAYMENT_OUTCOME_NONE, gatewayError(types.PAYMENT_ACTION_CANCEL, paymentIntentID, types.ErrPaymentState)
}

func (g *StripeGateway) refund(ctx context.Context, paymentIntentID string) error {
	ctx, cancel := context.WithTimeout(ctx, config.RemoteCallTimeout())
	defer cancel()
	_, err := g.client.V1Refunds.Create(ctx, &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(paymentIntentID),
	})
	if err != nil {
		log.Printf("[Stripe] Refund of %s failed: %s\n", paymentIntentID, err.Error())
		return gatewayError(types.PAYMENT_ACTION_REFUND, paymentIntentID, classifyStripeError(err))
	}
	log.Printf("[Stripe] Refunded %s\n", paymentIntentID)
	return nil
}

func paymentStateOf(pi *stripe.PaymentIntent) types.PaymentState {
	switch pi.Status {
	case stripe.PaymentIntentStatusRequiresCapture:
		return types.PAYMENT_REQUIRES_CAPTURE
	case stripe.PaymentIntentStatusCanceled:
		return types.PAYMENT_CANCELED
	case stripe.PaymentIntentStatusSucceeded:
		if pi.LatestCharge != nil && pi.LatestCharge.Refunded {
			return types.PAYMENT_REFUNDED
		}
		return types.PAYMENT_SUCCEEDED
	}
	return types.PAYMENT_OTHER
}

func toCheckoutSession(cs *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            cs.ID,
		URL:           cs.URL,
		Status:        string(cs.Status),
		PaymentStatus: string(cs.PaymentStatus),
		CustomerEmail: cs.CustomerEmail,
		Metadata:      cs.Metadata,
	}
	if cs.CustomerDetails != nil && cs.CustomerDetails.Email != "" {
		out.CustomerEmail = cs.CustomerDetails.Email
	}
	if cs.PaymentIntent != nil {
		out.PaymentIntentID = cs.PaymentIntent.ID
	}
	return out
}

func gatewayError(action types.PaymentAction, paymentIntentID string, err error) error {
	var gerr *types.GatewayError
	if errors.As(err, &gerr) {
		return err
	}
	return &types.GatewayError{Action: action, PaymentIntentID: paymentIntentID, Err: err}
}

// classifyStripeError maps provider failures onto the local error taxonomy.
func classifyStripeError(err error) error {
	var serr *stripe.Error
	if !errors.As(err, &serr) {
		return fmt.Errorf("%w: %s", types.ErrGatewayUnavailable, err.Error())
	}
	switch {
	case serr.Code == stripe.ErrorCodePaymentIntentUnexpectedState:
		return fmt.Errorf("%w: %s", types.ErrPaymentState, serr.Msg)
	case serr.HTTPStatusCode == http.StatusUnauthorized || serr.HTTPStatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", types.ErrConfiguration, serr.Msg)
	case serr.HTTPStatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", types.ErrNotFound, serr.Msg)
	case serr.HTTPStatusCode >= http.StatusInternalServerError || serr.HTTPStatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", types.ErrGatewayUnavailable, serr.Msg)
	case serr.Type == stripe.ErrorTypeInvalidRequest:
		return fmt.Errorf("%w: %s", types.ErrValidation, serr.Msg)
	}
	return fmt.Errorf("%w: %s", types.ErrGatewayUnavailable, serr.Msg)
}
