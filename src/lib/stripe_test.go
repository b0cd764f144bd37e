package lib

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"hbs/src/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

type stripeCall struct {
	Method string
	Path   string
	Form   url.Values
}

type fakeStripe struct {
	mu     sync.Mutex
	calls  []stripeCall
	routes map[string]func(w http.ResponseWriter)
}

func (f *fakeStripe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	form, _ := url.ParseQuery(string(body))
	f.mu.Lock()
	f.calls = append(f.calls, stripeCall{Method: r.Method, Path: r.URL.Path, Form: form})
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if route, ok := f.routes[r.Method+" "+r.URL.Path]; ok {
		route(w)
		return
	}
	w.WriteHeader(http.StatusNotFound)
	io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"No such resource"}}`)
}

func (f *fakeStripe) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, c := range f.calls {
		out = append(out, c.Method+" "+c.Path)
	}
	return out
}

func respond(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func newTestGateway(t *testing.T, routes map[string]func(w http.ResponseWriter)) (*StripeGateway, *fakeStripe) {
	fake := &fakeStripe{routes: routes}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	sc := stripe.NewClient("sk_test_123", stripe.WithBackends(stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})))
	return NewStripeGateway(sc), fake
}

func TestUnitAmount(t *testing.T) {
	assert.EqualValues(t, 1800000, UnitAmount(18000))
	assert.EqualValues(t, 1999, UnitAmount(19.99))
	assert.EqualValues(t, 1, UnitAmount(0.005))
}

func TestCreateCheckoutSessionRequestsManualCapture(t *testing.T) {
	t.Setenv("APP_HOST", "https://book.example.com/")
	gw, fake := newTestGateway(t, map[string]func(w http.ResponseWriter){
		"POST /v1/checkout/sessions": respond(200, `{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1","status":"open"}`),
	})
	bookingID := uuid.New()

	cs, err := gw.CreateCheckoutSession(context.Background(), CheckoutRequest{
		BookingID:     &bookingID,
		ProgramID:     7,
		ProgramTitle:  "Zen Meditation",
		Price:         18000,
		Currency:      "JPY",
		CustomerEmail: "guest@example.com",
		CustomerName:  "Guest",
		Language:      "en",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", cs.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", cs.URL)
	require.Len(t, fake.calls, 1)
	form := fake.calls[0].Form
	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "manual", form.Get("payment_intent_data[capture_method]"))
	assert.Equal(t, "1800000", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "jpy", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "Zen Meditation", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "1", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "guest@example.com", form.Get("customer_email"))
	assert.Equal(t, bookingID.String(), form.Get("metadata[booking_id]"))
	assert.Equal(t, "https://book.example.com/booking/success?session_id={CHECKOUT_SESSION_ID}", form.Get("success_url"))
}

func TestCreateCheckoutSessionValidation(t *testing.T) {
	t.Setenv("APP_HOST", "https://book.example.com")
	gw, fake := newTestGateway(t, nil)

	_, err := gw.CreateCheckoutSession(context.Background(), CheckoutRequest{Price: 0, CustomerEmail: "a@b.c"})
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Empty(t, fake.calls)
}

func TestGetStripeClientReturnsInjectedClient(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	sc := stripe.NewClient("sk_test_injected")
	NewStripeClient(sc)
	t.Cleanup(func() { NewStripeClient(nil) })

	assert.Same(t, sc, GetStripeClient())
}

func TestGetStripeClientWithoutKey(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	NewStripeClient(nil)

	assert.Nil(t, GetStripeClient())
}

func TestGatewayWithoutClientIsMisconfigured(t *testing.T) {
	gw := NewStripeGateway(nil)

	_, err := gw.CreateCheckoutSession(context.Background(), CheckoutRequest{Price: 1, CustomerEmail: "a@b.c"})
	assert.ErrorIs(t, err, types.ErrConfiguration)

	err = gw.Capture(context.Background(), "pi_1")
	assert.ErrorIs(t, err, types.ErrConfiguration)
	var gerr *types.GatewayError
	assert.ErrorAs(t, err, &gerr)
	assert.Equal(t, types.PAYMENT_ACTION_CAPTURE, gerr.Action)
}

func TestCaptureUnexpectedState(t *testing.T) {
	gw, _ := newTestGateway(t, map[string]func(w http.ResponseWriter){
		"POST /v1/payment_intents/pi_1/capture": respond(400, `{"error":{"type":"invalid_request_error","code":"payment_intent_unexpected_state","message":"This PaymentIntent could not be captured because it has a status of canceled."}}`),
	})

	err := gw.Capture(context.Background(), "pi_1")

	assert.ErrorIs(t, err, types.ErrPaymentState)
	var gerr *types.GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "pi_1", gerr.PaymentIntentID)
}

func TestCaptureProviderOutage(t *testing.T) {
	gw, _ := newTestGateway(t, map[string]func(w http.ResponseWriter){
		"POST /v1/payment_intents/pi_1/capture": respond(503, `{"error":{"type":"api_error","message":"try again later"}}`),
	})

	err := gw.Capture(context.Background(), "pi_1")

	assert.ErrorIs(t, err, types.ErrGatewayUnavailable)
}

func TestCaptureRejectedKey(t *testing.T) {
	gw, _ := newTestGateway(t, map[string]func(w http.ResponseWriter){
		"POST /v1/payment_intents/pi_1/capture": respond(401, `{"error":{"type":"invalid_request_error","message":"Invalid API Key provided"}}`),
	})

	err := gw.Capture(context.Background(), "pi_1")

	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestResolveOnCancel(t *testing.T) {
	cases := []struct {
		name     string
		intent   string
		outcome  types.PaymentOutcome
		expected []string
		err      error
	}{
		{
			name:     "held authorization is released",
			intent:   `{"id":"pi_1","object":"payment_intent","status":"requires_capture"}`,
			outcome:  types.PAYMENT_OUTCOME_CANCELED,
			expected: []string{"GET /v1/payment_intents/pi_1", "POST /v1/payment_intents/pi_1/cancel"},
		},
		{
			name:     "captured payment is refunded",
			intent:   `{"id":"pi_1","object":"payment_intent","status":"succeeded","latest_charge":{"id":"ch_1","object":"charge","refunded":false}}`,
			outcome:  types.PAYMENT_OUTCOME_REFUNDED,
			expected: []string{"GET /v1/payment_intents/pi_1", "POST /v1/refunds"},
		},
		{
			name:     "already refunded",
			intent:   `{"id":"pi_1","object":"payment_intent","status":"succeeded","latest_charge":{"id":"ch_1","object":"charge","refunded":true}}`,
			outcome:  types.PAYMENT_OUTCOME_NOOP,
			expected: []string{"GET /v1/payment_intents/pi_1"},
		},
		{
			name:     "already canceled",
			intent:   `{"id":"pi_1","object":"payment_intent","status":"canceled"}`,
			outcome:  types.PAYMENT_OUTCOME_NOOP,
			expected: []string{"GET /v1/payment_intents/pi_1"},
		},
		{
			name:     "still collecting payment details",
			intent:   `{"id":"pi_1","object":"payment_intent","status":"requires_payment_method"}`,
			outcome:  types.PAYMENT_OUTCOME_NONE,
			expected: []string{"GET /v1/payment_intents/pi_1"},
			err:      types.ErrPaymentState,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			gw, fake := newTestGateway(t, map[string]func(w http.ResponseWriter){
				"GET /v1/payment_intents/pi_1":         respond(200, c.intent),
				"POST /v1/payment_intents/pi_1/cancel": respond(200, `{"id":"pi_1","object":"payment_intent","status":"canceled"}`),
				"POST /v1/refunds":                     respond(200, `{"id":"re_1","object":"refund","status":"succeeded"}`),
			})

			outcome, err := gw.ResolveOnCancel(context.Background(), "pi_1")

			assert.Equal(t, c.outcome, outcome)
			if c.err != nil {
				assert.ErrorIs(t, err, c.err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, c.expected, fake.paths())
		})
	}
}

func TestRefundSendsPaymentIntent(t *testing.T) {
	gw, fake := newTestGateway(t, map[string]func(w http.ResponseWriter){
		"GET /v1/payment_intents/pi_2": respond(200, `{"id":"pi_2","object":"payment_intent","status":"succeeded"}`),
		"POST /v1/refunds":             respond(200, `{"id":"re_1","object":"refund"}`),
	})

	outcome, err := gw.ResolveOnCancel(context.Background(), "pi_2")

	require.NoError(t, err)
	assert.Equal(t, types.PAYMENT_OUTCOME_REFUNDED, outcome)
	assert.Equal(t, "pi_2", fake.calls[1].Form.Get("payment_intent"))
}

func TestRetrieveCheckoutSessionPrefersCustomerDetails(t *testing.T) {
	gw, _ := newTestGateway(t, map[string]func(w http.ResponseWriter){
		"GET /v1/checkout/sessions/cs_1": respond(200, `{"id":"cs_1","object":"checkout.session","status":"complete","payment_status":"unpaid","customer_email":"typed@example.com","customer_details":{"email":"Guest@Example.com"},"payment_intent":"pi_9","metadata":{"booking_id":"x"}}`),
	})

	cs, err := gw.RetrieveCheckoutSession(context.Background(), "cs_1")

	require.NoError(t, err)
	assert.Equal(t, "Guest@Example.com", cs.CustomerEmail)
	assert.Equal(t, "pi_9", cs.PaymentIntentID)
	assert.Equal(t, "complete", cs.Status)
	assert.Equal(t, "x", cs.Metadata["booking_id"])
}
