package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"hbs/src/config"
	"hbs/src/lib"
	"hbs/src/models"
	"hbs/src/types"

	"github.com/google/uuid"
)

type BookingStore interface {
	GetProgram(ctx context.Context, id uint) (*models.Program, error)
	GetProgramBySlug(ctx context.Context, slug string) (*models.Program, error)
	ListPrograms(ctx context.Context) ([]models.Program, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListBookings(ctx context.Context, filters types.BookingQueryFilters) ([]models.Booking, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to types.BookingStatus) (bool, error)
	AttachPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) (bool, error)
	FindNewestUnpaidPending(ctx context.Context, email string) (*models.Booking, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) ([]models.Booking, error)
	CancelByPaymentIntent(ctx context.Context, paymentIntentID string) (int64, error)
	DeleteBooking(ctx context.Context, id uuid.UUID) (bool, error)
	StalePendingAuthorizations(ctx context.Context, before time.Time) ([]models.Booking, error)
	RecordTrail(ctx context.Context, entry *models.TrailLog) error
	ListTrail(ctx context.Context, filters types.TrailQueryFilters) ([]models.TrailLog, error)
	AdminEmails(ctx context.Context) ([]string, error)
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req lib.CheckoutRequest) (*lib.CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, id string) (*lib.CheckoutSession, error)
	Capture(ctx context.Context, paymentIntentID string) error
	Cancel(ctx context.Context, paymentIntentID string) error
	ResolveOnCancel(ctx context.Context, paymentIntentID string) (types.PaymentOutcome, error)
	PaymentState(ctx context.Context, paymentIntentID string) (types.PaymentState, error)
}

type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *models.Booking, program *models.Program) error
	BookingRejected(ctx context.Context, booking *models.Booking, program *models.Program) error
	BookingDeleted(ctx context.Context, booking *models.Booking, program *models.Program) error
	AuthorizationDigest(ctx context.Context, to []string, bookings []models.Booking, age time.Duration) error
}

// Alerter pushes reconciliation problems to staff outside the admin UI.
type Alerter interface {
	Publish(ctx context.Context, subject, message string) error
}

// ActionResult reports what an admin action did. Payment and notification
// failures never undo a status change that was already written.
type ActionResult struct {
	Booking           *models.Booking      `json:"booking,omitempty"`
	Applied           bool                 `json:"applied"`
	PaymentOutcome    types.PaymentOutcome `json:"payment_outcome,omitempty"`
	PaymentError      error                `json:"-"`
	NotificationError error                `json:"-"`
	Warnings          []string             `json:"warnings,omitempty"`
}

func (r *ActionResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

type PaymentActionResult struct {
	PaymentIntentID string              `json:"payment_intent_id"`
	Action          types.PaymentAction `json:"action"`
	State           types.PaymentState  `json:"state,omitempty"`
}

// BookingController owns the booking state machine and decides when the
// gateway and the notifier are called.
type BookingController struct {
	store    BookingStore
	gateway  PaymentGateway
	notifier Notifier
	alerter  Alerter
	now      func() time.Time
	lang     string
}

type Option func(*BookingController)

func WithAlerter(a Alerter) Option {
	return func(c *BookingController) { c.alerter = a }
}

func WithClock(now func() time.Time) Option {
	return func(c *BookingController) { c.now = now }
}

func NewBookingController(store BookingStore, gateway PaymentGateway, notifier Notifier, opts ...Option) *BookingController {
	c := &BookingController{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		now:      time.Now,
		lang:     config.DefaultLanguage(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *BookingController) SubmitBooking(ctx context.Context, body types.CreateBookingRequestBody) (*models.Booking, error) {
	date, err := time.Parse(config.TIME_PARSE_FORMAT, body.BookingDate)
	if err != nil {
		return nil, types.NewValidationError("booking_date", "must be an RFC 3339 timestamp")
	}
	if !date.After(c.now()) {
		return nil, types.NewValidationError("booking_date", "must be in the future")
	}
	if body.PartySize == 0 {
		return nil, types.NewValidationError("party_size", "must be a positive integer")
	}
	email := normalizeEmail(body.GuestEmail)
	if email == "" {
		return nil, types.NewValidationError("guest_email", "is required")
	}
	if _, err := c.store.GetProgram(ctx, body.ProgramID); err != nil {
		return nil, err
	}
	lang := strings.ToLower(body.Language)
	if lang == "" {
		lang = c.lang
	}
	booking := &models.Booking{
		ProgramID:   body.ProgramID,
		GuestName:   strings.TrimSpace(body.GuestName),
		GuestEmail:  email,
		GuestPhone:  strings.TrimSpace(body.GuestPhone),
		BookingDate: date.UTC(),
		PartySize:   body.PartySize,
		Status:      types.BOOKING_PENDING,
		Language:    lang,
	}
	if err := c.store.CreateBooking(ctx, booking); err != nil {
		log.Printf("[Booking] Error creating booking: %s\n", err.Error())
		return nil, err
	}
	log.Printf("[Booking] Created %s for program %d\n", booking.ID, booking.ProgramID)
	return booking, nil
}

func (c *BookingController) CreateCheckoutSession(ctx context.Context, body types.CheckoutRequestBody) (*lib.CheckoutSession, error) {
	if body.Price <= 0 {
		return nil, types.NewValidationError("price", "must be positive")
	}
	program, err := c.store.GetProgram(ctx, body.ProgramID)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(body.GuestEmail)
	if body.BookingID != nil {
		booking, err := c.store.GetBooking(ctx, *body.BookingID)
		if err != nil {
			return nil, err
		}
		if booking.Status != types.BOOKING_PENDING || booking.HasPayment() {
			return nil, types.NewValidationError("booking_id", "booking is not awaiting payment")
		}
		if booking.GuestEmail != email {
			return nil, types.NewValidationError("guest_email", "does not match the booking")
		}
	}
	lang := strings.ToLower(body.Language)
	if lang == "" {
		lang = c.lang
	}
	return c.gateway.CreateCheckoutSession(ctx, lib.CheckoutRequest{
		BookingID:     body.BookingID,
		ProgramID:     program.ID,
		ProgramTitle:  program.Title(lang, c.lang),
		Price:         body.Price,
		Currency:      body.Currency,
		CustomerEmail: email,
		CustomerName:  strings.TrimSpace(body.GuestName),
		Language:      lang,
	})
}

func (c *BookingController) VerifyCheckoutSession(ctx context.Context, sessionID string) (*lib.CheckoutSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, types.NewValidationError("session_id", "is required")
	}
	return c.gateway.RetrieveCheckoutSession(ctx, sessionID)
}

// HandlePaymentEvent applies a verified provider event. Unmatched events are
// logged and dropped so the provider does not keep retrying them.
func (c *BookingController) HandlePaymentEvent(ctx context.Context, ev *types.PaymentEvent) error {
	switch ev.Kind {
	case types.PAYMENT_EVENT_CHECKOUT_COMPLETED:
		_, err := c.AttachCheckout(ctx, ev)
		return err
	case types.PAYMENT_EVENT_PAYMENT_FAILED:
		_, err := c.HandlePaymentFailed(ctx, ev.PaymentIntentID)
		return err
	}
	log.Printf("[Webhook] Ignoring %s event %s\n", ev.ProviderType, ev.ID)
	return nil
}

// AttachCheckout links a completed checkout's payment intent to its booking.
// The booking id from session metadata wins; otherwise the newest unpaid
// pending booking for the customer email is used. Replays are no-ops.
func (c *BookingController) AttachCheckout(ctx context.Context, ev *types.PaymentEvent) (*models.Booking, error) {
	if ev.PaymentIntentID == "" {
		log.Printf("[Webhook] Checkout %s completed without a payment intent, dropping\n", ev.SessionID)
		return nil, nil
	}
	existing, err := c.store.FindByPaymentIntent(ctx, ev.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		log.Printf("[Webhook] %s already attached to %s\n", ev.PaymentIntentID, existing[0].ID)
		return &existing[0], nil
	}

	var target *models.Booking
	if ev.BookingID != nil {
		b, err := c.store.GetBooking(ctx, *ev.BookingID)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		target = b
	} else {
		email := normalizeEmail(ev.CustomerEmail)
		if email == "" {
			log.Printf("[Webhook] Checkout %s has no customer email, dropping\n", ev.SessionID)
			return nil, nil
		}
		b, err := c.store.FindNewestUnpaidPending(ctx, email)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		target = b
	}
	if target == nil {
		log.Printf("[Webhook] No pending booking for checkout %s (%s), dropping\n", ev.SessionID, ev.PaymentIntentID)
		if ev.BookingID != nil {
			c.orphanedHold(ctx, ev, ev.BookingID, fmt.Sprintf("booking %s not found", ev.BookingID))
		}
		return nil, nil
	}

	applied, err := c.store.AttachPaymentIntent(ctx, target.ID, ev.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if !applied {
		log.Printf("[Webhook] Booking %s no longer accepts %s, dropping\n", target.ID, ev.PaymentIntentID)
		c.orphanedHold(ctx, ev, &target.ID, fmt.Sprintf("booking %s no longer accepts a payment", target.ID))
		return nil, nil
	}
	pi := ev.PaymentIntentID
	target.PaymentIntentID = &pi
	log.Printf("[Webhook] Attached %s to booking %s\n", pi, target.ID)
	c.trail(ctx, &models.TrailLog{
		Type:            types.TRAIL_WEBHOOK,
		Initiator:       "stripe",
		BookingID:       &target.ID,
		PaymentIntentID: pi,
		Action:          "attach_payment_intent",
		Message:         fmt.Sprintf("checkout %s completed", ev.SessionID),
	})
	return target, nil
}

// HandlePaymentFailed cancels pending bookings paid with the failed intent.
// No email is sent on this path.
func (c *BookingController) HandlePaymentFailed(ctx context.Context, paymentIntentID string) (int64, error) {
	if paymentIntentID == "" {
		return 0, nil
	}
	n, err := c.store.CancelByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		log.Printf("[Webhook] Error cancelling bookings for %s: %s\n", paymentIntentID, err.Error())
		return 0, err
	}
	log.Printf("[Webhook] Payment %s failed, cancelled %d booking(s)\n", paymentIntentID, n)
	return n, nil
}

// Confirm moves a pending booking to confirmed, then captures the held payment
// and emails the guest.
func (c *BookingController) Confirm(ctx context.Context, id uuid.UUID, actor string) (*ActionResult, error) {
	booking, err := c.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := types.ValidateTransition(booking.Status, types.BOOKING_CONFIRMED); err != nil {
		return nil, err
	}
	result, err := c.transition(ctx, booking, types.BOOKING_CONFIRMED)
	if err != nil || !result.Applied {
		return result, err
	}

	if booking.HasPayment() {
		if err := c.gateway.Capture(ctx, booking.PaymentIntent()); err != nil {
			result.PaymentError = err
			c.reconcile(ctx, booking, types.PAYMENT_ACTION_CAPTURE, actor, err)
		} else {
			result.PaymentOutcome = types.PAYMENT_OUTCOME_CAPTURED
		}
	}

	program := c.program(ctx, booking, result)
	if err := c.notifier.BookingConfirmed(ctx, booking, program); err != nil {
		c.notificationFailed(ctx, booking, result, err)
	}
	c.audit(ctx, booking, actor, "confirm", result)
	return result, nil
}

// Reject cancels a pending or confirmed booking, releases or refunds any
// payment, and emails the guest.
func (c *BookingController) Reject(ctx context.Context, id uuid.UUID, actor string) (*ActionResult, error) {
	booking, err := c.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := types.ValidateTransition(booking.Status, types.BOOKING_CANCELLED); err != nil {
		return nil, err
	}
	result, err := c.transition(ctx, booking, types.BOOKING_CANCELLED)
	if err != nil || !result.Applied {
		return result, err
	}

	if booking.HasPayment() {
		outcome, err := c.gateway.ResolveOnCancel(ctx, booking.PaymentIntent())
		if err != nil {
			result.PaymentError = err
			c.reconcile(ctx, booking, types.PAYMENT_ACTION_CANCEL, actor, err)
		} else {
			result.PaymentOutcome = outcome
		}
	}

	program := c.program(ctx, booking, result)
	if err := c.notifier.BookingRejected(ctx, booking, program); err != nil {
		c.notificationFailed(ctx, booking, result, err)
	}
	c.audit(ctx, booking, actor, "reject", result)
	return result, nil
}

// Delete removes a booking. Guests of bookings that were not cancelled are
// told first. Outstanding payments are flagged for manual reconciliation and
// never touched.
func (c *BookingController) Delete(ctx context.Context, id uuid.UUID, actor string) (*ActionResult, error) {
	booking, err := c.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &ActionResult{Booking: booking}

	if booking.Status != types.BOOKING_CANCELLED {
		program := c.program(ctx, booking, result)
		if err := c.notifier.BookingDeleted(ctx, booking, program); err != nil {
			c.notificationFailed(ctx, booking, result, err)
		}
	}

	deleted, err := c.store.DeleteBooking(ctx, booking.ID)
	if err != nil {
		log.Printf("[Booking] Error deleting %s: %s\n", booking.ID, err.Error())
		return nil, err
	}
	if !deleted {
		return nil, types.ErrBookingNotFound
	}
	result.Applied = true
	log.Printf("[Booking] Deleted %s (was %s)\n", booking.ID, booking.Status)

	if booking.HasPayment() {
		pi := booking.PaymentIntent()
		state, err := c.gateway.PaymentState(ctx, pi)
		switch {
		case err != nil:
			result.warn("could not verify payment %s (%s); reconcile it manually", pi, err.Error())
			c.reconcile(ctx, booking, types.PAYMENT_ACTION_INSPECT, actor, err)
		case !state.Settled():
			result.warn("payment %s is %s; reconcile it manually", pi, state)
			c.reconcile(ctx, booking, types.PAYMENT_ACTION_INSPECT, actor, fmt.Errorf("booking deleted while payment is %s", state))
		}
	}
	c.audit(ctx, booking, actor, "delete", result)
	return result, nil
}

// RunPaymentAction lets staff finish a capture or cancellation that failed
// during confirm or reject.
func (c *BookingController) RunPaymentAction(ctx context.Context, body types.PaymentActionRequestBody, actor string) (*PaymentActionResult, error) {
	var err error
	switch body.Action {
	case types.PAYMENT_ACTION_CAPTURE:
		err = c.gateway.Capture(ctx, body.PaymentIntentID)
	case types.PAYMENT_ACTION_CANCEL:
		err = c.gateway.Cancel(ctx, body.PaymentIntentID)
	default:
		return nil, types.NewValidationError("action", "must be capture or cancel")
	}
	entry := &models.TrailLog{
		Type:            types.TRAIL_ADMIN_ACTION,
		Initiator:       actor,
		PaymentIntentID: body.PaymentIntentID,
		Action:          string(body.Action),
		Message:         "manual payment action succeeded",
	}
	if err != nil {
		entry.Message = err.Error()
	}
	c.trail(ctx, entry)
	if err != nil {
		return nil, err
	}
	out := &PaymentActionResult{PaymentIntentID: body.PaymentIntentID, Action: body.Action}
	if state, err := c.gateway.PaymentState(ctx, body.PaymentIntentID); err == nil {
		out.State = state
	}
	return out, nil
}

func (c *BookingController) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return c.store.GetBooking(ctx, id)
}

func (c *BookingController) List(ctx context.Context, filters types.BookingQueryFilters) ([]models.Booking, error) {
	return c.store.ListBookings(ctx, filters)
}

func (c *BookingController) ListPrograms(ctx context.Context, lang string) ([]models.LocalizedProgram, error) {
	programs, err := c.store.ListPrograms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.LocalizedProgram, 0, len(programs))
	for i := range programs {
		out = append(out, programs[i].Localize(lang, c.lang))
	}
	return out, nil
}

func (c *BookingController) GetProgram(ctx context.Context, slug, lang string) (*models.LocalizedProgram, error) {
	program, err := c.store.GetProgramBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	out := program.Localize(lang, c.lang)
	return &out, nil
}

func (c *BookingController) ListReconciliation(ctx context.Context, filters types.TrailQueryFilters) ([]models.TrailLog, error) {
	if filters.Type == "" {
		filters.Type = types.TRAIL_RECONCILIATION
	}
	return c.store.ListTrail(ctx, filters)
}

// AuthorizationDigest emails admins the pending bookings whose card hold is
// older than the configured age. It returns how many bookings were listed.
func (c *BookingController) AuthorizationDigest(ctx context.Context) (int, error) {
	age := config.AuthHoldWarnAfter()
	stale, err := c.store.StalePendingAuthorizations(ctx, c.now().Add(-age))
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}
	admins, err := c.store.AdminEmails(ctx)
	if err != nil {
		return 0, err
	}
	if len(admins) == 0 {
		log.Printf("[Digest] %d stale authorization(s) but no admin to notify\n", len(stale))
		return len(stale), nil
	}
	if err := c.notifier.AuthorizationDigest(ctx, admins, stale, age); err != nil {
		log.Printf("[Digest] Error sending digest: %s\n", err.Error())
		return 0, err
	}
	log.Printf("[Digest] Sent %d stale authorization(s) to %d admin(s)\n", len(stale), len(admins))
	return len(stale), nil
}

// transition writes the status change conditioned on the status that was read.
// A lost race reports Applied=false with the booking as it is now.
func (c *BookingController) transition(ctx context.Context, booking *models.Booking, to types.BookingStatus) (*ActionResult, error) {
	from := booking.Status
	applied, err := c.store.TransitionStatus(ctx, booking.ID, from, to)
	if err != nil {
		log.Printf("[Booking] Error moving %s from %s to %s: %s\n", booking.ID, from, to, err.Error())
		return nil, err
	}
	if !applied {
		current, err := c.store.GetBooking(ctx, booking.ID)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		log.Printf("[Booking] %s changed concurrently, %s not applied\n", booking.ID, to)
		return &ActionResult{Booking: current, Applied: false}, nil
	}
	booking.Status = to
	log.Printf("[Booking] %s: %s -> %s\n", booking.ID, from, to)
	return &ActionResult{Booking: booking, Applied: true}, nil
}

func (c *BookingController) program(ctx context.Context, booking *models.Booking, result *ActionResult) *models.Program {
	program, err := c.store.GetProgram(ctx, booking.ProgramID)
	if err != nil {
		log.Printf("[Booking] Program %d for %s unavailable: %s\n", booking.ProgramID, booking.ID, err.Error())
		result.warn("program %d could not be loaded; email sent without its title", booking.ProgramID)
		return nil
	}
	return program
}

func (c *BookingController) notificationFailed(ctx context.Context, booking *models.Booking, result *ActionResult, err error) {
	log.Printf("[Booking] Email to %s for %s failed: %s\n", booking.GuestEmail, booking.ID, err.Error())
	result.NotificationError = err
	result.warn("email to %s could not be sent: %s", booking.GuestEmail, err.Error())
	c.trail(ctx, &models.TrailLog{
		Type:      types.TRAIL_NOTIFICATION_FAILED,
		BookingID: &booking.ID,
		Message:   err.Error(),
	})
}

// reconcile records a payment the system could not settle and alerts staff.
func (c *BookingController) reconcile(ctx context.Context, booking *models.Booking, action types.PaymentAction, actor string, cause error) {
	pi := booking.PaymentIntent()
	log.Printf("[Reconciliation] %s of %s for booking %s: %s\n", action, pi, booking.ID, cause.Error())
	c.trail(ctx, &models.TrailLog{
		Type:            types.TRAIL_RECONCILIATION,
		Initiator:       actor,
		BookingID:       &booking.ID,
		PaymentIntentID: pi,
		Action:          string(action),
		Message:         cause.Error(),
		Details:         &types.JSONB{"booking_status": string(booking.Status)},
	})
	if c.alerter == nil {
		return
	}
	subject := fmt.Sprintf("Payment %s needs attention", pi)
	message := fmt.Sprintf("Booking %s (%s) is %s. Action %s on %s did not complete: %s",
		booking.ID, booking.GuestEmail, booking.Status, action, pi, cause.Error())
	if err := c.alerter.Publish(ctx, subject, message); err != nil {
		log.Printf("[Reconciliation] Error publishing alert: %s\n", err.Error())
	}
}

// orphanedHold flags an authorization from a completed checkout that no
// booking will capture or release.
func (c *BookingController) orphanedHold(ctx context.Context, ev *types.PaymentEvent, bookingID *uuid.UUID, reason string) {
	log.Printf("[Reconciliation] %s from checkout %s is unattached: %s\n", ev.PaymentIntentID, ev.SessionID, reason)
	c.trail(ctx, &models.TrailLog{
		Type:            types.TRAIL_RECONCILIATION,
		Initiator:       "stripe",
		BookingID:       bookingID,
		PaymentIntentID: ev.PaymentIntentID,
		Action:          string(types.PAYMENT_ACTION_CANCEL),
		Message:         reason,
		Details:         &types.JSONB{"checkout_session": ev.SessionID},
	})
	if c.alerter == nil {
		return
	}
	subject := fmt.Sprintf("Payment %s needs attention", ev.PaymentIntentID)
	message := fmt.Sprintf("Checkout %s completed but %s; release the authorization manually.", ev.SessionID, reason)
	if err := c.alerter.Publish(ctx, subject, message); err != nil {
		log.Printf("[Reconciliation] Error publishing alert: %s\n", err.Error())
	}
}

func (c *BookingController) audit(ctx context.Context, booking *models.Booking, actor, action string, result *ActionResult) {
	details := types.JSONB{"status": string(booking.Status)}
	if result.PaymentOutcome != types.PAYMENT_OUTCOME_NONE {
		details["payment_outcome"] = string(result.PaymentOutcome)
	}
	if len(result.Warnings) > 0 {
		details["warnings"] = result.Warnings
	}
	c.trail(ctx, &models.TrailLog{
		Type:            types.TRAIL_ADMIN_ACTION,
		Initiator:       actor,
		BookingID:       &booking.ID,
		PaymentIntentID: booking.PaymentIntent(),
		Action:          action,
		Message:         fmt.Sprintf("%s %s", action, booking.ID),
		Details:         &details,
	})
}

// trail failures are logged only.
func (c *BookingController) trail(ctx context.Context, entry *models.TrailLog) {
	if err := c.store.RecordTrail(ctx, entry); err != nil {
		log.Printf("[Trail] Error recording %s: %s\n", entry.Type, err.Error())
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
