package controllers

import (
	"context"
	"time"

	"hbs/src/lib"
	"hbs/src/models"
	"hbs/src/types"

	"github.com/stretchr/testify/mock"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req lib.CheckoutRequest) (*lib.CheckoutSession, error) {
	args := m.Called(ctx, req)
	cs, _ := args.Get(0).(*lib.CheckoutSession)
	return cs, args.Error(1)
}

func (m *mockGateway) RetrieveCheckoutSession(ctx context.Context, id string) (*lib.CheckoutSession, error) {
	args := m.Called(ctx, id)
	cs, _ := args.Get(0).(*lib.CheckoutSession)
	return cs, args.Error(1)
}

func (m *mockGateway) Capture(ctx context.Context, paymentIntentID string) error {
	return m.Called(ctx, paymentIntentID).Error(0)
}

func (m *mockGateway) Cancel(ctx context.Context, paymentIntentID string) error {
	return m.Called(ctx, paymentIntentID).Error(0)
}

func (m *mockGateway) ResolveOnCancel(ctx context.Context, paymentIntentID string) (types.PaymentOutcome, error) {
	args := m.Called(ctx, paymentIntentID)
	return args.Get(0).(types.PaymentOutcome), args.Error(1)
}

func (m *mockGateway) PaymentState(ctx context.Context, paymentIntentID string) (types.PaymentState, error) {
	args := m.Called(ctx, paymentIntentID)
	return args.Get(0).(types.PaymentState), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) BookingConfirmed(ctx context.Context, booking *models.Booking, program *models.Program) error {
	return m.Called(ctx, booking, program).Error(0)
}

func (m *mockNotifier) BookingRejected(ctx context.Context, booking *models.Booking, program *models.Program) error {
	return m.Called(ctx, booking, program).Error(0)
}

func (m *mockNotifier) BookingDeleted(ctx context.Context, booking *models.Booking, program *models.Program) error {
	return m.Called(ctx, booking, program).Error(0)
}

func (m *mockNotifier) AuthorizationDigest(ctx context.Context, to []string, bookings []models.Booking, age time.Duration) error {
	return m.Called(ctx, to, bookings, age).Error(0)
}

type mockAlerter struct {
	mock.Mock
}

func (m *mockAlerter) Publish(ctx context.Context, subject, message string) error {
	return m.Called(ctx, subject, message).Error(0)
}
