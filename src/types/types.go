package types

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

// Handler consumes one queued message; the message is acknowledged only when it returns nil.
type Handler func(ctx context.Context, payload string) error

type SimpleRequestParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// UUID is only safe after the params passed binding.
func (p SimpleRequestParams) UUID() uuid.UUID {
	return uuid.MustParse(p.ID)
}

type ProgramRequestParams struct {
	Slug string `uri:"slug" binding:"required"`
}

type LanguageQuery struct {
	Lang string `form:"lang"`
}

type CreateBookingRequestBody struct {
	ProgramID   uint   `json:"program_id" binding:"required"`
	GuestName   string `json:"guest_name" binding:"required,max=200"`
	GuestEmail  string `json:"guest_email" binding:"required,email"`
	GuestPhone  string `json:"guest_phone,omitempty" binding:"omitempty,max=32"`
	BookingDate string `json:"booking_date" binding:"required,bookabledate"`
	PartySize   uint   `json:"party_size" binding:"required,min=1"`
	Language    string `json:"language,omitempty" binding:"omitempty,max=8"`
}

type CheckoutRequestBody struct {
	ProgramID  uint       `json:"program_id" binding:"required"`
	Price      float64    `json:"price" binding:"required,gt=0"`
	Currency   string     `json:"currency,omitempty" binding:"omitempty,len=3"`
	GuestName  string     `json:"guest_name" binding:"required,max=200"`
	GuestEmail string     `json:"guest_email" binding:"required,email"`
	Language   string     `json:"language,omitempty" binding:"omitempty,max=8"`
	BookingID  *uuid.UUID `json:"booking_id,omitempty"`
}

type PaymentActionRequestBody struct {
	PaymentIntentID string        `json:"payment_intent_id" binding:"required"`
	Action          PaymentAction `json:"action" binding:"required,oneof=capture cancel"`
}

type BookingQueryFilters struct {
	Status    string `form:"status" binding:"omitempty,oneof=pending confirmed cancelled"`
	Email     string `form:"email" binding:"omitempty,email"`
	ProgramID uint   `form:"program_id"`
	OrderBy   string `form:"order_by" binding:"omitempty,oneof=created_at booking_date"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

type TrailQueryFilters struct {
	Type  string `form:"type"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

// Normalized payment-provider events handed from webhook ingestion to the controller.
type PaymentEventKind string

const (
	PAYMENT_EVENT_CHECKOUT_COMPLETED PaymentEventKind = "checkout_completed"
	PAYMENT_EVENT_PAYMENT_FAILED     PaymentEventKind = "payment_failed"
	PAYMENT_EVENT_IGNORED            PaymentEventKind = "ignored"
)

type PaymentEvent struct {
	ID              string
	Kind            PaymentEventKind
	ProviderType    string
	SessionID       string
	CustomerEmail   string
	PaymentIntentID string
	BookingID       *uuid.UUID
}

// TrailLog types.
const (
	TRAIL_ADMIN_ACTION        = "admin_action"
	TRAIL_RECONCILIATION      = "reconciliation"
	TRAIL_NOTIFICATION_FAILED = "notification_failed"
	TRAIL_WEBHOOK             = "webhook"
)
