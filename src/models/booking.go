package models

import (
	"time"

	"hbs/src/types"

	"github.com/google/uuid"
)

type Booking struct {
	ID          uuid.UUID           `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	ProgramID   uint                `gorm:"index" json:"program_id"`
	GuestName   string              `json:"guest_name"`
	GuestEmail  string              `gorm:"index" json:"guest_email"`
	GuestPhone  string              `json:"guest_phone,omitempty"`
	BookingDate time.Time           `json:"booking_date"`
	PartySize   uint                `json:"party_size"`
	Status      types.BookingStatus `gorm:"index;default:'pending'" json:"status"`
	// Set at most once, when checkout completes.
	PaymentIntentID *string   `gorm:"uniqueIndex" json:"payment_intent_id,omitempty"`
	Language        string    `gorm:"size:8" json:"language,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Program *Program `gorm:"foreignKey:program_id" json:"program,omitempty"`
}

func (b *Booking) HasPayment() bool {
	return b.PaymentIntentID != nil && *b.PaymentIntentID != ""
}

func (b *Booking) PaymentIntent() string {
	if b.PaymentIntentID == nil {
		return ""
	}
	return *b.PaymentIntentID
}
