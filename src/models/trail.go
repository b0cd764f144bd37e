package models

import (
	"time"

	"hbs/src/types"

	"github.com/google/uuid"
)

// TrailLog records staff actions and anything that needs manual reconciliation.
type TrailLog struct {
	ID              uuid.UUID    `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Type            string       `gorm:"index" json:"type"`
	Initiator       string       `json:"initiator,omitempty"`
	BookingID       *uuid.UUID   `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	PaymentIntentID string       `json:"payment_intent_id,omitempty"`
	Action          string       `json:"action,omitempty"`
	Message         string       `json:"message"`
	Details         *types.JSONB `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt       time.Time    `gorm:"autoCreateTime" json:"created_at"`
}
