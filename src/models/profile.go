package models

import (
	"time"

	"github.com/google/uuid"
)

const ROLE_ADMIN = "admin"

// Profile is keyed by the auth provider's user id (the token subject).
type Profile struct {
	ID        uuid.UUID `gorm:"primarykey;type:uuid" json:"id"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `gorm:"default:'guest'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Profile) IsAdmin() bool {
	return p.Role == ROLE_ADMIN
}
