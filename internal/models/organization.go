package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the business profile created alongside organization-role
// registrations. It is owned by its user and cascade-deleted with it.
type Organization struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Description  string     `gorm:"type:text" json:"description,omitempty"`
	WebsiteURL   string     `gorm:"type:text" json:"website_url,omitempty"`
	ContactEmail string     `gorm:"size:255" json:"contact_email,omitempty"`
	ContactPhone string     `gorm:"size:20" json:"contact_phone,omitempty"`
	IsVerified   bool       `gorm:"default:false" json:"is_verified"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	User         User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
