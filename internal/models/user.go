package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User statuses.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusDeleted   = "deleted"
)

// Authentication types. A user becomes "both" once an OAuth provider is linked
// to a password account; password login stays allowed only for "email" and "both".
const (
	AuthTypeEmail = "email"
	AuthTypeOAuth = "oauth"
	AuthTypeBoth  = "both"
)

// User is the identity record. Email is stored lower-cased and unique;
// PasswordHash is empty for OAuth-only accounts.
type User struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email             string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Username          *string        `gorm:"size:100;uniqueIndex" json:"username,omitempty"`
	PasswordHash      string         `gorm:"size:255" json:"-"`
	FirstName         string         `gorm:"size:100" json:"first_name"`
	LastName          string         `gorm:"size:100" json:"last_name"`
	ProfilePictureURL string         `gorm:"type:text" json:"profile_picture_url,omitempty"`
	Status            string         `gorm:"size:20;not null;default:'active'" json:"status"`
	AuthType          string         `gorm:"size:20;not null;default:'email'" json:"auth_type"`
	Role              string         `gorm:"size:50;default:'individual'" json:"role"`
	IsVerified        bool           `gorm:"default:false" json:"is_verified"`
	EmailVerifiedAt   *time.Time     `json:"email_verified_at,omitempty"`
	LastLoginAt       *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// CanLoginWithPassword reports whether the account admits password login.
func (u *User) CanLoginWithPassword() bool {
	return u.PasswordHash != "" && (u.AuthType == AuthTypeEmail || u.AuthType == AuthTypeBoth)
}
