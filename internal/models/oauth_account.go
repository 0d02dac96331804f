package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OAuthAccount binds an external provider identity to a local user.
// (provider, provider_user_id) is globally unique; a user holds at most one
// link per provider.
type OAuthAccount struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_oauth_user_provider" json:"user_id"`
	Provider       string         `gorm:"size:50;not null;uniqueIndex:idx_oauth_provider_identity;uniqueIndex:idx_oauth_user_provider" json:"provider"`
	ProviderUserID string         `gorm:"size:255;not null;uniqueIndex:idx_oauth_provider_identity" json:"provider_user_id"`
	AccessToken    string         `gorm:"type:text" json:"-"`
	RefreshToken   string         `gorm:"type:text" json:"-"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	Profile        datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"profile,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	User           User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
