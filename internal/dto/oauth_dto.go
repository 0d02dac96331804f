package dto

import (
	"time"

	"github.com/google/uuid"
)

// OAuth sign-in outcomes, reported for caller telemetry.
const (
	OAuthOutcomeNewUser  = "new_user"
	OAuthOutcomeLinked   = "linked_existing"
	OAuthOutcomeExisting = "existing"
)

type OAuthLoginRequest struct {
	IDToken string `json:"id_token"`
	// Provider tokens forwarded by the gateway after its code exchange.
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    *int64 `json:"expires_at,omitempty"`
}

// OAuthProfile is the provider-vouched identity used for link-or-create.
type OAuthProfile struct {
	ProviderUserID string `json:"provider_user_id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Picture        string `json:"picture,omitempty"`
}

type OAuthProviderTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

type OAuthLoginResponse struct {
	User    UserResponse `json:"user"`
	Tokens  TokenPair    `json:"tokens"`
	Outcome string       `json:"outcome"`
}

type OAuthAccountResponse struct {
	ID             uuid.UUID `json:"id"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}
