package dto

import (
	"time"

	"github.com/eventbook/auth-service/internal/models"
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email        string               `json:"email"`
	Username     string               `json:"username,omitempty"`
	Password     string               `json:"password"`
	FirstName    string               `json:"first_name,omitempty"`
	LastName     string               `json:"last_name,omitempty"`
	Role         string               `json:"role,omitempty"`
	Organization *OrganizationRequest `json:"organization,omitempty"`
}

type OrganizationRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	WebsiteURL   string `json:"website_url,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type SendVerificationRequest struct {
	Email string `json:"email"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// SessionMeta tags the stored session with the requester's device info.
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// UserResponse is the sanitized user shape; no secret-derived fields.
type UserResponse struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Username        *string    `json:"username,omitempty"`
	FirstName       string     `json:"first_name,omitempty"`
	LastName        string     `json:"last_name,omitempty"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	AuthType        string     `json:"auth_type"`
	IsVerified      bool       `json:"is_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type OrganizationResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	WebsiteURL   string    `json:"website_url,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	IsVerified   bool      `json:"is_verified"`
}

type AuthResponse struct {
	User         UserResponse          `json:"user"`
	Organization *OrganizationResponse `json:"organization,omitempty"`
	Tokens       TokenPair             `json:"tokens"`
}

// MeResponse is the current-user profile; the organization is present only for
// organization accounts.
type MeResponse struct {
	User         UserResponse          `json:"user"`
	Organization *OrganizationResponse `json:"organization,omitempty"`
}

// SessionResponse describes one live device session. The token itself is never
// returned; the ID is what logout-by-session takes.
type SessionResponse struct {
	ID        uuid.UUID `json:"id"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MessageResponse carries the generic success messages used by the
// enumeration-resistant flows.
type MessageResponse struct {
	Message string `json:"message"`
}

// PasswordResetIssuedResponse carries the generic message plus, when the email
// matched an account, the raw token for the caller's mailer. The caller must
// not forward the token to the end client.
type PasswordResetIssuedResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"reset_token,omitempty"`
}

type VerificationIssuedResponse struct {
	Message           string `json:"message"`
	VerificationToken string `json:"verification_token"`
}

type ErrorResponse struct {
	Error      bool     `json:"error"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

// NewUserResponse strips secret-bearing fields from the model.
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		Status:          u.Status,
		AuthType:        u.AuthType,
		IsVerified:      u.IsVerified,
		EmailVerifiedAt: u.EmailVerifiedAt,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}

func NewOrganizationResponse(o *models.Organization) *OrganizationResponse {
	if o == nil {
		return nil
	}
	return &OrganizationResponse{
		ID:           o.ID,
		Name:         o.Name,
		Description:  o.Description,
		WebsiteURL:   o.WebsiteURL,
		ContactEmail: o.ContactEmail,
		IsVerified:   o.IsVerified,
	}
}
