// Package repository declares the credential-store interfaces the auth core
// depends on. The GORM implementation lives in the gormstore subpackage;
// tests substitute mocks.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/eventbook/auth-service/internal/models"
	"github.com/google/uuid"
)

// ErrDuplicate is returned by create operations that hit a unique constraint,
// turning a concurrent check-then-insert race into a conflict instead of two
// rows.
var ErrDuplicate = errors.New("duplicate record")

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Organization, error)
}

type OAuthAccountRepository interface {
	Create(ctx context.Context, account *models.OAuthAccount) error
	FindByProvider(ctx context.Context, provider, providerUserID string) (*models.OAuthAccount, error)
	FindByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*models.OAuthAccount, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.OAuthAccount, error)
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RoleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Role, error)
	Create(ctx context.Context, role *models.Role) error
	AssignToUser(ctx context.Context, userID, roleID uuid.UUID) error
	RemoveFromUser(ctx context.Context, userID, roleID uuid.UUID) (int64, error)
}

type PermissionRepository interface {
	Create(ctx context.Context, permission *models.Permission) error
	FindByName(ctx context.Context, name string) (*models.Permission, error)
	// FindByUser returns the permissions granted through every role the user
	// holds; rows may repeat when roles share a permission.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Permission, error)
	AssignToRole(ctx context.Context, roleID, permissionID uuid.UUID) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RefreshToken, error)
	// FindValid returns all non-revoked, non-expired tokens (the probe set).
	FindValid(ctx context.Context, now time.Time) ([]models.RefreshToken, error)
	FindValidByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.RefreshToken, error)
	// Revoke marks the row revoked only if it is not already; the returned
	// count is 1 exactly once per token, which is what makes rotation
	// replay-safe under concurrent refresh.
	Revoke(ctx context.Context, id uuid.UUID) (int64, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type ActionTokenRepository interface {
	CreatePasswordReset(ctx context.Context, token *models.PasswordResetToken) error
	FindValidPasswordResets(ctx context.Context, now time.Time) ([]models.PasswordResetToken, error)
	// MarkPasswordResetUsed flips is_used only when it is still false and
	// returns the affected count, enforcing single use at verification time.
	MarkPasswordResetUsed(ctx context.Context, id uuid.UUID) (int64, error)
	CreateEmailVerification(ctx context.Context, token *models.EmailVerificationToken) error
	FindValidEmailVerifications(ctx context.Context, now time.Time) ([]models.EmailVerificationToken, error)
	MarkEmailVerificationUsed(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Repos groups the per-entity repositories.
type Repos interface {
	Users() UserRepository
	Organizations() OrganizationRepository
	OAuthAccounts() OAuthAccountRepository
	Roles() RoleRepository
	Permissions() PermissionRepository
	RefreshTokens() RefreshTokenRepository
	ActionTokens() ActionTokenRepository
}

// Tx is a scoped transaction handle: acquire with Store.Begin, use the repos,
// then Commit; a deferred Rollback after commit is a no-op.
type Tx interface {
	Repos
	Commit() error
	Rollback() error
}

// Store is the credential store handed to the services at construction time.
type Store interface {
	Repos
	Begin(ctx context.Context) (Tx, error)
}
