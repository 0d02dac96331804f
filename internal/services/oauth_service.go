package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/eventbook/auth-service/internal/apperr"
	"github.com/eventbook/auth-service/internal/config"
	"github.com/eventbook/auth-service/internal/dto"
	"github.com/eventbook/auth-service/internal/models"
	"github.com/eventbook/auth-service/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OAuthService reconciles provider identities against local accounts and
// issues sessions through the lifecycle manager. The three branches of
// LoginOrRegister are exclusive and evaluated in priority order: provider
// identity match, then email match, then account creation.
type OAuthService struct {
	store     repository.Store
	auth      *AuthService
	cfg       *config.Config
	verifiers map[string]*JWKSVerifier
}

func NewOAuthService(store repository.Store, auth *AuthService, cfg *config.Config) *OAuthService {
	verifiers := make(map[string]*JWKSVerifier)
	if cfg.GoogleClientID != "" {
		verifiers["google"] = NewJWKSVerifier(
			"https://accounts.google.com",
			"https://www.googleapis.com/oauth2/v3/certs",
			cfg.GoogleClientID,
		)
	}
	if cfg.AppleClientID != "" {
		verifiers["apple"] = NewJWKSVerifier(
			"https://appleid.apple.com",
			"https://appleid.apple.com/auth/keys",
			cfg.AppleClientID,
		)
	}
	return &OAuthService{store: store, auth: auth, cfg: cfg, verifiers: verifiers}
}

// LoginWithIDToken verifies a provider-signed id token and runs the
// link-or-create flow with the vouched identity.
func (s *OAuthService) LoginWithIDToken(ctx context.Context, provider string, req *dto.OAuthLoginRequest, meta dto.SessionMeta) (*dto.OAuthLoginResponse, error) {
	const op = "oauth login failed"

	verifier, ok := s.verifiers[provider]
	if !ok {
		return nil, apperr.Validation("oauth provider " + provider + " is not configured")
	}
	claims, err := verifier.VerifyIDToken(req.IDToken)
	if err != nil {
		return nil, apperr.E(apperr.ErrUnauthenticated, op, err)
	}

	profile := dto.OAuthProfile{
		ProviderUserID: claims.Sub,
		Email:          claims.Email,
		FirstName:      claims.GivenName,
		LastName:       claims.FamilyName,
		Picture:        claims.Picture,
	}
	tokens := dto.OAuthProviderTokens{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	}
	if req.ExpiresAt != nil {
		at := time.Unix(*req.ExpiresAt, 0)
		tokens.ExpiresAt = &at
	}
	return s.LoginOrRegister(ctx, provider, profile, tokens, meta)
}

// LoginOrRegister resolves a provider identity to a local user:
//  1. a known (provider, provider_user_id) link logs in its user;
//  2. otherwise a user with the profile email gets the provider linked;
//  3. otherwise a new pre-verified user is created with the default role.
func (s *OAuthService) LoginOrRegister(ctx context.Context, provider string, profile dto.OAuthProfile, providerTokens dto.OAuthProviderTokens, meta dto.SessionMeta) (*dto.OAuthLoginResponse, error) {
	const op = "oauth login failed"

	if provider == "" || profile.ProviderUserID == "" {
		return nil, apperr.Validation("provider and provider user id are required")
	}
	email := normalizeEmail(profile.Email)
	if email == "" || !validEmail(email) {
		return nil, apperr.Validation("a valid email address is required")
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	defer tx.Rollback()

	var (
		user    *models.User
		outcome string
	)

	account, err := tx.OAuthAccounts().FindByProvider(ctx, provider, profile.ProviderUserID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	switch {
	case account != nil:
		// Known provider identity; provider-identity match takes precedence
		// over email match.
		user, err = tx.Users().FindByID(ctx, account.UserID)
		if err != nil {
			return nil, apperr.Internal(op, err)
		}
		if user == nil {
			return nil, apperr.E(apperr.ErrUnauthenticated, op, errors.New("linked user missing"))
		}
		if user.Status != models.StatusActive {
			return nil, apperr.E(apperr.ErrForbidden, op, errors.New("account is not active"))
		}
		if err := tx.OAuthAccounts().UpdateTokens(ctx, account.ID, providerTokens.AccessToken, providerTokens.RefreshToken, providerTokens.ExpiresAt); err != nil {
			return nil, apperr.Internal(op, err)
		}
		outcome = dto.OAuthOutcomeExisting

	default:
		user, err = tx.Users().FindByEmail(ctx, email)
		if err != nil {
			return nil, apperr.Internal(op, err)
		}
		if user != nil {
			// Email exists locally: attach this provider to the account.
			if user.Status != models.StatusActive {
				return nil, apperr.E(apperr.ErrForbidden, op, errors.New("account is not active"))
			}
			if err := s.createLink(ctx, tx, user.ID, provider, profile, providerTokens); err != nil {
				return nil, apperr.Internal(op, err)
			}
			if user.PasswordHash != "" {
				user.AuthType = models.AuthTypeBoth
			} else {
				user.AuthType = models.AuthTypeOAuth
			}
			if err := tx.Users().Update(ctx, user); err != nil {
				return nil, apperr.Internal(op, err)
			}
			outcome = dto.OAuthOutcomeLinked
		} else {
			user, err = s.createOAuthUser(ctx, tx, provider, email, profile, providerTokens)
			if err != nil {
				return nil, err
			}
			outcome = dto.OAuthOutcomeNewUser
		}
	}

	now := time.Now()
	if err := tx.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, apperr.Internal(op, err)
	}
	user.LastLoginAt = &now

	pair, err := s.auth.issueSession(ctx, tx, user, meta)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	if err := tx.Commit(); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.E(apperr.ErrConflict, op, err)
		}
		return nil, apperr.Internal(op, err)
	}

	slog.Info("oauth login", "provider", provider, "user_id", user.ID, "outcome", outcome)

	return &dto.OAuthLoginResponse{
		User:    dto.NewUserResponse(user),
		Tokens:  *pair,
		Outcome: outcome,
	}, nil
}

// LinkWithIDToken verifies a provider-signed id token and links its identity
// to the authenticated user.
func (s *OAuthService) LinkWithIDToken(ctx context.Context, userID uuid.UUID, provider string, req *dto.OAuthLoginRequest) error {
	verifier, ok := s.verifiers[provider]
	if !ok {
		return apperr.Validation("oauth provider " + provider + " is not configured")
	}
	claims, err := verifier.VerifyIDToken(req.IDToken)
	if err != nil {
		return apperr.E(apperr.ErrUnauthenticated, "oauth link failed", err)
	}

	profile := dto.OAuthProfile{
		ProviderUserID: claims.Sub,
		Email:          claims.Email,
		FirstName:      claims.GivenName,
		LastName:       claims.FamilyName,
		Picture:        claims.Picture,
	}
	tokens := dto.OAuthProviderTokens{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	}
	if req.ExpiresAt != nil {
		at := time.Unix(*req.ExpiresAt, 0)
		tokens.ExpiresAt = &at
	}
	return s.LinkAccount(ctx, userID, provider, profile, tokens)
}

// LinkAccount attaches a provider identity to an already authenticated user.
func (s *OAuthService) LinkAccount(ctx context.Context, userID uuid.UUID, provider string, profile dto.OAuthProfile, providerTokens dto.OAuthProviderTokens) error {
	const op = "oauth link failed"

	existing, err := s.store.OAuthAccounts().FindByProvider(ctx, provider, profile.ProviderUserID)
	if err != nil {
		return apperr.Internal(op, err)
	}
	if existing != nil {
		return apperr.E(apperr.ErrConflict, op, errors.New("provider identity already linked"))
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return apperr.Internal(op, err)
	}
	if user == nil {
		return apperr.E(apperr.ErrNotFound, op, errors.New("user not found"))
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return apperr.Internal(op, err)
	}
	defer tx.Rollback()

	if err := s.createLink(ctx, tx, userID, provider, profile, providerTokens); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperr.E(apperr.ErrConflict, op, err)
		}
		return apperr.Internal(op, err)
	}
	if user.PasswordHash != "" {
		user.AuthType = models.AuthTypeBoth
	} else {
		user.AuthType = models.AuthTypeOAuth
	}
	if err := tx.Users().Update(ctx, user); err != nil {
		return apperr.Internal(op, err)
	}
	return tx.Commit()
}

// UnlinkAccount removes a provider link; when it was the last one and a
// password exists, the account reverts to plain email auth.
func (s *OAuthService) UnlinkAccount(ctx context.Context, userID uuid.UUID, provider string) error {
	const op = "oauth unlink failed"

	account, err := s.store.OAuthAccounts().FindByUserAndProvider(ctx, userID, provider)
	if err != nil {
		return apperr.Internal(op, err)
	}
	if account == nil {
		return apperr.E(apperr.ErrNotFound, op, errors.New("oauth account not found"))
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return apperr.Internal(op, err)
	}
	defer tx.Rollback()

	if err := tx.OAuthAccounts().Delete(ctx, account.ID); err != nil {
		return apperr.Internal(op, err)
	}

	remaining, err := tx.OAuthAccounts().FindByUser(ctx, userID)
	if err != nil {
		return apperr.Internal(op, err)
	}
	if len(remaining) == 0 {
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return apperr.Internal(op, err)
		}
		if user != nil && user.PasswordHash != "" {
			user.AuthType = models.AuthTypeEmail
			if err := tx.Users().Update(ctx, user); err != nil {
				return apperr.Internal(op, err)
			}
		}
	}
	return tx.Commit()
}

// ListAccounts returns the user's linked providers without token material.
func (s *OAuthService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]dto.OAuthAccountResponse, error) {
	accounts, err := s.store.OAuthAccounts().FindByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("oauth account listing failed", err)
	}
	out := make([]dto.OAuthAccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, dto.OAuthAccountResponse{
			ID:             a.ID,
			Provider:       a.Provider,
			ProviderUserID: a.ProviderUserID,
			CreatedAt:      a.CreatedAt,
		})
	}
	return out, nil
}

func (s *OAuthService) createLink(ctx context.Context, repos repository.Repos, userID uuid.UUID, provider string, profile dto.OAuthProfile, providerTokens dto.OAuthProviderTokens) error {
	profileJSON, _ := json.Marshal(profile)
	account := &models.OAuthAccount{
		ID:             uuid.New(),
		UserID:         userID,
		Provider:       provider,
		ProviderUserID: profile.ProviderUserID,
		AccessToken:    providerTokens.AccessToken,
		RefreshToken:   providerTokens.RefreshToken,
		ExpiresAt:      providerTokens.ExpiresAt,
		Profile:        datatypes.JSON(profileJSON),
	}
	return repos.OAuthAccounts().Create(ctx, account)
}

func (s *OAuthService) createOAuthUser(ctx context.Context, tx repository.Tx, provider, email string, profile dto.OAuthProfile, providerTokens dto.OAuthProviderTokens) (*models.User, error) {
	const op = "oauth login failed"

	role, err := tx.Roles().FindByName(ctx, s.cfg.DefaultRole)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if role == nil {
		return nil, apperr.E(apperr.ErrNotFound, op, errors.New("role "+s.cfg.DefaultRole+" not found"))
	}

	now := time.Now()
	user := &models.User{
		ID:                uuid.New(),
		Email:             email,
		FirstName:         profile.FirstName,
		LastName:          profile.LastName,
		ProfilePictureURL: profile.Picture,
		Status:            models.StatusActive,
		AuthType:          models.AuthTypeOAuth,
		Role:              s.cfg.DefaultRole,
		// The provider vouches for the email.
		IsVerified:      true,
		EmailVerifiedAt: &now,
	}
	if err := tx.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.E(apperr.ErrConflict, op, err)
		}
		return nil, apperr.Internal(op, err)
	}
	if err := tx.Roles().AssignToUser(ctx, user.ID, role.ID); err != nil {
		return nil, apperr.Internal(op, err)
	}
	if err := s.createLink(ctx, tx, user.ID, provider, profile, providerTokens); err != nil {
		return nil, apperr.Internal(op, err)
	}
	return user, nil
}
