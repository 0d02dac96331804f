package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eventbook/auth-service/internal/apperr"
	"github.com/eventbook/auth-service/internal/config"
	"github.com/eventbook/auth-service/internal/dto"
	"github.com/eventbook/auth-service/internal/hash"
	"github.com/eventbook/auth-service/internal/models"
	"github.com/eventbook/auth-service/internal/repository"
	"github.com/eventbook/auth-service/internal/token"
	"github.com/google/uuid"
)

// AuthService orchestrates the credential lifecycle: registration, login,
// refresh rotation, logout, password and verification flows. All persistence
// goes through the injected store; multi-entity steps run inside one
// transaction scope.
type AuthService struct {
	store  repository.Store
	issuer *token.Issuer
	cfg    *config.Config
}

func NewAuthService(store repository.Store, issuer *token.Issuer, cfg *config.Config) *AuthService {
	return &AuthService{store: store, issuer: issuer, cfg: cfg}
}

// Register creates a user with email authentication, assigns the requested or
// default role, and optionally creates a linked organization. User, role
// binding and organization are committed atomically; any failure rolls all of
// them back.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest, meta dto.SessionMeta) (*dto.AuthResponse, error) {
	const op = "registration failed"

	email := normalizeEmail(req.Email)
	var violations []string
	if email == "" || !validEmail(email) {
		violations = append(violations, "a valid email address is required")
	}
	violations = append(violations, passwordViolations(req.Password)...)
	if len(violations) > 0 {
		return nil, apperr.Validation(violations...)
	}

	roleName := req.Role
	if roleName == "" {
		roleName = s.cfg.DefaultRole
	}

	passwordHash, err := hash.Secret(req.Password)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	defer tx.Rollback()

	if existing, err := tx.Users().FindByEmail(ctx, email); err != nil {
		return nil, apperr.Internal(op, err)
	} else if existing != nil {
		return nil, apperr.E(apperr.ErrConflict, op, errors.New("email already registered"))
	}
	if req.Username != "" {
		if existing, err := tx.Users().FindByUsername(ctx, req.Username); err != nil {
			return nil, apperr.Internal(op, err)
		} else if existing != nil {
			return nil, apperr.E(apperr.ErrConflict, op, errors.New("username already taken"))
		}
	}

	role, err := tx.Roles().FindByName(ctx, roleName)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if role == nil {
		return nil, apperr.E(apperr.ErrNotFound, op, errors.New("role "+roleName+" not found"))
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Status:       models.StatusActive,
		AuthType:     models.AuthTypeEmail,
		Role:         roleName,
	}
	if req.Username != "" {
		username := req.Username
		user.Username = &username
	}

	if err := tx.Users().Create(ctx, user); err != nil {
		// A racing insert with the same email lands here via the unique index.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.E(apperr.ErrConflict, op, errors.New("email or username already registered"))
		}
		return nil, apperr.Internal(op, err)
	}

	if err := tx.Roles().AssignToUser(ctx, user.ID, role.ID); err != nil {
		return nil, apperr.Internal(op, err)
	}

	var org *models.Organization
	if roleName == models.RoleOrganization && req.Organization != nil {
		org = &models.Organization{
			ID:           uuid.New(),
			UserID:       user.ID,
			Name:         req.Organization.Name,
			Description:  req.Organization.Description,
			WebsiteURL:   req.Organization.WebsiteURL,
			ContactEmail: req.Organization.ContactEmail,
			ContactPhone: req.Organization.ContactPhone,
		}
		if err := tx.Organizations().Create(ctx, org); err != nil {
			// Rolling back removes the just-created user as well.
			return nil, apperr.Internal(op, err)
		}
	}

	pair, err := s.issueSession(ctx, tx, user, meta)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	if err := tx.Commit(); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.E(apperr.ErrConflict, op, err)
		}
		return nil, apperr.Internal(op, err)
	}

	slog.Info("user registered", "user_id", user.ID, "role", roleName)

	resp := &dto.AuthResponse{
		User:         dto.NewUserResponse(user),
		Organization: dto.NewOrganizationResponse(org),
		Tokens:       *pair,
	}
	return resp, nil
}

// Login verifies password credentials and opens a new device session.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, meta dto.SessionMeta) (*dto.AuthResponse, error) {
	const op = "login failed"

	user, err := s.store.Users().FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if user == nil || !user.CanLoginWithPassword() {
		return nil, apperr.E(apperr.ErrUnauthenticated, op, errors.New("invalid email or password"))
	}
	if user.Status != models.StatusActive {
		return nil, apperr.E(apperr.ErrForbidden, op, errors.New("account is not active"))
	}
	if !hash.Verify(req.Password, user.PasswordHash) {
		return nil, apperr.E(apperr.ErrUnauthenticated, op, errors.New("invalid email or password"))
	}

	now := time.Now()
	if err := s.store.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, apperr.Internal(op, err)
	}
	user.LastLoginAt = &now

	pair, err := s.issueSession(ctx, s.store, user, meta)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	return &dto.AuthResponse{User: dto.NewUserResponse(user), Tokens: *pair}, nil
}

// Refresh exchanges a valid refresh token for a new access/refresh pair,
// revoking the presented token. The revoke is conditional on the row not
// already being revoked, so a replayed raw token arriving concurrently is
// rejected: exactly one of the racing calls rotates.
func (s *AuthService) Refresh(ctx context.Context, rawToken string, meta dto.SessionMeta) (*dto.AuthResponse, error) {
	const op = "token refresh failed"

	if rawToken == "" {
		return nil, apperr.E(apperr.ErrUnauthenticated, op, errors.New("missing refresh token"))
	}

	matched, err := s.probeRefreshToken(ctx, rawToken)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if matched == nil {
		return nil, apperr.E(apperr.ErrUnauthenticated, op, errors.New("invalid refresh token"))
	}

	user, err := s.store.Users().FindByID(ctx, matched.UserID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if user == nil || user.Status != models.StatusActive {
		return nil, apperr.E(apperr.ErrUnauthenticated, op, errors.New("invalid refresh token"))
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	defer tx.Rollback()

	rows, err := tx.RefreshTokens().Revoke(ctx, matched.ID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if rows != 1 {
		// Already rotated by a concurrent call with the same raw token.
		return nil, apperr.E(apperr.ErrUnauthenticated, op, errors.New("invalid refresh token"))
	}

	// Keep the device metadata of the session being rotated when the caller
	// didn't supply fresh values.
	if meta.IPAddress == "" {
		meta.IPAddress = matched.IPAddress
	}
	if meta.UserAgent == "" {
		meta.UserAgent = matched.UserAgent
	}

	pair, err := s.issueSession(ctx, tx, user, meta)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(op, err)
	}

	return &dto.AuthResponse{User: dto.NewUserResponse(user), Tokens: *pair}, nil
}

// Logout revokes one session when sessionID is given, or every session of the
// user otherwise (global logout across devices).
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, sessionID *uuid.UUID) error {
	const op = "logout failed"

	if sessionID == nil {
		if err := s.store.RefreshTokens().RevokeAllForUser(ctx, userID); err != nil {
			return apperr.Internal(op, err)
		}
		return nil
	}

	session, err := s.store.RefreshTokens().FindByID(ctx, *sessionID)
	if err != nil {
		return apperr.Internal(op, err)
	}
	if session == nil || session.UserID != userID {
		return apperr.E(apperr.ErrNotFound, op, errors.New("session not found"))
	}
	if _, err := s.store.RefreshTokens().Revoke(ctx, session.ID); err != nil {
		return apperr.Internal(op, err)
	}
	return nil
}

// ChangePassword verifies the current password, sets the new one and revokes
// every session of the user in the same transaction, forcing
// re-authentication everywhere.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	const op = "password change failed"

	if violations := passwordViolations(newPassword); len(violations) > 0 {
		return apperr.Validation(violations...)
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return apperr.Internal(op, err)
	}
	if user == nil {
		return apperr.E(apperr.ErrNotFound, op, errors.New("user not found"))
	}
	if !hash.Verify(current, user.PasswordHash) {
		return apperr.E(apperr.ErrUnauthenticated, op, errors.New("current password is incorrect"))
	}

	passwordHash, err := hash.Secret(newPassword)
	if err != nil {
		return apperr.Internal(op, err)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return apperr.Internal(op, err)
	}
	defer tx.Rollback()

	if err := tx.Users().UpdatePassword(ctx, userID, passwordHash); err != nil {
		return apperr.Internal(op, err)
	}
	if err := tx.RefreshTokens().RevokeAllForUser(ctx, userID); err != nil {
		return apperr.Internal(op, err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(op, err)
	}

	slog.Info("password changed, all sessions revoked", "user_id", userID)
	return nil
}

// Me returns the sanitized current user, with the linked organization for
// organization accounts.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*dto.MeResponse, error) {
	const op = "user lookup failed"

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if user == nil {
		return nil, apperr.E(apperr.ErrUnauthenticated, op, errors.New("user not found"))
	}
	if user.Status != models.StatusActive {
		return nil, apperr.E(apperr.ErrForbidden, op, errors.New("account is not active"))
	}

	resp := &dto.MeResponse{User: dto.NewUserResponse(user)}
	if user.Role == models.RoleOrganization {
		org, err := s.store.Organizations().FindByUser(ctx, user.ID)
		if err != nil {
			return nil, apperr.Internal(op, err)
		}
		resp.Organization = dto.NewOrganizationResponse(org)
	}
	return resp, nil
}

// Sessions lists the user's live device sessions, most useful before a
// targeted logout.
func (s *AuthService) Sessions(ctx context.Context, userID uuid.UUID) ([]dto.SessionResponse, error) {
	const op = "session listing failed"

	tokens, err := s.store.RefreshTokens().FindValidByUser(ctx, userID, time.Now())
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	sessions := make([]dto.SessionResponse, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, dto.SessionResponse{
			ID:        t.ID,
			IPAddress: t.IPAddress,
			UserAgent: t.UserAgent,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}
	return sessions, nil
}

// DeleteAccount removes the user after revoking every session, in one
// transaction. Dependent rows (organization, role bindings, tokens, OAuth
// links) go with the user via the schema's cascade rules.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	const op = "account deletion failed"

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

	if err := tx.RefreshTokens().RevokeAllForUser(ctx, userID); err != nil {
		return apperr.Internal(op, err)
	}
	if err := tx.Users().Delete(ctx, userID); err != nil {
		return apperr.Internal(op, err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(op, err)
	}

	slog.Info("account deleted", "user_id", userID)
	return nil
}

// issueSession mints an access token plus an opaque refresh token and
// persists the hashed session row. Works on the live store or inside a
// transaction via the Repos interface.
func (s *AuthService) issueSession(ctx context.Context, repos repository.Repos, user *models.User, meta dto.SessionMeta) (*dto.TokenPair, error) {
	accessToken, err := s.issuer.AccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	rawRefresh, err := token.OpaqueToken()
	if err != nil {
		return nil, err
	}
	refreshHash, err := hash.Secret(rawRefresh)
	if err != nil {
		return nil, err
	}

	record := &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: refreshHash,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		ExpiresAt: time.Now().Add(s.cfg.RefreshTokenExpiry),
	}
	if err := repos.RefreshTokens().Create(ctx, record); err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.issuer.AccessTTLSeconds(),
	}, nil
}

// probeRefreshToken trial-verifies the raw token against every currently
// valid stored hash; hashes are one-way, so matching requires probing. The
// scan is bounded by the number of live sessions, first match wins.
func (s *AuthService) probeRefreshToken(ctx context.Context, rawToken string) (*models.RefreshToken, error) {
	candidates, err := s.store.RefreshTokens().FindValid(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if hash.Verify(rawToken, candidates[i].TokenHash) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}
