package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eventbook/auth-service/internal/apperr"
	"github.com/eventbook/auth-service/internal/config"
	"github.com/eventbook/auth-service/internal/dto"
	"github.com/eventbook/auth-service/internal/hash"
	"github.com/eventbook/auth-service/internal/models"
	"github.com/eventbook/auth-service/internal/repository"
	"github.com/eventbook/auth-service/internal/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTAccessExpiry:    15 * time.Minute,
		RefreshTokenExpiry: 168 * time.Hour,
		ResetTokenExpiry:   time.Hour,
		VerifyTokenExpiry:  24 * time.Hour,
		DefaultRole:        models.RoleIndividual,
	}
}

func newTestAuthService(store *mockStore) *AuthService {
	cfg := testConfig()
	return NewAuthService(store, token.NewIssuer(cfg.JWTSecret, cfg.JWTAccessExpiry), cfg)
}

func activeUser(password string) *models.User {
	u := &models.User{
		ID:       uuid.New(),
		Email:    "user@example.com",
		Status:   models.StatusActive,
		AuthType: models.AuthTypeEmail,
		Role:     models.RoleIndividual,
	}
	if password != "" {
		h, err := hash.Secret(password)
		if err != nil {
			panic(err)
		}
		u.PasswordHash = h
	}
	return u
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with default role and opens a session", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		role := &models.Role{ID: uuid.New(), Name: models.RoleIndividual}

		store.users.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, nil)
		store.roles.On("FindByName", mock.Anything, models.RoleIndividual).Return(role, nil)
		store.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
		store.roles.On("AssignToUser", mock.Anything, mock.Anything, role.ID).Return(nil)
		store.refreshTokens.On("Create", mock.Anything, mock.AnythingOfType("*models.RefreshToken")).Return(nil)

		resp, err := svc.Register(ctx, &dto.RegisterRequest{
			Email:    "New@Example.com",
			Password: "Str0ng!pass",
		}, dto.SessionMeta{IPAddress: "10.0.0.1"})

		require.NoError(t, err)
		assert.Equal(t, "new@example.com", resp.User.Email)
		assert.Equal(t, models.RoleIndividual, resp.User.Role)
		assert.Equal(t, models.AuthTypeEmail, resp.User.AuthType)
		assert.NotEmpty(t, resp.Tokens.AccessToken)
		assert.NotEmpty(t, resp.Tokens.RefreshToken)
		assert.Equal(t, "Bearer", resp.Tokens.TokenType)
		assert.True(t, store.committed)
		store.users.AssertExpectations(t)
		store.roles.AssertExpectations(t)
	})

	t.Run("collects every validation violation", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)

		_, err := svc.Register(ctx, &dto.RegisterRequest{
			Email:    "not-an-email",
			Password: "short",
		}, dto.SessionMeta{})

		require.Error(t, err)
		ve, ok := apperr.AsValidation(err)
		require.True(t, ok)
		assert.GreaterOrEqual(t, len(ve.Violations), 2)
		store.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects a strong password over the hash length limit", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)

		// 80 bytes, every character class present; must fail validation, not
		// surface as an internal hashing error.
		_, err := svc.Register(ctx, &dto.RegisterRequest{
			Email:    "long@example.com",
			Password: strings.Repeat("Aa1!", 20),
		}, dto.SessionMeta{})

		ve, ok := apperr.AsValidation(err)
		require.True(t, ok)
		assert.Equal(t, []string{"password must be at most 72 characters long"}, ve.Violations)
		store.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)

		store.users.On("FindByEmail", mock.Anything, "taken@example.com").Return(activeUser(""), nil)

		_, err := svc.Register(ctx, &dto.RegisterRequest{
			Email:    "taken@example.com",
			Password: "Str0ng!pass",
		}, dto.SessionMeta{})

		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.True(t, store.rolledBack)
	})

	t.Run("surfaces a duplicate raised at commit as a conflict", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		role := &models.Role{ID: uuid.New(), Name: models.RoleIndividual}
		store.commitErr = repository.ErrDuplicate

		store.users.On("FindByEmail", mock.Anything, "race@example.com").Return(nil, nil)
		store.roles.On("FindByName", mock.Anything, models.RoleIndividual).Return(role, nil)
		store.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
		store.roles.On("AssignToUser", mock.Anything, mock.Anything, role.ID).Return(nil)
		store.refreshTokens.On("Create", mock.Anything, mock.AnythingOfType("*models.RefreshToken")).Return(nil)

		_, err := svc.Register(ctx, &dto.RegisterRequest{
			Email:    "race@example.com",
			Password: "Str0ng!pass",
		}, dto.SessionMeta{})

		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("creates organization atomically for organization role", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		role := &models.Role{ID: uuid.New(), Name: models.RoleOrganization}

		store.users.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil)
		store.roles.On("FindByName", mock.Anything, models.RoleOrganization).Return(role, nil)
		store.users.On("Create", mock.Anything, mock.Anything).Return(nil)
		store.roles.On("AssignToUser", mock.Anything, mock.Anything, role.ID).Return(nil)
		store.organizations.On("Create", mock.Anything, mock.AnythingOfType("*models.Organization")).Return(nil)
		store.refreshTokens.On("Create", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.Register(ctx, &dto.RegisterRequest{
			Email:        "org@example.com",
			Password:     "Str0ng!pass",
			Role:         models.RoleOrganization,
			Organization: &dto.OrganizationRequest{Name: "Acme Events"},
		}, dto.SessionMeta{})

		require.NoError(t, err)
		require.NotNil(t, resp.Organization)
		assert.Equal(t, "Acme Events", resp.Organization.Name)
		store.organizations.AssertExpectations(t)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)

		store.users.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil)
		store.roles.On("FindByName", mock.Anything, "superuser").Return(nil, nil)

		_, err := svc.Register(ctx, &dto.RegisterRequest{
			Email:    "x@example.com",
			Password: "Str0ng!pass",
			Role:     "superuser",
		}, dto.SessionMeta{})

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("verifies password and opens a session", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("Str0ng!pass")

		store.users.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
		store.users.On("UpdateLastLogin", mock.Anything, user.ID, mock.Anything).Return(nil)
		store.refreshTokens.On("Create", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "Str0ng!pass"}, dto.SessionMeta{})

		require.NoError(t, err)
		assert.Equal(t, user.ID, resp.User.ID)
		assert.NotEmpty(t, resp.Tokens.RefreshToken)
		assert.NotNil(t, resp.User.LastLoginAt)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("Str0ng!pass")

		store.users.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "wrong"}, dto.SessionMeta{})
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("rejects unknown email with the same error", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)

		store.users.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "Str0ng!pass"}, dto.SessionMeta{})
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("rejects oauth-only account", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("")
		user.AuthType = models.AuthTypeOAuth

		store.users.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "whatever"}, dto.SessionMeta{})
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("rejects suspended account", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("Str0ng!pass")
		user.Status = models.StatusSuspended

		store.users.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)

		_, err := svc.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "Str0ng!pass"}, dto.SessionMeta{})
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	validSession := func(t *testing.T, userID uuid.UUID, raw string) models.RefreshToken {
		t.Helper()
		h, err := hash.Secret(raw)
		require.NoError(t, err)
		return models.RefreshToken{
			ID:        uuid.New(),
			UserID:    userID,
			TokenHash: h,
			IPAddress: "10.0.0.9",
			UserAgent: "cli/1.0",
			ExpiresAt: time.Now().Add(time.Hour),
		}
	}

	t.Run("rotates the presented token", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("Str0ng!pass")
		session := validSession(t, user.ID, "raw-refresh-token")

		var created *models.RefreshToken
		store.refreshTokens.On("FindValid", mock.Anything, mock.Anything).Return([]models.RefreshToken{session}, nil)
		store.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.refreshTokens.On("Revoke", mock.Anything, session.ID).Return(int64(1), nil)
		store.refreshTokens.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.RefreshToken)
		}).Return(nil)

		resp, err := svc.Refresh(ctx, "raw-refresh-token", dto.SessionMeta{})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Tokens.RefreshToken)
		assert.NotEqual(t, "raw-refresh-token", resp.Tokens.RefreshToken)
		assert.True(t, store.committed)
		// The rotated session inherits the old device metadata when the
		// caller supplies none.
		require.NotNil(t, created)
		assert.Equal(t, "10.0.0.9", created.IPAddress)
		assert.Equal(t, "cli/1.0", created.UserAgent)
	})

	t.Run("rejects a replayed token", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("Str0ng!pass")
		session := validSession(t, user.ID, "raw-refresh-token")

		store.refreshTokens.On("FindValid", mock.Anything, mock.Anything).Return([]models.RefreshToken{session}, nil)
		store.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		// A concurrent rotation already flipped is_revoked.
		store.refreshTokens.On("Revoke", mock.Anything, session.ID).Return(int64(0), nil)

		_, err := svc.Refresh(ctx, "raw-refresh-token", dto.SessionMeta{})

		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
		assert.True(t, store.rolledBack)
		store.refreshTokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects a token that matches nothing", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		session := validSession(t, uuid.New(), "some-other-token")

		store.refreshTokens.On("FindValid", mock.Anything, mock.Anything).Return([]models.RefreshToken{session}, nil)

		_, err := svc.Refresh(ctx, "raw-refresh-token", dto.SessionMeta{})
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("rejects a suspended user's token", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("Str0ng!pass")
		user.Status = models.StatusSuspended
		session := validSession(t, user.ID, "raw-refresh-token")

		store.refreshTokens.On("FindValid", mock.Anything, mock.Anything).Return([]models.RefreshToken{session}, nil)
		store.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		_, err := svc.Refresh(ctx, "raw-refresh-token", dto.SessionMeta{})
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("rejects an empty token", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)

		_, err := svc.Refresh(ctx, "", dto.SessionMeta{})
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes a single session", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		userID := uuid.New()
		session := &models.RefreshToken{ID: uuid.New(), UserID: userID}

		store.refreshTokens.On("FindByID", mock.Anything, session.ID).Return(session, nil)
		store.refreshTokens.On("Revoke", mock.Anything, session.ID).Return(int64(1), nil)

		err := svc.Logout(ctx, userID, &session.ID)
		require.NoError(t, err)
		store.refreshTokens.AssertExpectations(t)
	})

	t.Run("refuses another user's session", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		session := &models.RefreshToken{ID: uuid.New(), UserID: uuid.New()}

		store.refreshTokens.On("FindByID", mock.Anything, session.ID).Return(session, nil)

		err := svc.Logout(ctx, uuid.New(), &session.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		store.refreshTokens.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
	})

	t.Run("revokes every session without a session id", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		userID := uuid.New()

		store.refreshTokens.On("RevokeAllForUser", mock.Anything, userID).Return(nil)

		err := svc.Logout(ctx, userID, nil)
		require.NoError(t, err)
		store.refreshTokens.AssertExpectations(t)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("updates the hash and revokes every session", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("OldStr0ng!pass")

		store.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.users.On("UpdatePassword", mock.Anything, user.ID, mock.Anything).Return(nil)
		store.refreshTokens.On("RevokeAllForUser", mock.Anything, user.ID).Return(nil)

		err := svc.ChangePassword(ctx, user.ID, "OldStr0ng!pass", "NewStr0ng!pass")
		require.NoError(t, err)
		assert.True(t, store.committed)
		store.refreshTokens.AssertExpectations(t)
	})

	t.Run("rejects a wrong current password", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("OldStr0ng!pass")

		store.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		err := svc.ChangePassword(ctx, user.ID, "wrong", "NewStr0ng!pass")
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
		store.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a weak new password before touching the store", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)

		err := svc.ChangePassword(ctx, uuid.New(), "OldStr0ng!pass", "weak")
		_, ok := apperr.AsValidation(err)
		assert.True(t, ok)
		store.users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestMe(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the sanitized user", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("Str0ng!pass")

		store.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		resp, err := svc.Me(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, resp.User.Email)
		assert.Nil(t, resp.Organization)
		store.organizations.AssertNotCalled(t, "FindByUser", mock.Anything, mock.Anything)
	})

	t.Run("includes the organization for organization accounts", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("Str0ng!pass")
		user.Role = models.RoleOrganization
		org := &models.Organization{ID: uuid.New(), UserID: user.ID, Name: "Acme Events"}

		store.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.organizations.On("FindByUser", mock.Anything, user.ID).Return(org, nil)

		resp, err := svc.Me(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, resp.Organization)
		assert.Equal(t, org.Name, resp.Organization.Name)
	})

	t.Run("rejects an inactive account", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("Str0ng!pass")
		user.Status = models.StatusDeleted

		store.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		_, err := svc.Me(ctx, user.ID)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})
}

func TestSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("lists live sessions without token material", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("Str0ng!pass")
		now := time.Now()
		tokens := []models.RefreshToken{
			{ID: uuid.New(), UserID: user.ID, TokenHash: "hash-a", IPAddress: "10.0.0.1", UserAgent: "cli", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
			{ID: uuid.New(), UserID: user.ID, TokenHash: "hash-b", IPAddress: "10.0.0.2", UserAgent: "web", CreatedAt: now, ExpiresAt: now.Add(2 * time.Hour)},
		}

		store.refreshTokens.On("FindValidByUser", mock.Anything, user.ID, mock.AnythingOfType("time.Time")).
			Return(tokens, nil)

		sessions, err := svc.Sessions(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, tokens[0].ID, sessions[0].ID)
		assert.Equal(t, "10.0.0.2", sessions[1].IPAddress)
	})

	t.Run("returns an empty list when no session is live", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		userID := uuid.New()

		store.refreshTokens.On("FindValidByUser", mock.Anything, userID, mock.AnythingOfType("time.Time")).
			Return([]models.RefreshToken{}, nil)

		sessions, err := svc.Sessions(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes sessions and deletes the user atomically", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("Str0ng!pass")

		store.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.refreshTokens.On("RevokeAllForUser", mock.Anything, user.ID).Return(nil)
		store.users.On("Delete", mock.Anything, user.ID).Return(nil)

		err := svc.DeleteAccount(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, store.committed)
		store.users.AssertCalled(t, "Delete", mock.Anything, user.ID)
	})

	t.Run("returns not-found for an unknown user", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		userID := uuid.New()

		store.users.On("FindByID", mock.Anything, userID).Return(nil, nil)

		err := svc.DeleteAccount(ctx, userID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		store.users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("rolls back when the delete fails", func(t *testing.T) {
		store := newMockStore()
		svc := newTestAuthService(store)
		user := activeUser("Str0ng!pass")

		store.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		store.refreshTokens.On("RevokeAllForUser", mock.Anything, user.ID).Return(nil)
		store.users.On("Delete", mock.Anything, user.ID).Return(errors.New("connection reset"))

		err := svc.DeleteAccount(ctx, user.ID)
		assert.ErrorIs(t, err, apperr.ErrInternal)
		assert.True(t, store.rolledBack)
		assert.False(t, store.committed)
	})
}
