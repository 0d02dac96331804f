package services

import (
	"context"
	"time"

	"github.com/eventbook/auth-service/internal/models"
	"github.com/eventbook/auth-service/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *mockUserRepo) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockOrganizationRepo struct{ mock.Mock }

func (m *mockOrganizationRepo) Create(ctx context.Context, org *models.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *mockOrganizationRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, userID)
	org, _ := args.Get(0).(*models.Organization)
	return org, args.Error(1)
}

type mockOAuthAccountRepo struct{ mock.Mock }

func (m *mockOAuthAccountRepo) Create(ctx context.Context, account *models.OAuthAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *mockOAuthAccountRepo) FindByProvider(ctx context.Context, provider, providerUserID string) (*models.OAuthAccount, error) {
	args := m.Called(ctx, provider, providerUserID)
	account, _ := args.Get(0).(*models.OAuthAccount)
	return account, args.Error(1)
}

func (m *mockOAuthAccountRepo) FindByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*models.OAuthAccount, error) {
	args := m.Called(ctx, userID, provider)
	account, _ := args.Get(0).(*models.OAuthAccount)
	return account, args.Error(1)
}

func (m *mockOAuthAccountRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.OAuthAccount, error) {
	args := m.Called(ctx, userID)
	accounts, _ := args.Get(0).([]models.OAuthAccount)
	return accounts, args.Error(1)
}

func (m *mockOAuthAccountRepo) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error {
	return m.Called(ctx, id, accessToken, refreshToken, expiresAt).Error(0)
}

func (m *mockOAuthAccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockRoleRepo struct{ mock.Mock }

func (m *mockRoleRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	args := m.Called(ctx, id)
	role, _ := args.Get(0).(*models.Role)
	return role, args.Error(1)
}

func (m *mockRoleRepo) FindByName(ctx context.Context, name string) (*models.Role, error) {
	args := m.Called(ctx, name)
	role, _ := args.Get(0).(*models.Role)
	return role, args.Error(1)
}

func (m *mockRoleRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Role, error) {
	args := m.Called(ctx, userID)
	roles, _ := args.Get(0).([]models.Role)
	return roles, args.Error(1)
}

func (m *mockRoleRepo) Create(ctx context.Context, role *models.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *mockRoleRepo) AssignToUser(ctx context.Context, userID, roleID uuid.UUID) error {
	return m.Called(ctx, userID, roleID).Error(0)
}

func (m *mockRoleRepo) RemoveFromUser(ctx context.Context, userID, roleID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, roleID)
	return args.Get(0).(int64), args.Error(1)
}

type mockPermissionRepo struct{ mock.Mock }

func (m *mockPermissionRepo) Create(ctx context.Context, permission *models.Permission) error {
	return m.Called(ctx, permission).Error(0)
}

func (m *mockPermissionRepo) FindByName(ctx context.Context, name string) (*models.Permission, error) {
	args := m.Called(ctx, name)
	permission, _ := args.Get(0).(*models.Permission)
	return permission, args.Error(1)
}

func (m *mockPermissionRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Permission, error) {
	args := m.Called(ctx, userID)
	permissions, _ := args.Get(0).([]models.Permission)
	return permissions, args.Error(1)
}

func (m *mockPermissionRepo) AssignToRole(ctx context.Context, roleID, permissionID uuid.UUID) error {
	return m.Called(ctx, roleID, permissionID).Error(0)
}

type mockRefreshTokenRepo struct{ mock.Mock }

func (m *mockRefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockRefreshTokenRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.RefreshToken, error) {
	args := m.Called(ctx, id)
	token, _ := args.Get(0).(*models.RefreshToken)
	return token, args.Error(1)
}

func (m *mockRefreshTokenRepo) FindValid(ctx context.Context, now time.Time) ([]models.RefreshToken, error) {
	args := m.Called(ctx, now)
	tokens, _ := args.Get(0).([]models.RefreshToken)
	return tokens, args.Error(1)
}

func (m *mockRefreshTokenRepo) FindValidByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.RefreshToken, error) {
	args := m.Called(ctx, userID, now)
	tokens, _ := args.Get(0).([]models.RefreshToken)
	return tokens, args.Error(1)
}

func (m *mockRefreshTokenRepo) Revoke(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockRefreshTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockActionTokenRepo struct{ mock.Mock }

func (m *mockActionTokenRepo) CreatePasswordReset(ctx context.Context, token *models.PasswordResetToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockActionTokenRepo) FindValidPasswordResets(ctx context.Context, now time.Time) ([]models.PasswordResetToken, error) {
	args := m.Called(ctx, now)
	tokens, _ := args.Get(0).([]models.PasswordResetToken)
	return tokens, args.Error(1)
}

func (m *mockActionTokenRepo) MarkPasswordResetUsed(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockActionTokenRepo) CreateEmailVerification(ctx context.Context, token *models.EmailVerificationToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockActionTokenRepo) FindValidEmailVerifications(ctx context.Context, now time.Time) ([]models.EmailVerificationToken, error) {
	args := m.Called(ctx, now)
	tokens, _ := args.Get(0).([]models.EmailVerificationToken)
	return tokens, args.Error(1)
}

func (m *mockActionTokenRepo) MarkEmailVerificationUsed(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockActionTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// mockStore implements repository.Store over the individual mocks. Begin hands
// back a transaction view over the same mocks and records whether the test
// path committed or rolled back.
type mockStore struct {
	users         *mockUserRepo
	organizations *mockOrganizationRepo
	oauthAccounts *mockOAuthAccountRepo
	roles         *mockRoleRepo
	permissions   *mockPermissionRepo
	refreshTokens *mockRefreshTokenRepo
	actionTokens  *mockActionTokenRepo

	beginErr   error
	commitErr  error
	committed  bool
	rolledBack bool
}

func newMockStore() *mockStore {
	return &mockStore{
		users:         new(mockUserRepo),
		organizations: new(mockOrganizationRepo),
		oauthAccounts: new(mockOAuthAccountRepo),
		roles:         new(mockRoleRepo),
		permissions:   new(mockPermissionRepo),
		refreshTokens: new(mockRefreshTokenRepo),
		actionTokens:  new(mockActionTokenRepo),
	}
}

func (m *mockStore) Users() repository.UserRepository                 { return m.users }
func (m *mockStore) Organizations() repository.OrganizationRepository { return m.organizations }
func (m *mockStore) OAuthAccounts() repository.OAuthAccountRepository { return m.oauthAccounts }
func (m *mockStore) Roles() repository.RoleRepository                 { return m.roles }
func (m *mockStore) Permissions() repository.PermissionRepository     { return m.permissions }
func (m *mockStore) RefreshTokens() repository.RefreshTokenRepository { return m.refreshTokens }
func (m *mockStore) ActionTokens() repository.ActionTokenRepository   { return m.actionTokens }

func (m *mockStore) Begin(ctx context.Context) (repository.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &mockTx{store: m}, nil
}

type mockTx struct {
	store *mockStore
}

func (t *mockTx) Users() repository.UserRepository                 { return t.store.users }
func (t *mockTx) Organizations() repository.OrganizationRepository { return t.store.organizations }
func (t *mockTx) OAuthAccounts() repository.OAuthAccountRepository { return t.store.oauthAccounts }
func (t *mockTx) Roles() repository.RoleRepository                 { return t.store.roles }
func (t *mockTx) Permissions() repository.PermissionRepository     { return t.store.permissions }
func (t *mockTx) RefreshTokens() repository.RefreshTokenRepository { return t.store.refreshTokens }
func (t *mockTx) ActionTokens() repository.ActionTokenRepository   { return t.store.actionTokens }

func (t *mockTx) Commit() error {
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.store.committed = true
	return nil
}

func (t *mockTx) Rollback() error {
	if !t.store.committed {
		t.store.rolledBack = true
	}
	return nil
}
