// Package gormstore implements the credential-store interfaces on GORM/PostgreSQL.
package gormstore

import (
	"context"
	"errors"

	"github.com/eventbook/auth-service/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// translate maps driver errors to the store taxonomy. Unique-constraint hits
// become ErrDuplicate so racing inserts surface as conflicts.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicate
	}
	return err
}

type repos struct {
	users         *userRepo
	organizations *organizationRepo
	oauthAccounts *oauthAccountRepo
	roles         *roleRepo
	permissions   *permissionRepo
	refreshTokens *refreshTokenRepo
	actionTokens  *actionTokenRepo
}

func newRepos(db *gorm.DB) repos {
	return repos{
		users:         &userRepo{db: db},
		organizations: &organizationRepo{db: db},
		oauthAccounts: &oauthAccountRepo{db: db},
		roles:         &roleRepo{db: db},
		permissions:   &permissionRepo{db: db},
		refreshTokens: &refreshTokenRepo{db: db},
		actionTokens:  &actionTokenRepo{db: db},
	}
}

func (r repos) Users() repository.UserRepository                 { return r.users }
func (r repos) Organizations() repository.OrganizationRepository { return r.organizations }
func (r repos) OAuthAccounts() repository.OAuthAccountRepository { return r.oauthAccounts }
func (r repos) Roles() repository.RoleRepository                 { return r.roles }
func (r repos) Permissions() repository.PermissionRepository     { return r.permissions }
func (r repos) RefreshTokens() repository.RefreshTokenRepository { return r.refreshTokens }
func (r repos) ActionTokens() repository.ActionTokenRepository   { return r.actionTokens }

// Store is the GORM-backed credential store.
type Store struct {
	repos
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{repos: newRepos(db), db: db}
}

// Begin opens a transaction bound to ctx; cancelling the context aborts it
// with no partial writes observable.
func (s *Store) Begin(ctx context.Context) (repository.Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &storeTx{repos: newRepos(tx), tx: tx}, nil
}

type storeTx struct {
	repos
	tx *gorm.DB
}

// Commit runs the driver error through translate: with deferred constraints a
// unique violation can surface only here, and it must still read as ErrDuplicate.
func (t *storeTx) Commit() error {
	return translate(t.tx.Commit().Error)
}

func (t *storeTx) Rollback() error {
	return t.tx.Rollback().Error
}
