// Package database owns the Postgres connection, schema migration and the
// default role/permission seed.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eventbook/auth-service/internal/config"
	"github.com/eventbook/auth-service/internal/models"
	"github.com/eventbook/auth-service/internal/repository"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return db, nil
}

// Migrate runs AutoMigrate for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.Role{},
		&models.Permission{},
		&models.UserRole{},
		&models.RolePermission{},
		&models.RefreshToken{},
		&models.PasswordResetToken{},
		&models.EmailVerificationToken{},
		&models.OAuthAccount{},
		&models.SystemLog{},
	)
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

var defaultRoles = []models.Role{
	{Name: models.RoleAdmin, Description: "System administrator with full access"},
	{Name: models.RoleOrganization, Description: "Event organization with event management permissions"},
	{Name: models.RoleIndividual, Description: "Individual user with booking permissions"},
}

var seedResources = []string{"users", "organizations", "bookings", "events", "payments"}
var seedActions = []string{"read", "create", "update", "delete"}

// SeedDefaults inserts the default roles, the resource/action permission grid
// and the role-permission grants through the credential store, in one
// transaction. Idempotent: rows are matched by name, repeat grants surface as
// ErrDuplicate and are skipped.
func SeedDefaults(ctx context.Context, store repository.Store) error {
	tx, err := store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	roles := make(map[string]*models.Role, len(defaultRoles))
	for _, seed := range defaultRoles {
		role, err := tx.Roles().FindByName(ctx, seed.Name)
		if err != nil {
			return fmt.Errorf("failed to seed role %s: %w", seed.Name, err)
		}
		if role == nil {
			role = &models.Role{ID: uuid.New(), Name: seed.Name, Description: seed.Description}
			if err := tx.Roles().Create(ctx, role); err != nil {
				return fmt.Errorf("failed to seed role %s: %w", seed.Name, err)
			}
		}
		roles[seed.Name] = role
	}

	permissions := make([]models.Permission, 0, len(seedResources)*len(seedActions))
	for _, resource := range seedResources {
		for _, action := range seedActions {
			name := resource + "." + action
			perm, err := tx.Permissions().FindByName(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to seed permission %s: %w", name, err)
			}
			if perm == nil {
				perm = &models.Permission{
					ID:          uuid.New(),
					Name:        name,
					Description: action + " " + resource,
					Resource:    resource,
					Action:      action,
				}
				if err := tx.Permissions().Create(ctx, perm); err != nil {
					return fmt.Errorf("failed to seed permission %s: %w", name, err)
				}
			}
			permissions = append(permissions, *perm)
		}
	}

	grant := func(role *models.Role, match func(models.Permission) bool) error {
		for _, perm := range permissions {
			if !match(perm) {
				continue
			}
			err := tx.Permissions().AssignToRole(ctx, role.ID, perm.ID)
			if err != nil && !errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("failed to grant %s to %s: %w", perm.Name, role.Name, err)
			}
		}
		return nil
	}

	if err := grant(roles[models.RoleAdmin], func(models.Permission) bool { return true }); err != nil {
		return err
	}
	if err := grant(roles[models.RoleOrganization], func(p models.Permission) bool {
		return p.Resource == "events" || p.Resource == "bookings" || p.Resource == "organizations" ||
			(p.Resource == "users" && p.Action == "read")
	}); err != nil {
		return err
	}
	if err := grant(roles[models.RoleIndividual], func(p models.Permission) bool {
		return p.Resource == "bookings" || p.Resource == "payments" ||
			(p.Resource == "users" && p.Action == "read")
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("default roles and permissions seeded",
		"roles", len(roles), "permissions", len(permissions))
	return nil
}
