package gormstore

import (
	"context"
	"errors"

	"github.com/eventbook/auth-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type roleRepo struct {
	db *gorm.DB
}

func (r *roleRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).First(&role, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Find(&roles).Error
	return roles, err
}

func (r *roleRepo) Create(ctx context.Context, role *models.Role) error {
	return translate(r.db.WithContext(ctx).Create(role).Error)
}

func (r *roleRepo) AssignToUser(ctx context.Context, userID, roleID uuid.UUID) error {
	binding := models.UserRole{ID: uuid.New(), UserID: userID, RoleID: roleID}
	return translate(r.db.WithContext(ctx).Create(&binding).Error)
}

func (r *roleRepo) RemoveFromUser(ctx context.Context, userID, roleID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.UserRole{})
	return res.RowsAffected, res.Error
}

type permissionRepo struct {
	db *gorm.DB
}

func (r *permissionRepo) Create(ctx context.Context, permission *models.Permission) error {
	return translate(r.db.WithContext(ctx).Create(permission).Error)
}

func (r *permissionRepo) FindByName(ctx context.Context, name string) (*models.Permission, error) {
	var permission models.Permission
	err := r.db.WithContext(ctx).First(&permission, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &permission, nil
}

func (r *permissionRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Permission, error) {
	var permissions []models.Permission
	err := r.db.WithContext(ctx).Model(&models.Permission{}).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID).
		Find(&permissions).Error
	return permissions, err
}

func (r *permissionRepo) AssignToRole(ctx context.Context, roleID, permissionID uuid.UUID) error {
	binding := models.RolePermission{ID: uuid.New(), RoleID: roleID, PermissionID: permissionID}
	return translate(r.db.WithContext(ctx).Create(&binding).Error)
}
