package gormstore

import (
	"context"
	"errors"

	"github.com/eventbook/auth-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type organizationRepo struct {
	db *gorm.DB
}

func (r *organizationRepo) Create(ctx context.Context, org *models.Organization) error {
	return translate(r.db.WithContext(ctx).Create(org).Error)
}

func (r *organizationRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).First(&org, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}
