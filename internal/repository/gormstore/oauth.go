package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/eventbook/auth-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type oauthAccountRepo struct {
	db *gorm.DB
}

func (r *oauthAccountRepo) Create(ctx context.Context, account *models.OAuthAccount) error {
	return translate(r.db.WithContext(ctx).Create(account).Error)
}

func (r *oauthAccountRepo) FindByProvider(ctx context.Context, provider, providerUserID string) (*models.OAuthAccount, error) {
	var account models.OAuthAccount
	err := r.db.WithContext(ctx).
		First(&account, "provider = ? AND provider_user_id = ?", provider, providerUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *oauthAccountRepo) FindByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*models.OAuthAccount, error) {
	var account models.OAuthAccount
	err := r.db.WithContext(ctx).
		First(&account, "user_id = ? AND provider = ?", userID, provider).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *oauthAccountRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.OAuthAccount, error) {
	var accounts []models.OAuthAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&accounts).Error
	return accounts, err
}

func (r *oauthAccountRepo) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&models.OAuthAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_at":    expiresAt,
		}).Error
}

func (r *oauthAccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.OAuthAccount{}, "id = ?", id).Error
}
