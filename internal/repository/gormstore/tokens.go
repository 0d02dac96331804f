package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/eventbook/auth-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type refreshTokenRepo struct {
	db *gorm.DB
}

func (r *refreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	return translate(r.db.WithContext(ctx).Create(token).Error)
}

func (r *refreshTokenRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).First(&token, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepo) FindValid(ctx context.Context, now time.Time) ([]models.RefreshToken, error) {
	var tokens []models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("is_revoked = false AND expires_at > ?", now).
		Find(&tokens).Error
	return tokens, err
}

func (r *refreshTokenRepo) FindValidByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.RefreshToken, error) {
	var tokens []models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_revoked = false AND expires_at > ?", userID, now).
		Find(&tokens).Error
	return tokens, err
}

// Revoke is conditional on the row not being revoked yet, so of two racing
// refresh calls only one observes RowsAffected == 1.
func (r *refreshTokenRepo) Revoke(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ? AND is_revoked = false", id).
		Update("is_revoked", true)
	return res.RowsAffected, res.Error
}

func (r *refreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_revoked = false", userID).
		Update("is_revoked", true).Error
}

func (r *refreshTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

type actionTokenRepo struct {
	db *gorm.DB
}

func (r *actionTokenRepo) CreatePasswordReset(ctx context.Context, token *models.PasswordResetToken) error {
	return translate(r.db.WithContext(ctx).Create(token).Error)
}

func (r *actionTokenRepo) FindValidPasswordResets(ctx context.Context, now time.Time) ([]models.PasswordResetToken, error) {
	var tokens []models.PasswordResetToken
	err := r.db.WithContext(ctx).
		Where("is_used = false AND expires_at > ?", now).
		Find(&tokens).Error
	return tokens, err
}

func (r *actionTokenRepo) MarkPasswordResetUsed(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.PasswordResetToken{}).
		Where("id = ? AND is_used = false", id).
		Update("is_used", true)
	return res.RowsAffected, res.Error
}

func (r *actionTokenRepo) CreateEmailVerification(ctx context.Context, token *models.EmailVerificationToken) error {
	return translate(r.db.WithContext(ctx).Create(token).Error)
}

func (r *actionTokenRepo) FindValidEmailVerifications(ctx context.Context, now time.Time) ([]models.EmailVerificationToken, error) {
	var tokens []models.EmailVerificationToken
	err := r.db.WithContext(ctx).
		Where("is_used = false AND expires_at > ?", now).
		Find(&tokens).Error
	return tokens, err
}

func (r *actionTokenRepo) MarkEmailVerificationUsed(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.EmailVerificationToken{}).
		Where("id = ? AND is_used = false", id).
		Update("is_used", true)
	return res.RowsAffected, res.Error
}

func (r *actionTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.PasswordResetToken{})
	if res.Error != nil {
		return total, res.Error
	}
	total += res.RowsAffected

	res = r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.EmailVerificationToken{})
	if res.Error != nil {
		return total, res.Error
	}
	total += res.RowsAffected
	return total, nil
}
