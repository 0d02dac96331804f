package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eventbook/auth-service/internal/apperr"
	"github.com/eventbook/auth-service/internal/dto"
	"github.com/eventbook/auth-service/internal/hash"
	"github.com/eventbook/auth-service/internal/models"
	"github.com/eventbook/auth-service/internal/token"
	"github.com/google/uuid"
)

const resetGenericMessage = "If the email exists, a password reset link has been sent"

// ForgotPassword issues a single-use reset token when the email is known. The
// returned message is identical either way so callers cannot enumerate
// accounts; the raw token is handed back for the gateway's mailer and is
// never persisted or logged.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (message, rawToken string, err error) {
	const op = "password reset request failed"

	user, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", "", apperr.Internal(op, err)
	}
	if user == nil {
		return resetGenericMessage, "", nil
	}

	raw, err := token.OpaqueToken()
	if err != nil {
		return "", "", apperr.Internal(op, err)
	}
	tokenHash, err := hash.Secret(raw)
	if err != nil {
		return "", "", apperr.Internal(op, err)
	}

	record := &models.PasswordResetToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.cfg.ResetTokenExpiry),
	}
	if err := s.store.ActionTokens().CreatePasswordReset(ctx, record); err != nil {
		return "", "", apperr.Internal(op, err)
	}

	return resetGenericMessage, raw, nil
}

// ResetPassword consumes a reset token: the single-use mark, the password
// update and the global session revocation commit together. Probe failures
// collapse to one generic error regardless of cause.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	const op = "password reset failed"

	if violations := passwordViolations(newPassword); len(violations) > 0 {
		return apperr.Validation(violations...)
	}

	matched, err := s.probePasswordReset(ctx, rawToken)
	if err != nil {
		return apperr.Internal(op, err)
	}
	if matched == nil {
		return apperr.E(apperr.ErrUnauthenticated, op, errors.New("invalid or expired reset token"))
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

	rows, err := tx.ActionTokens().MarkPasswordResetUsed(ctx, matched.ID)
	if err != nil {
		return apperr.Internal(op, err)
	}
	if rows != 1 {
		return apperr.E(apperr.ErrUnauthenticated, op, errors.New("invalid or expired reset token"))
	}
	if err := tx.Users().UpdatePassword(ctx, matched.UserID, passwordHash); err != nil {
		return apperr.Internal(op, err)
	}
	if err := tx.RefreshTokens().RevokeAllForUser(ctx, matched.UserID); err != nil {
		return apperr.Internal(op, err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(op, err)
	}

	slog.Info("password reset, all sessions revoked", "user_id", matched.UserID)
	return nil
}

// SendVerificationEmail issues a single-use email-verification token.
func (s *AuthService) SendVerificationEmail(ctx context.Context, email string) (rawToken string, err error) {
	const op = "verification request failed"

	user, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", apperr.Internal(op, err)
	}
	if user == nil {
		return "", apperr.E(apperr.ErrNotFound, op, errors.New("user not found"))
	}
	if user.IsVerified {
		return "", apperr.E(apperr.ErrConflict, op, errors.New("email is already verified"))
	}

	raw, err := token.OpaqueToken()
	if err != nil {
		return "", apperr.Internal(op, err)
	}
	tokenHash, err := hash.Secret(raw)
	if err != nil {
		return "", apperr.Internal(op, err)
	}

	record := &models.EmailVerificationToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.cfg.VerifyTokenExpiry),
	}
	if err := s.store.ActionTokens().CreateEmailVerification(ctx, record); err != nil {
		return "", apperr.Internal(op, err)
	}
	return raw, nil
}

// VerifyEmail consumes a verification token and marks the user verified.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) (*dto.UserResponse, error) {
	const op = "email verification failed"

	matched, err := s.probeEmailVerification(ctx, rawToken)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if matched == nil {
		return nil, apperr.E(apperr.ErrUnauthenticated, op, errors.New("invalid or expired verification token"))
	}

	now := time.Now()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	defer tx.Rollback()

	rows, err := tx.ActionTokens().MarkEmailVerificationUsed(ctx, matched.ID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if rows != 1 {
		return nil, apperr.E(apperr.ErrUnauthenticated, op, errors.New("invalid or expired verification token"))
	}
	if err := tx.Users().MarkVerified(ctx, matched.UserID, now); err != nil {
		return nil, apperr.Internal(op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(op, err)
	}

	user, err := s.store.Users().FindByID(ctx, matched.UserID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if user == nil {
		return nil, apperr.E(apperr.ErrNotFound, op, errors.New("user not found"))
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// CleanupExpiredTokens bulk-deletes expired refresh, reset and verification
// rows. Idempotent and safe to run concurrently with live traffic.
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	now := time.Now()
	var total int64

	n, err := s.store.RefreshTokens().DeleteExpired(ctx, now)
	if err != nil {
		return total, apperr.Internal("token cleanup failed", err)
	}
	total += n

	n, err = s.store.ActionTokens().DeleteExpired(ctx, now)
	if err != nil {
		return total, apperr.Internal("token cleanup failed", err)
	}
	total += n

	return total, nil
}

func (s *AuthService) probePasswordReset(ctx context.Context, rawToken string) (*models.PasswordResetToken, error) {
	if rawToken == "" {
		return nil, nil
	}
	candidates, err := s.store.ActionTokens().FindValidPasswordResets(ctx, time.Now())
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

func (s *AuthService) probeEmailVerification(ctx context.Context, rawToken string) (*models.EmailVerificationToken, error) {
	if rawToken == "" {
		return nil, nil
	}
	candidates, err := s.store.ActionTokens().FindValidEmailVerifications(ctx, time.Now())
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
