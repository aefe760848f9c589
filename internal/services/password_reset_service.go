package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"miniblog/internal/logger"
	"miniblog/internal/models"
	"miniblog/internal/repositories"
	"miniblog/pkg/apperrors"

	"go.uber.org/zap"
)

const resetSubject = "Password Reset Request"

// PasswordResetService runs the forgotten-password flow: mail a token, then
// accept it together with a new password.
type PasswordResetService struct {
	users     repositories.UserRepository
	auth      *AuthService
	tokens    *ResetTokenService
	mailer    Mailer
	publicURL string
	ttl       time.Duration
}

// NewPasswordResetService creates a new PasswordResetService. Links in the
// email are built from publicURL.
func NewPasswordResetService(users repositories.UserRepository, auth *AuthService, tokens *ResetTokenService, mailer Mailer, publicURL string, ttl time.Duration) *PasswordResetService {
	return &PasswordResetService{
		users:     users,
		auth:      auth,
		tokens:    tokens,
		mailer:    mailer,
		publicURL: strings.TrimRight(publicURL, "/"),
		ttl:       ttl,
	}
}

// RequestReset mails a reset link to the account registered under email.
// An unknown email is not an error and sends nothing.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := s.tokens.Issue(user.ID, s.ttl)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	if err := s.mailer.Send(ctx, user.Email, resetSubject, s.resetBody(token)); err != nil {
		logger.Error("reset email not sent", zap.Uint("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", apperrors.ErrMailDelivery, err)
	}
	return nil
}

// CheckToken returns the user a token was issued for.
func (s *PasswordResetService) CheckToken(ctx context.Context, token string) (*models.User, error) {
	userID, ok := s.tokens.Verify(token)
	if !ok {
		return nil, apperrors.ErrTokenInvalid
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, err
	}
	return user, nil
}

// ResetPassword sets newPassword for the token's user.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) (*models.User, error) {
	user, err := s.CheckToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.auth.SetPassword(ctx, user.ID, newPassword); err != nil {
		return nil, err
	}

	logger.Info("password reset", zap.Uint("user_id", user.ID))
	return user, nil
}

func (s *PasswordResetService) resetBody(token string) string {
	return fmt.Sprintf(`To reset your password visit the following link:
%s/reset_password/%s

If you did not make this request then simply ignore this email and no changes will be made.
`, s.publicURL, token)
}
