package user

import (
	"context"
	"errors"
	"time"

	"github.com/delordemm1/go-otp-identity/internal/notification"
	"github.com/delordemm1/go-otp-identity/internal/notification/templates"
)

const resetTokenTTL = 15 * time.Minute

// InitiatePasswordReset handles the logic for initiating a password reset.
// It finds a user by email, generates a secure reset token, stores the token's hash,
// and dispatches the reset link by email and, when a mobile is on file, WhatsApp.
func (s *service) InitiatePasswordReset(ctx context.Context, email string) error {
	// 1. Find user by email.
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		// Unknown emails succeed silently so callers cannot discover accounts.
		if errors.Is(err, ErrNotFound) {
			s.logger.Info("password reset requested for non-existent email")
			return nil
		}
		s.logger.Error("failed to find user by email for password reset", "error", err)
		return ErrInternal.WithCause(err)
	}

	// 2. Generate a secure, unique password reset token.
	raw, err := generateSecureToken(32)
	if err != nil {
		s.logger.Error("failed to generate secure token for password reset", "error", err)
		return ErrInternal.WithCause(err)
	}

	// 3. Store only its hash, with a 15 minute expiry.
	if err := s.repo.SetPasswordResetToken(ctx, u.ID, hashToken(raw), s.now().Add(resetTokenTTL)); err != nil {
		s.logger.Error("failed to update user with password reset token", "error", err)
		return ErrInternal.WithCause(err)
	}

	// 4. Notify.
	if s.notifier == nil {
		s.logger.Warn("password reset created but no notifier is configured", "user_id", u.ID)
		return nil
	}
	channels := []notification.Channel{notification.ChannelEmail}
	if u.MobileValue() != "" {
		channels = append(channels, notification.ChannelWhatsApp)
	}
	data := templates.PasswordResetData{
		Name:             u.Name,
		ResetURL:         resetLink(s.config.PasswordResetURL, raw),
		ExpiresInMinutes: int(resetTokenTTL / time.Minute),
		SupportEmail:     s.config.SMTP.From,
	}
	to := notification.Recipient{Email: u.EmailValue(), Mobile: u.MobileValue()}
	if err := notification.SendTemplate(ctx, s.notifier, templates.PasswordReset, to, channels, notification.PriorityHigh, data); err != nil {
		s.logger.Error("failed to dispatch password reset", "error", err, "user_id", u.ID)
		return ErrInternal.WithCause(err)
	}

	s.logger.Info("password reset dispatched", "user_id", u.ID)
	return nil
}

// FinalizePasswordReset validates a password reset token and updates the user's password.
// Tokens issued before the reset stop working.
func (s *service) FinalizePasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidResetToken
	}

	u, err := s.repo.FindByPasswordResetToken(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Use the same error for not found, expired, or invalid tokens.
			return ErrInvalidResetToken
		}
		s.logger.Error("failed to find user by password reset token", "error", err)
		return ErrInternal.WithCause(err)
	}

	if u.ResetTokenExpiry == nil || s.now().After(*u.ResetTokenExpiry) {
		return ErrInvalidResetToken
	}

	newPasswordHash, err := hashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password during reset", "error", err)
		return ErrInternal.WithCause(err)
	}

	if err := s.repo.UpdatePassword(ctx, u.ID, newPasswordHash); err != nil {
		s.logger.Error("failed to update user password after reset", "error", err)
		return ErrInternal.WithCause(err)
	}

	s.logger.Info("user password has been reset successfully", "user_id", u.ID)
	return nil
}
