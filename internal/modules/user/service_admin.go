package user

import (
	"context"
	"errors"
	"strings"
)

// SetAdmin grants or revokes the admin flag.
func (s *service) SetAdmin(ctx context.Context, userID string, isAdmin bool) (*User, error) {
	u, err := s.repo.SetAdmin(ctx, userID, isAdmin)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to set admin flag", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}
	s.logger.Info("admin flag changed", "user_id", u.ID, "is_admin", isAdmin)
	return u, nil
}

// PromoteAdmin grants admin to the account found by email or, failing that, mobile.
func (s *service) PromoteAdmin(ctx context.Context, email, mobile string) (*User, error) {
	var (
		u   *User
		err error
	)
	switch {
	case strings.TrimSpace(email) != "":
		u, err = s.repo.FindByEmail(ctx, email)
	case strings.TrimSpace(mobile) != "":
		u, err = s.repo.FindByMobile(ctx, strings.TrimSpace(mobile))
	default:
		return nil, ErrNotFound.WithDetail("an email or mobile number is required")
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, ErrInternal.WithCause(err)
	}
	return s.SetAdmin(ctx, u.ID, true)
}
