package user

import (
	"context"
	"errors"
	"strings"

	"github.com/delordemm1/go-otp-identity/internal/validation"
)

// UpdateProfileInput defines the updatable fields for a user's profile.
// A nil field is left unchanged.
type UpdateProfileInput struct {
	Name   *string
	Email  *string
	Mobile *string
}

// profileEmail validates a replacement email. An account keeps its email once set.
type profileEmail struct {
	Email string `json:"email" validate:"required,email"`
}

// GetProfile retrieves a single user's profile by their ID.
func (s *service) GetProfile(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound.WithCause(err)
		}
		s.logger.Error("failed to get user profile from repository", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}
	return u, nil
}

// UpdateProfile applies the caller's own name/email/mobile changes and returns
// a token carrying the new claims. Previously issued tokens stay valid.
func (s *service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*AuthResult, error) {
	// 1. Retrieve the existing user to ensure they exist and to apply changes.
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 2. Check every requested change before mutating anything.
	var email, mobile *string
	if input.Email != nil {
		e := normalizeEmail(*input.Email)
		check := profileEmail{Email: e}
		if err := validation.ValidateStruct(&check); err != nil {
			return nil, err
		}
		if err := s.ensureUnowned(ctx, userID, e, s.repo.FindByEmail, ErrEmailExists); err != nil {
			return nil, err
		}
		email = &e
	}
	if input.Mobile != nil {
		m := strings.TrimSpace(*input.Mobile)
		if !validation.FullMobilePattern.MatchString(m) {
			return nil, ErrInvalidMobile.WithDetail("Invalid mobile number. Use the format +91XXXXXXXXXX.")
		}
		if err := s.ensureUnowned(ctx, userID, m, s.repo.FindByMobile, ErrMobileExists); err != nil {
			return nil, err
		}
		mobile = &m
	}

	// 3. Apply.
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			u.Name = name
		}
	}
	if email != nil {
		u.Email = email
	}
	if mobile != nil {
		u.Mobile = mobile
	}

	// 4. Persist the changes to the database.
	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrMobileExists) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update user profile in repository", "error", err, "user_id", userID)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("user profile updated successfully", "user_id", u.ID)
	return s.issue(u)
}

// ensureUnowned fails with conflict when value belongs to a user other than userID.
func (s *service) ensureUnowned(ctx context.Context, userID, value string, find func(context.Context, string) (*User, error), conflict error) error {
	owner, err := find(ctx, value)
	switch {
	case err == nil && owner.ID != userID:
		return conflict
	case err == nil, errors.Is(err, ErrNotFound):
		return nil
	default:
		s.logger.Error("profile uniqueness check failed", "error", err, "user_id", userID)
		return ErrInternal.WithCause(err)
	}
}
