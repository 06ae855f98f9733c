package user

import (
	"context"
	"errors"
	"strings"
)

// SignupInput carries the fields of a password signup.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Mobile   string
}

// Signup handles the business logic for creating a new password account.
func (s *service) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	mobile := strings.TrimSpace(input.Mobile)

	// Check if a user with the given email already exists
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		s.logger.Error("signup: find by email failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if mobile != "" {
		if _, err := s.repo.FindByMobile(ctx, mobile); err == nil {
			return nil, ErrMobileExists
		} else if !errors.Is(err, ErrNotFound) {
			s.logger.Error("signup: find by mobile failed", "error", err)
			return nil, ErrInternal.WithCause(err)
		}
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	newUser, err := NewFullAccount(input.Name, email, mobile, hashedPassword, s.now())
	if err != nil {
		return nil, err
	}

	// Unique indexes still decide races between the lookups above and this insert.
	if err := s.repo.Create(ctx, newUser); err != nil {
		if errors.Is(err, ErrEmailExists) || errors.Is(err, ErrMobileExists) {
			return nil, err
		}
		s.logger.Error("failed to create user", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("user registered successfully", "user_id", newUser.ID)
	return s.issue(newUser)
}

// Login handles the business logic for authenticating a user.
func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Use a generic error to avoid telling attackers that the email exists.
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to find user by email", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if !checkPasswordHash(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("user logged in successfully", "user_id", u.ID)
	return s.issue(u)
}
