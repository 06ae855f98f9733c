package user

import (
	"context"
	"time"
)

// OTPChallenge is the digest of a freshly issued code and its timing.
type OTPChallenge struct {
	Digest       string
	Expiry       time.Time
	SentAt       time.Time
	NotSentSince time.Time
}

// Repository defines the credential store operations for the user module.
// Implementations exist for Postgres and MongoDB; every method is a single
// atomic store call.
type Repository interface {
	// Create inserts u. Unique collisions return ErrEmailExists or ErrMobileExists.
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByMobile(ctx context.Context, mobile string) (*User, error)

	// Update persists the profile fields of u (name, email, mobile).
	Update(ctx context.Context, u *User) error

	// UpsertMobileOTP stores the challenge on the user owning candidate's mobile,
	// or inserts candidate with it when no such user exists. An existing user whose
	// last OTP was sent after ch.NotSentSince is left untouched and ErrResendTooSoon
	// is returned.
	UpsertMobileOTP(ctx context.Context, candidate *User, ch OTPChallenge) (*User, error)

	// ClearOTPCooldown forgets when the last OTP was sent. The code itself is kept.
	ClearOTPCooldown(ctx context.Context, userID string) error

	// CompleteOTPLogin marks the user verified and clears the OTP fields, but only
	// while the stored digest still equals otpDigest. A non-empty name replaces
	// the placeholder name. Returns ErrNotFound when the challenge is gone.
	CompleteOTPLogin(ctx context.Context, userID, otpDigest, name string) (*User, error)

	SetPasswordResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error
	FindByPasswordResetToken(ctx context.Context, tokenHash string) (*User, error)

	// UpdatePassword sets a new hash, clears reset fields and bumps the token version.
	UpdatePassword(ctx context.Context, userID, newPasswordHash string) error

	SetAdmin(ctx context.Context, userID string, isAdmin bool) (*User, error)
}
