package user

import (
	"errors"
	"strings"
	"time"

	"github.com/delordemm1/go-otp-identity/internal/token"
	"github.com/delordemm1/go-otp-identity/internal/validation"
	"github.com/google/uuid"
)

// PlaceholderName is the display name given to accounts created by an OTP request.
// Verification replaces it with the name the user supplies.
const PlaceholderName = "WhatsApp User"

// AuthMethod records how an account was first created.
type AuthMethod string

const (
	AuthMethodEmail  AuthMethod = "email"
	AuthMethodMobile AuthMethod = "mobile"
)

// User represents a user in the system.
// Email and Mobile are nil when absent so the unique indexes ignore them.
type User struct {
	ID               string     `db:"id" bson:"_id"`
	Name             string     `db:"name" bson:"name"`
	Email            *string    `db:"email" bson:"email,omitempty"`
	Mobile           *string    `db:"mobile" bson:"mobile,omitempty"`
	PasswordHash     string     `db:"password_hash" bson:"passwordHash,omitempty"`
	AuthMethod       AuthMethod `db:"auth_method" bson:"authMethod"`
	IsVerified       bool       `db:"is_verified" bson:"isVerified"`
	IsAdmin          bool       `db:"is_admin" bson:"isAdmin"`
	OTP              *string    `db:"otp" bson:"otp,omitempty"`
	OTPExpiry        *time.Time `db:"otp_expiry" bson:"otpExpiry,omitempty"`
	OTPSentAt        *time.Time `db:"otp_sent_at" bson:"otpSentAt,omitempty"`
	ResetToken       *string    `db:"reset_token" bson:"resetToken,omitempty"`
	ResetTokenExpiry *time.Time `db:"reset_token_expiry" bson:"resetTokenExpiry,omitempty"`
	TokenVersion     int        `db:"token_version" bson:"tokenVersion"`
	CreatedAt        time.Time  `db:"created_at" bson:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" bson:"updatedAt"`
}

// EmailValue returns the email or "".
func (u *User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// MobileValue returns the mobile number or "".
func (u *User) MobileValue() string {
	if u.Mobile == nil {
		return ""
	}
	return *u.Mobile
}

// HasPendingOTP reports whether an OTP challenge is outstanding.
func (u *User) HasPendingOTP() bool {
	return u.OTP != nil && *u.OTP != ""
}

// Identity is the claim set embedded in this user's tokens.
func (u *User) Identity() token.Identity {
	return token.Identity{
		UserID:  u.ID,
		Email:   u.EmailValue(),
		Mobile:  u.MobileValue(),
		IsAdmin: u.IsAdmin,
		Version: u.TokenVersion,
	}
}

type fullAccountInput struct {
	Name   string `json:"name" validate:"required,min=2,max=100"`
	Email  string `json:"email" validate:"required,email"`
	Mobile string `json:"mobile" validate:"omitempty,mobile_in"`
}

// NewFullAccount builds a password account. Every field is validated.
func NewFullAccount(name, email, mobile, passwordHash string, now time.Time) (*User, error) {
	in := fullAccountInput{
		Name:   strings.TrimSpace(name),
		Email:  normalizeEmail(email),
		Mobile: strings.TrimSpace(mobile),
	}
	if err := validation.ValidateStruct(&in); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, ErrInternal.WithCause(errors.New("password hash is required"))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	u := &User{
		ID:           id.String(),
		Name:         in.Name,
		Email:        &in.Email,
		PasswordHash: passwordHash,
		AuthMethod:   AuthMethodEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Mobile != "" {
		u.Mobile = &in.Mobile
	}
	return u, nil
}

// NewProvisionalMobileAccount builds the unverified record created by a first
// OTP request. Only the mobile number is checked.
func NewProvisionalMobileAccount(fullMobile string, now time.Time) (*User, error) {
	if !validation.FullMobilePattern.MatchString(fullMobile) {
		return nil, ErrInvalidMobile
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	mobile := fullMobile
	return &User{
		ID:         id.String(),
		Name:       PlaceholderName,
		Mobile:     &mobile,
		AuthMethod: AuthMethodMobile,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
