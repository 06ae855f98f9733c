package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/delordemm1/go-otp-identity/internal/config"
	"github.com/delordemm1/go-otp-identity/internal/notification"
	"github.com/delordemm1/go-otp-identity/internal/notification/templates"
	"github.com/delordemm1/go-otp-identity/internal/token"
)

// Service defines the interface for the user module's business logic.
// It orchestrates the flow of data between the handlers and the repository,
// and contains the core business rules.
type Service interface {
	// Password accounts
	Signup(ctx context.Context, input SignupInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// One-time passcodes over WhatsApp
	RequestOTP(ctx context.Context, mobile string) (string, error)
	VerifyOTP(ctx context.Context, mobile, code, name string) (*AuthResult, error)

	// Profile
	GetProfile(ctx context.Context, userID string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*AuthResult, error)

	// Password reset
	InitiatePasswordReset(ctx context.Context, email string) error
	FinalizePasswordReset(ctx context.Context, token, newPassword string) error

	// Administration
	SetAdmin(ctx context.Context, userID string, isAdmin bool) (*User, error)
	PromoteAdmin(ctx context.Context, email, mobile string) (*User, error)
}

// AuthResult is returned by every flow that hands the client a fresh token.
type AuthResult struct {
	Token string
	User  *User
}

// Messenger delivers a text message to a +91 mobile number.
type Messenger interface {
	SendText(ctx context.Context, mobile, text string) bool
}

// Throttle grants at most one holder per key within a window.
type Throttle interface {
	Acquire(ctx context.Context, key string, window time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// TokenIssuer signs tokens with the configured lifetime.
type TokenIssuer interface {
	IssueDefault(id token.Identity) (string, error)
}

// service implements the Service interface.
type service struct {
	repo      Repository
	tokens    TokenIssuer
	messenger Messenger
	throttle  Throttle
	notifier  notification.Service
	templates templates.Renderer
	logger    *slog.Logger
	config    *config.Config
	now       func() time.Time
}

// Config holds the dependencies for the user service.
// Throttle and Notifier are optional.
type Config struct {
	Repo      Repository
	Tokens    TokenIssuer
	Messenger Messenger
	Throttle  Throttle
	Notifier  notification.Service
	Templates templates.Renderer
	Logger    *slog.Logger
	Config    *config.Config
	Now       func() time.Time
}

// NewService creates a new user service with the given dependencies.
func NewService(cfg *Config) Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.Config{}
	}
	return &service{
		repo:      cfg.Repo,
		tokens:    cfg.Tokens,
		messenger: cfg.Messenger,
		throttle:  cfg.Throttle,
		notifier:  cfg.Notifier,
		templates: cfg.Templates,
		logger:    cfg.Logger,
		config:    appCfg,
		now:       now,
	}
}

func (s *service) issue(u *User) (*AuthResult, error) {
	tok, err := s.tokens.IssueDefault(u.Identity())
	if err != nil {
		s.logger.Error("failed to issue token", "error", err, "user_id", u.ID)
		return nil, ErrInternal.WithCause(err)
	}
	return &AuthResult{Token: tok, User: u}, nil
}
