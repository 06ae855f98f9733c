package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/delordemm1/go-otp-identity/internal/modules/user"
	"github.com/delordemm1/go-otp-identity/internal/token"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// UserFinder loads the user a token refers to.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// Guard authenticates bearer tokens against the credential store.
// It has no side effects.
type Guard struct {
	tokens TokenVerifier
	users  UserFinder
	logger *slog.Logger
}

// NewGuard creates a Guard.
func NewGuard(tokens TokenVerifier, users UserFinder, logger *slog.Logger) *Guard {
	return &Guard{tokens: tokens, users: users, logger: logger}
}

// RequireUser resolves the Authorization header to a user.
// Every failure is user.ErrUnauthorized.
func (g *Guard) RequireUser(ctx context.Context, authorization string) (*user.User, *token.Claims, error) {
	claims, err := g.authenticate(authorization)
	if err != nil {
		return nil, nil, err
	}

	u, err := g.load(ctx, claims)
	if err != nil {
		return nil, nil, user.ErrUnauthorized.WithCause(err)
	}

	// Tokens minted before a password reset are revoked.
	if claims.Version != u.TokenVersion {
		g.logger.Info("stale token version", "user_id", u.ID, "token_version", claims.Version, "current_version", u.TokenVersion)
		return nil, nil, user.ErrUnauthorized
	}

	return u, claims, nil
}

// RequireAdmin gates administrative operations. A missing, invalid or revoked
// token is ErrUnauthorized; a valid token for an unknown or non-admin user is
// ErrForbidden.
func (g *Guard) RequireAdmin(ctx context.Context, authorization string) (*user.User, error) {
	claims, err := g.authenticate(authorization)
	if err != nil {
		return nil, err
	}

	u, err := g.load(ctx, claims)
	if err != nil {
		return nil, user.ErrForbidden.WithCause(err)
	}
	if !u.IsAdmin {
		return nil, user.ErrForbidden
	}
	if claims.Version != u.TokenVersion {
		return nil, user.ErrUnauthorized
	}

	return u, nil
}

// authenticate extracts and verifies the bearer token.
func (g *Guard) authenticate(authorization string) (*token.Claims, error) {
	raw, ok := bearerToken(authorization)
	if !ok {
		return nil, user.ErrUnauthorized
	}
	claims, err := g.tokens.Verify(raw)
	if err != nil {
		g.logger.Warn("bearer token rejected", "error", err)
		return nil, user.ErrUnauthorized.WithCause(err)
	}
	return claims, nil
}

func (g *Guard) load(ctx context.Context, claims *token.Claims) (*user.User, error) {
	u, err := g.users.FindByID(ctx, claims.UserID)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		g.logger.Error("guard: load user failed", "error", err, "user_id", claims.UserID)
	}
	return u, err
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	header = strings.TrimSpace(header)
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}
