// Package token signs and verifies the bearer tokens handed to clients after
// password or OTP login. Tokens are self-contained; nothing is stored.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails parsing, signature,
// issuer or expiry checks.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the set of user facts embedded in a token.
type Identity struct {
	UserID  string
	Email   string
	Mobile  string
	IsAdmin bool
	// Version is the user's credential version at issuance time.
	Version int
}

// Claims is the JWT payload.
type Claims struct {
	UserID  string `json:"id"`
	Email   string `json:"email,omitempty"`
	Mobile  string `json:"mobile,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
	Version int    `json:"ver"`
	jwt.RegisteredClaims
}

// Identity returns the identity carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:  c.UserID,
		Email:   c.Email,
		Mobile:  c.Mobile,
		IsAdmin: c.IsAdmin,
		Version: c.Version,
	}
}

// Service issues and verifies HS256 tokens with a single process-wide secret.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Config holds the dependencies for the token service.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// NewService creates a token service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token: secret must not be empty")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token: ttl must be positive, got %s", cfg.TTL)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    now,
	}, nil
}

// TTL is the validity window applied by IssueDefault.
func (s *Service) TTL() time.Duration { return s.ttl }

// IssueDefault signs a token for id with the configured TTL.
func (s *Service) IssueDefault(id Identity) (string, error) {
	return s.Issue(id, s.ttl)
}

// Issue signs a token for id that expires after ttl.
func (s *Service) Issue(id Identity, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:  id.UserID,
		Email:   id.Email,
		Mobile:  id.Mobile,
		IsAdmin: id.IsAdmin,
		Version: id.Version,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer and expiry, and returns the claims.
// No revocation list is consulted.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
