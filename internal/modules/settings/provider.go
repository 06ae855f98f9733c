package settings

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/delordemm1/go-otp-identity/internal/waha"
)

// Provider reads and edits the stored settings and resolves gateway targets.
type Provider struct {
	repo     Repository
	defaults waha.Target
	logger   *slog.Logger
}

// NewProvider creates a Provider. defaults holds the values from the environment.
func NewProvider(repo Repository, defaults waha.Target, logger *slog.Logger) *Provider {
	return &Provider{repo: repo, defaults: defaults, logger: logger}
}

// Get returns the stored settings, or an empty value when none are saved.
func (p *Provider) Get(ctx context.Context) (*Settings, error) {
	s, err := p.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Settings{}, nil
		}
		p.logger.Error("failed to load site settings", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	return s, nil
}

// Update applies patch to the stored settings and saves them.
func (p *Provider) Update(ctx context.Context, patch Patch) (*Settings, error) {
	s, err := p.Get(ctx)
	if err != nil {
		return nil, err
	}
	patch.apply(s)
	if err := p.repo.Save(ctx, s); err != nil {
		p.logger.Error("failed to save site settings", "error", err)
		return nil, ErrInternal.WithCause(err)
	}
	p.logger.Info("site settings updated", "waha_base_url", s.WahaBaseURL, "session", s.SessionName, "api_key_set", s.WahaAPIKey != "")
	return s, nil
}

// Defaults returns the environment values used when nothing else is set.
func (p *Provider) Defaults() waha.Target {
	return p.defaults
}

// Resolve builds the gateway target for one call. Each field comes from the
// first non-empty source among override, stored settings and defaults.
// A store failure is logged and the defaults are used in its place.
//
// The configured API key is only sent to the configured gateway: when override
// points at another host, only override's own key is used.
func (p *Provider) Resolve(ctx context.Context, override waha.Target) waha.Target {
	var stored Settings
	if s, err := p.repo.Get(ctx); err == nil {
		stored = *s
	} else if !errors.Is(err, ErrNotFound) {
		p.logger.Warn("site settings unavailable, using defaults", "error", err)
	}

	configured := normalizeBaseURL(first(stored.WahaBaseURL, p.defaults.BaseURL))
	target := waha.Target{
		BaseURL: configured,
		Session: first(override.Session, stored.SessionName, p.defaults.Session),
		APIKey:  first(override.APIKey, stored.WahaAPIKey, p.defaults.APIKey),
	}
	if requested := normalizeBaseURL(override.BaseURL); requested != "" && requested != configured {
		target.BaseURL = requested
		target.APIKey = strings.TrimSpace(override.APIKey)
	}
	return target
}

func normalizeBaseURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

// Target resolves with no request overrides. It implements waha.TargetProvider.
func (p *Provider) Target(ctx context.Context) (waha.Target, error) {
	return p.Resolve(ctx, waha.Target{}), nil
}

func first(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
