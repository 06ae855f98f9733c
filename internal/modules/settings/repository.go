package settings

import "context"

// Repository persists the settings singleton.
type Repository interface {
	// Get returns ErrNotFound until settings are saved for the first time.
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}
