package settings

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/delordemm1/go-otp-identity/internal/database"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

// singletonID is the primary key of the only row in site_settings.
const singletonID = 1

type postgresRepository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewPostgresRepository creates a settings repository backed by the site_settings table.
func NewPostgresRepository(db database.DBTX) Repository {
	return &postgresRepository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *postgresRepository) Get(ctx context.Context) (*Settings, error) {
	query, args, err := r.psql.
		Select("waha_base_url", "session_name", "waha_api_key", "updated_at").
		From("site_settings").
		Where(squirrel.Eq{"id": singletonID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var s Settings
	if err := pgxscan.Get(ctx, r.db, &s, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepository) Save(ctx context.Context, s *Settings) error {
	s.UpdatedAt = time.Now()

	query, args, err := r.psql.Insert("site_settings").
		Columns("id", "waha_base_url", "session_name", "waha_api_key", "updated_at").
		Values(singletonID, s.WahaBaseURL, s.SessionName, s.WahaAPIKey, s.UpdatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			waha_base_url = EXCLUDED.waha_base_url,
			session_name = EXCLUDED.session_name,
			waha_api_key = EXCLUDED.waha_api_key,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}
