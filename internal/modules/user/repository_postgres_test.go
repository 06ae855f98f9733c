package user

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// recordingDB captures the last statement and answers with a fixed error.
type recordingDB struct {
	sql  string
	args []any
	err  error
	tag  pgconn.CommandTag
}

func (d *recordingDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.sql, d.args = sql, args
	return d.tag, d.err
}

func (d *recordingDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	d.sql, d.args = sql, args
	return nil, d.err
}

func (d *recordingDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	d.sql, d.args = sql, args
	return nil
}

func TestPostgresUpsertMobileOTP_GuardsOnLastSend(t *testing.T) {
	db := &recordingDB{err: pgx.ErrNoRows}
	repo := NewPostgresRepository(db)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	candidate, err := NewProvisionalMobileAccount("+919000000001", now)
	require.NoError(t, err)
	cutoff := now.Add(-time.Minute)

	_, err = repo.UpsertMobileOTP(context.Background(), candidate, OTPChallenge{
		Digest: "d1", Expiry: now.Add(otpTTL), SentAt: now, NotSentSince: cutoff,
	})
	require.ErrorIs(t, err, ErrResendTooSoon)

	q := `(?s)^INSERT INTO users \(.*otp_sent_at.*\) VALUES \(.*\) ON CONFLICT \(mobile\) DO UPDATE SET.*otp_sent_at = EXCLUDED\.otp_sent_at.*WHERE users\.otp_sent_at IS NULL OR users\.otp_sent_at <= \$14 RETURNING id, .*otp_sent_at`
	require.Regexp(t, regexp.MustCompile(q), db.sql)
	require.Len(t, db.args, 14)
	require.Equal(t, cutoff, db.args[13])
	require.Equal(t, "d1", db.args[7])
}

func TestPostgresCompleteOTPLogin_ConditionalOnDigest(t *testing.T) {
	db := &recordingDB{err: pgx.ErrNoRows}
	repo := NewPostgresRepository(db)

	_, err := repo.CompleteOTPLogin(context.Background(), "u-1", "d1", "Asha")
	require.ErrorIs(t, err, ErrNotFound)

	require.Regexp(t, `(?s)^UPDATE users SET name = CASE WHEN name = \$1 AND \$2 <> '' THEN \$3 ELSE name END, .*otp = \$\d+, otp_expiry = \$\d+.*WHERE id = \$\d+ AND otp = \$\d+ RETURNING`, db.sql)
	require.Equal(t, PlaceholderName, db.args[0])
	require.Contains(t, db.args, "d1")
	require.Contains(t, db.args, "u-1")
}

func TestPostgresCreate_MapsUniqueViolations(t *testing.T) {
	now := time.Now()
	tests := []struct {
		constraint string
		want       error
	}{
		{constraint: "users_mobile_key", want: ErrMobileExists},
		{constraint: "users_email_key", want: ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			db := &recordingDB{err: &pgconn.PgError{Code: uniqueViolation, ConstraintName: tt.constraint}}
			u, err := NewFullAccount("Ravi", "ravi@example.com", "+919000000001", "hash", now)
			require.NoError(t, err)
			require.ErrorIs(t, NewPostgresRepository(db).Create(context.Background(), u), tt.want)
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		boom := errors.New("connection reset")
		u, err := NewFullAccount("Ravi", "ravi@example.com", "", "hash", now)
		require.NoError(t, err)
		require.ErrorIs(t, NewPostgresRepository(&recordingDB{err: boom}).Create(context.Background(), u), boom)
	})
}

func TestPostgresClearOTPCooldown(t *testing.T) {
	db := &recordingDB{tag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewPostgresRepository(db)

	require.ErrorIs(t, repo.ClearOTPCooldown(context.Background(), "missing"), ErrNotFound)
	require.Regexp(t, `^UPDATE users SET otp_sent_at = \$1 WHERE id = \$2$`, db.sql)
	require.Nil(t, db.args[0])

	db.tag = pgconn.NewCommandTag("UPDATE 1")
	require.NoError(t, repo.ClearOTPCooldown(context.Background(), "u-1"))
}
