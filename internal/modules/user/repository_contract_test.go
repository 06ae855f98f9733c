package user

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/delordemm1/go-otp-identity/internal/database"
	"github.com/delordemm1/go-otp-identity/migrations"
)

// testRepositoryContract checks the behaviour every Repository must share.
// newRepo must return an empty store.
func testRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	const mobile = "+919000000001"

	challenge := func(digest string, sentAt time.Time) OTPChallenge {
		return OTPChallenge{
			Digest:       digest,
			Expiry:       sentAt.Add(otpTTL),
			SentAt:       sentAt,
			NotSentSince: sentAt.Add(-time.Minute),
		}
	}
	provisional := func(t *testing.T) *User {
		t.Helper()
		u, err := NewProvisionalMobileAccount(mobile, now)
		require.NoError(t, err)
		return u
	}
	pendingOTP := func(t *testing.T, repo Repository) string {
		t.Helper()
		u, err := repo.FindByMobile(ctx, mobile)
		require.NoError(t, err)
		if u.OTP == nil {
			return ""
		}
		return *u.OTP
	}

	t.Run("upsert inserts a provisional account", func(t *testing.T) {
		repo := newRepo(t)
		candidate := provisional(t)

		u, err := repo.UpsertMobileOTP(ctx, candidate, challenge("d1", now))
		require.NoError(t, err)
		require.Equal(t, candidate.ID, u.ID)
		require.Equal(t, PlaceholderName, u.Name)
		require.Equal(t, AuthMethodMobile, u.AuthMethod)
		require.False(t, u.IsVerified)
		require.Equal(t, "d1", *u.OTP)
		require.WithinDuration(t, now.Add(otpTTL), *u.OTPExpiry, time.Millisecond)
		require.WithinDuration(t, now, *u.OTPSentAt, time.Millisecond)
	})

	t.Run("upsert after the cooldown updates the same account", func(t *testing.T) {
		repo := newRepo(t)
		first, err := repo.UpsertMobileOTP(ctx, provisional(t), challenge("d1", now))
		require.NoError(t, err)

		later := now.Add(2 * time.Minute)
		u, err := repo.UpsertMobileOTP(ctx, provisional(t), challenge("d2", later))
		require.NoError(t, err)
		require.Equal(t, first.ID, u.ID)
		require.Equal(t, "d2", *u.OTP)
		require.WithinDuration(t, later, *u.OTPSentAt, time.Millisecond)
	})

	t.Run("upsert inside the cooldown is refused", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.UpsertMobileOTP(ctx, provisional(t), challenge("d1", now))
		require.NoError(t, err)

		_, err = repo.UpsertMobileOTP(ctx, provisional(t), challenge("d2", now.Add(10*time.Second)))
		require.ErrorIs(t, err, ErrResendTooSoon)
		require.Equal(t, "d1", pendingOTP(t, repo))
	})

	t.Run("clearing the cooldown allows an immediate resend", func(t *testing.T) {
		repo := newRepo(t)
		u, err := repo.UpsertMobileOTP(ctx, provisional(t), challenge("d1", now))
		require.NoError(t, err)

		require.NoError(t, repo.ClearOTPCooldown(ctx, u.ID))
		stored, err := repo.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.Nil(t, stored.OTPSentAt)
		require.Equal(t, "d1", *stored.OTP)

		_, err = repo.UpsertMobileOTP(ctx, provisional(t), challenge("d2", now.Add(time.Second)))
		require.NoError(t, err)
		require.Equal(t, "d2", pendingOTP(t, repo))

		require.ErrorIs(t, repo.ClearOTPCooldown(ctx, "missing"), ErrNotFound)
	})

	t.Run("completion is conditional on the digest", func(t *testing.T) {
		repo := newRepo(t)
		u, err := repo.UpsertMobileOTP(ctx, provisional(t), challenge("d1", now))
		require.NoError(t, err)

		_, err = repo.CompleteOTPLogin(ctx, u.ID, "other", "Asha")
		require.ErrorIs(t, err, ErrNotFound)
		require.Equal(t, "d1", pendingOTP(t, repo))

		done, err := repo.CompleteOTPLogin(ctx, u.ID, "d1", "Asha")
		require.NoError(t, err)
		require.True(t, done.IsVerified)
		require.Equal(t, "Asha", done.Name)
		require.Nil(t, done.OTP)
		require.Nil(t, done.OTPExpiry)

		_, err = repo.CompleteOTPLogin(ctx, u.ID, "d1", "Asha")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("a name only replaces the placeholder", func(t *testing.T) {
		repo := newRepo(t)
		u, err := repo.UpsertMobileOTP(ctx, provisional(t), challenge("d1", now))
		require.NoError(t, err)

		done, err := repo.CompleteOTPLogin(ctx, u.ID, "d1", "")
		require.NoError(t, err)
		require.Equal(t, PlaceholderName, done.Name)

		_, err = repo.UpsertMobileOTP(ctx, provisional(t), challenge("d2", now.Add(time.Minute)))
		require.NoError(t, err)
		done, err = repo.CompleteOTPLogin(ctx, u.ID, "d2", "Asha")
		require.NoError(t, err)
		require.Equal(t, "Asha", done.Name)

		_, err = repo.UpsertMobileOTP(ctx, provisional(t), challenge("d3", now.Add(2*time.Minute)))
		require.NoError(t, err)
		done, err = repo.CompleteOTPLogin(ctx, u.ID, "d3", "Someone Else")
		require.NoError(t, err)
		require.Equal(t, "Asha", done.Name)
	})

	t.Run("unique email and mobile", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.UpsertMobileOTP(ctx, provisional(t), challenge("d1", now))
		require.NoError(t, err)

		ravi, err := NewFullAccount("Ravi", "ravi@example.com", "", "hash", now)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, ravi))

		dupEmail, err := NewFullAccount("Other", "ravi@example.com", "", "hash", now)
		require.NoError(t, err)
		require.ErrorIs(t, repo.Create(ctx, dupEmail), ErrEmailExists)

		dupMobile, err := NewFullAccount("Other", "other@example.com", mobile, "hash", now)
		require.NoError(t, err)
		require.ErrorIs(t, repo.Create(ctx, dupMobile), ErrMobileExists)

		taken := mobile
		ravi.Mobile = &taken
		require.ErrorIs(t, repo.Update(ctx, ravi), ErrMobileExists)

		ghost := *ravi
		ghost.ID = "missing"
		ghost.Mobile = nil
		require.ErrorIs(t, repo.Update(ctx, &ghost), ErrNotFound)
	})

	t.Run("password reset bumps the token version", func(t *testing.T) {
		repo := newRepo(t)
		ravi, err := NewFullAccount("Ravi", "ravi@example.com", "", "hash", now)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, ravi))

		require.NoError(t, repo.SetPasswordResetToken(ctx, ravi.ID, "reset-digest", now.Add(15*time.Minute)))
		found, err := repo.FindByPasswordResetToken(ctx, "reset-digest")
		require.NoError(t, err)
		require.Equal(t, ravi.ID, found.ID)

		require.NoError(t, repo.UpdatePassword(ctx, ravi.ID, "new-hash"))
		stored, err := repo.FindByID(ctx, ravi.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", stored.PasswordHash)
		require.Equal(t, 1, stored.TokenVersion)
		require.Nil(t, stored.ResetToken)

		_, err = repo.FindByPasswordResetToken(ctx, "reset-digest")
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, repo.UpdatePassword(ctx, "missing", "x"), ErrNotFound)
	})

	t.Run("admin flag", func(t *testing.T) {
		repo := newRepo(t)
		ravi, err := NewFullAccount("Ravi", "Ravi@Example.com", "", "hash", now)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, ravi))

		u, err := repo.SetAdmin(ctx, ravi.ID, true)
		require.NoError(t, err)
		require.True(t, u.IsAdmin)

		byEmail, err := repo.FindByEmail(ctx, "RAVI@example.com")
		require.NoError(t, err)
		require.True(t, byEmail.IsAdmin)

		_, err = repo.SetAdmin(ctx, "missing", true)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryRepositoryContract(t *testing.T) {
	testRepositoryContract(t, func(*testing.T) Repository { return newMemoryRepo() })
}

// TestPostgresRepositoryContract runs against TEST_DATABASE_URL after applying the migrations.
func TestPostgresRepositoryContract(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.UpContext(ctx, db, "."))

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	testRepositoryContract(t, func(t *testing.T) Repository {
		_, err := pool.Exec(ctx, "TRUNCATE users")
		require.NoError(t, err)
		return NewPostgresRepository(pool)
	})
}

// TestMongoRepositoryContract runs against TEST_MONGO_URL, one throwaway database per case.
func TestMongoRepositoryContract(t *testing.T) {
	url := os.Getenv("TEST_MONGO_URL")
	if url == "" {
		t.Skip("TEST_MONGO_URL not set")
	}
	ctx := context.Background()

	client, _ := database.NewMongoDatabase(url, "identity_test")
	require.NotNil(t, client, "mongo unreachable")
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	testRepositoryContract(t, func(t *testing.T) Repository {
		db := client.Database(fmt.Sprintf("identity_test_%d", time.Now().UnixNano()))
		t.Cleanup(func() { _ = db.Drop(context.Background()) })
		repo, err := NewMongoRepository(ctx, quietLogger(), db)
		require.NoError(t, err)
		return repo
	})
}
