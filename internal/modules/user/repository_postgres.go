package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/delordemm1/go-otp-identity/internal/database"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var userColumns = []string{
	"id", "name", "email", "mobile", "password_hash", "auth_method",
	"is_verified", "is_admin", "otp", "otp_expiry", "otp_sent_at",
	"reset_token", "reset_token_expiry", "token_version",
	"created_at", "updated_at",
}

// postgresRepository implements Repository using pgx and squirrel.
type postgresRepository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewPostgresRepository creates a user repository backed by Postgres.
func NewPostgresRepository(db database.DBTX) Repository {
	return &postgresRepository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new user record into the database.
func (r *postgresRepository) Create(ctx context.Context, u *User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	query, args, err := r.psql.Insert("users").
		Columns(userColumns...).
		Values(
			u.ID, u.Name, u.Email, u.Mobile, u.PasswordHash, u.AuthMethod,
			u.IsVerified, u.IsAdmin, u.OTP, u.OTPExpiry, u.OTPSentAt,
			u.ResetToken, u.ResetTokenExpiry, u.TokenVersion,
			u.CreatedAt, u.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

// FindByID retrieves a user by their unique ID.
// It returns ErrNotFound if no user is found.
func (r *postgresRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindByEmail retrieves a user by their email address.
func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, squirrel.Eq{"email": normalizeEmail(email)})
}

// FindByMobile retrieves a user by their full mobile number (+91XXXXXXXXXX).
func (r *postgresRepository) FindByMobile(ctx context.Context, mobile string) (*User, error) {
	return r.findOne(ctx, squirrel.Eq{"mobile": mobile})
}

// Update modifies an existing user's profile fields in the database.
func (r *postgresRepository) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now()

	query, args, err := r.psql.Update("users").
		Set("name", u.Name).
		Set("email", u.Email).
		Set("mobile", u.Mobile).
		Set("updated_at", u.UpdatedAt).
		Where(squirrel.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertMobileOTP inserts the provisional candidate or, when the mobile is already
// registered, overwrites only its OTP fields. The conflict update is guarded by
// otp_sent_at, so a request inside the cooldown window updates no row.
func (r *postgresRepository) UpsertMobileOTP(ctx context.Context, candidate *User, ch OTPChallenge) (*User, error) {
	now := time.Now()

	query, args, err := r.psql.Insert("users").
		Columns(
			"id", "name", "mobile", "password_hash", "auth_method",
			"is_verified", "is_admin", "otp", "otp_expiry", "otp_sent_at", "token_version",
			"created_at", "updated_at",
		).
		Values(
			candidate.ID, candidate.Name, candidate.Mobile, "", candidate.AuthMethod,
			false, false, ch.Digest, ch.Expiry, ch.SentAt, 0,
			now, now,
		).
		Suffix(`ON CONFLICT (mobile) DO UPDATE SET
			otp = EXCLUDED.otp,
			otp_expiry = EXCLUDED.otp_expiry,
			otp_sent_at = EXCLUDED.otp_sent_at,
			updated_at = EXCLUDED.updated_at
			WHERE users.otp_sent_at IS NULL OR users.otp_sent_at <= ?`, ch.NotSentSince).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u User
	if err := pgxscan.Get(ctx, r.db, &u, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResendTooSoon.WithCause(err)
		}
		return nil, mapUniqueViolation(err)
	}
	return &u, nil
}

// ClearOTPCooldown resets otp_sent_at so the next request is not throttled.
func (r *postgresRepository) ClearOTPCooldown(ctx context.Context, userID string) error {
	query, args, err := r.psql.Update("users").
		Set("otp_sent_at", nil).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteOTPLogin consumes the outstanding challenge when it still matches otpDigest.
func (r *postgresRepository) CompleteOTPLogin(ctx context.Context, userID, otpDigest, name string) (*User, error) {
	query, args, err := r.psql.Update("users").
		Set("name", squirrel.Expr("CASE WHEN name = ? AND ? <> '' THEN ? ELSE name END", PlaceholderName, name, name)).
		Set("is_verified", true).
		Set("otp", nil).
		Set("otp_expiry", nil).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID, "otp": otpDigest}).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u User
	if err := pgxscan.Get(ctx, r.db, &u, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &u, nil
}

// SetPasswordResetToken stores the hashed reset token and its expiry for a given user.
func (r *postgresRepository) SetPasswordResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error {
	sql, args, err := r.psql.Update("users").
		Set("reset_token", tokenHash).
		Set("reset_token_expiry", expiry).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByPasswordResetToken finds a user by their hashed password reset token.
func (r *postgresRepository) FindByPasswordResetToken(ctx context.Context, tokenHash string) (*User, error) {
	return r.findOne(ctx, squirrel.Eq{"reset_token": tokenHash})
}

// UpdatePassword sets a new password hash, clears the reset token and revokes
// previously issued tokens by bumping token_version.
func (r *postgresRepository) UpdatePassword(ctx context.Context, userID, newPasswordHash string) error {
	sql, args, err := r.psql.Update("users").
		Set("password_hash", newPasswordHash).
		Set("reset_token", nil).
		Set("reset_token_expiry", nil).
		Set("token_version", squirrel.Expr("token_version + 1")).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAdmin toggles the admin flag and returns the updated user.
func (r *postgresRepository) SetAdmin(ctx context.Context, userID string, isAdmin bool) (*User, error) {
	query, args, err := r.psql.Update("users").
		Set("is_admin", isAdmin).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u User
	if err := pgxscan.Get(ctx, r.db, &u, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &u, nil
}

// findOne is a helper method to find a single user by a given condition.
func (r *postgresRepository) findOne(ctx context.Context, condition squirrel.Sqlizer) (*User, error) {
	query, args, err := r.psql.Select(userColumns...).
		From("users").
		Where(condition).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u User
	if err := pgxscan.Get(ctx, r.db, &u, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &u, nil
}

// mapUniqueViolation converts a unique-constraint error into the matching conflict.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "mobile"):
		return ErrMobileExists.WithCause(err)
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ErrEmailExists.WithCause(err)
	default:
		return err
	}
}
