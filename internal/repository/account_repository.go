package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ggrewal99/jobtrackr-backend-v2/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	MarkVerified(ctx context.Context, id int64) error
	UpdateLoginSecurity(ctx context.Context, id int64, failedAttempts int, lockedUntil *time.Time) error
	SetResetToken(ctx context.Context, id int64, digest string, expiresAt time.Time) error
	FindByResetDigest(ctx context.Context, digest string) (*domain.Account, error)
	ConsumeResetToken(ctx context.Context, id int64, digest, newPasswordHash string) (bool, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateProfile(ctx context.Context, id int64, req *domain.UpdateProfileRequest, passwordHash *string) (*domain.Account, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountCols = `id, email, first_name, last_name, password_hash, is_verified, reset_token_digest, reset_token_expires_at, failed_login_attempts, locked_until, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.Account, error) {
	const q = `
		INSERT INTO accounts (email, first_name, last_name, password_hash, is_verified)
		VALUES ($1, $2, $3, $4, false)
		RETURNING ` + accountCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Account
	err := r.pool.QueryRow(ctx, q, req.Email, req.FirstName, req.LastName, passwordHash).Scan(
		&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.PasswordHash, &a.IsVerified,
		&a.ResetTokenDigest, &a.ResetTokenExpiresAt, &a.FailedLoginAttempts, &a.LockedUntil,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict("email already registered")
		}
		return nil, err
	}

	return &a, nil
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Account
	err := r.pool.QueryRow(ctx, q, email).Scan(
		&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.PasswordHash, &a.IsVerified,
		&a.ResetTokenDigest, &a.ResetTokenExpiresAt, &a.FailedLoginAttempts, &a.LockedUntil,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &a, err
}

func (r *accountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Account
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.PasswordHash, &a.IsVerified,
		&a.ResetTokenDigest, &a.ResetTokenExpiresAt, &a.FailedLoginAttempts, &a.LockedUntil,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &a, err
}

func (r *accountRepository) MarkVerified(ctx context.Context, id int64) error {
	const q = `UPDATE accounts SET is_verified = true, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *accountRepository) UpdateLoginSecurity(ctx context.Context, id int64, failedAttempts int, lockedUntil *time.Time) error {
	const q = `UPDATE accounts SET failed_login_attempts = $2, locked_until = $3, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, failedAttempts, lockedUntil)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *accountRepository) SetResetToken(ctx context.Context, id int64, digest string, expiresAt time.Time) error {
	const q = `UPDATE accounts SET reset_token_digest = $2, reset_token_expires_at = $3, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, digest, expiresAt)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *accountRepository) FindByResetDigest(ctx context.Context, digest string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE reset_token_digest = $1 AND reset_token_expires_at > now()`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Account
	err := r.pool.QueryRow(ctx, q, digest).Scan(
		&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.PasswordHash, &a.IsVerified,
		&a.ResetTokenDigest, &a.ResetTokenExpiresAt, &a.FailedLoginAttempts, &a.LockedUntil,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &a, err
}

// ConsumeResetToken atomically replaces the password and clears both reset
// fields, but only while the digest still matches and has not expired. A
// false return means the token was already consumed, expired, or never
// valid.
func (r *accountRepository) ConsumeResetToken(ctx context.Context, id int64, digest, newPasswordHash string) (bool, error) {
	const q = `
		UPDATE accounts
		SET password_hash = $3,
		    reset_token_digest = NULL,
		    reset_token_expires_at = NULL,
		    updated_at = now()
		WHERE id = $1
		  AND reset_token_digest = $2
		  AND reset_token_expires_at > now()`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, digest, newPasswordHash)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() == 1, nil
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const q = `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, passwordHash)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *accountRepository) UpdateProfile(ctx context.Context, id int64, req *domain.UpdateProfileRequest, passwordHash *string) (*domain.Account, error) {
	const q = `
		UPDATE accounts
		SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE($4, email),
			password_hash = COALESCE($5, password_hash),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + accountCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Account
	err := r.pool.QueryRow(ctx, q, id, req.FirstName, req.LastName, req.Email, passwordHash).Scan(
		&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.PasswordHash, &a.IsVerified,
		&a.ResetTokenDigest, &a.ResetTokenExpiresAt, &a.FailedLoginAttempts, &a.LockedUntil,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil && isUniqueViolation(err) {
		return nil, domain.Conflict("email already registered")
	}
	return &a, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
