// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/angelamos/shelfmark/internal/core"
)

const userColumns = `
	id, name, email, password_hash, role, account_verified,
	verification_code, verification_code_expiry,
	reset_password_token, reset_password_expiry,
	failed_attempts, avatar_id, avatar_url, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetVerifiedByEmail(ctx context.Context, email string) (*User, error)
	GetUnverifiedByEmail(ctx context.Context, email string) (*User, error)
	ReissueVerificationCode(
		ctx context.Context,
		id string,
		code int,
		expiry time.Time,
	) error
	MarkVerified(ctx context.Context, id string, code int) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(
		ctx context.Context,
		id, tokenHash string,
		expiry time.Time,
	) error
	ClearResetToken(ctx context.Context, id string) error
	GetByResetTokenHash(
		ctx context.Context,
		tokenHash string,
		now time.Time,
	) (*User, error)
	ListVerified(ctx context.Context) ([]User, error)
	DeleteUnverifiedBefore(
		ctx context.Context,
		cutoff time.Time,
	) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			id, name, email, password_hash, role, account_verified,
			verification_code, verification_code_expiry, avatar_id, avatar_url
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		RETURNING created_at, updated_at, failed_attempts`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.AccountVerified,
		user.VerificationCode,
		user.VerificationCodeExpiry,
		user.AvatarID,
		user.AvatarURL,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// GetByEmail returns the account a login should target: the verified account
// if one exists, otherwise the most recent pending registration.
func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
		ORDER BY account_verified DESC, created_at DESC
		LIMIT 1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) GetVerifiedByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 AND account_verified`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get verified user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get verified user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetUnverifiedByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 AND NOT account_verified
		ORDER BY created_at DESC
		LIMIT 1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get unverified user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get unverified user: %w", err)
	}

	return &user, nil
}

func (r *repository) ReissueVerificationCode(
	ctx context.Context,
	id string,
	code int,
	expiry time.Time,
) error {
	query := `
		UPDATE users
		SET verification_code = $2, verification_code_expiry = $3,
		    failed_attempts = failed_attempts + 1, updated_at = NOW()
		WHERE id = $1 AND NOT account_verified`

	result, err := r.db.ExecContext(ctx, query, id, code, expiry)
	if err != nil {
		return fmt.Errorf("reissue verification code: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reissue verification code: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("reissue verification code: %w", core.ErrNotFound)
	}

	return nil
}

// MarkVerified flips the account to verified and clears the code fields in
// one conditional update, so each issued code can succeed at most once even
// under concurrent verification attempts.
func (r *repository) MarkVerified(
	ctx context.Context,
	id string,
	code int,
) error {
	query := `
		UPDATE users
		SET account_verified = true, verification_code = NULL,
		    verification_code_expiry = NULL, updated_at = NOW()
		WHERE id = $1 AND NOT account_verified AND verification_code = $2`

	result, err := r.db.ExecContext(ctx, query, id, code)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("mark verified: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) SetResetToken(
	ctx context.Context,
	id, tokenHash string,
	expiry time.Time,
) error {
	query := `
		UPDATE users
		SET reset_password_token = $2, reset_password_expiry = $3,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, tokenHash, expiry)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set reset token: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ClearResetToken(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET reset_password_token = NULL, reset_password_expiry = NULL,
		    updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}

	return nil
}

func (r *repository) GetByResetTokenHash(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE reset_password_token = $1 AND reset_password_expiry > $2`

	var user User
	err := r.db.GetContext(ctx, &user, query, tokenHash, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by reset token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by reset token: %w", err)
	}

	return &user, nil
}

func (r *repository) ListVerified(ctx context.Context) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE account_verified
		ORDER BY created_at DESC`

	var users []User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list verified users: %w", err)
	}

	return users, nil
}

func (r *repository) DeleteUnverifiedBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	query := `
		DELETE FROM users
		WHERE NOT account_verified AND created_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete unverified users: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete unverified users: %w", err)
	}

	return rows, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
