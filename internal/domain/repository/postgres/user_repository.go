// Package postgres implements the repository interfaces over pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
)

const userColumns = `id, name, email, password_hash, pin, access_code, role,
	otp_enabled, otp_expiry, two_factor_enabled, two_factor_secret_encrypted,
	last_login_at, created_at, updated_at`

// UserRepositoryPostgres implements repository.UserRepository for PostgreSQL.
type UserRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewUserRepositoryPostgres creates a new instance.
func NewUserRepositoryPostgres(pool *pgxpool.Pool) *UserRepositoryPostgres {
	return &UserRepositoryPostgres{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Pin, &u.AccessCode, &u.Role,
		&u.OtpEnabled, &u.OtpExpiry, &u.TwoFactor.Enabled, &u.TwoFactor.SecretEncrypted,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create persists a new user.
func (r *UserRepositoryPostgres) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, pin, access_code, role,
			otp_enabled, otp_expiry, two_factor_enabled, two_factor_secret_encrypted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Pin, user.AccessCode,
		user.Role, user.OtpEnabled, user.OtpExpiry,
		user.TwoFactor.Enabled, user.TwoFactor.SecretEncrypted,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("user with email '%s' already exists: %w", user.Email, domainErrors.ErrEmailExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by primary key.
func (r *UserRepositoryPostgres) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepositoryPostgres) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return u, nil
}

// GetByAccessCode retrieves a user by their device access code.
func (r *UserRepositoryPostgres) GetByAccessCode(ctx context.Context, accessCode string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE access_code = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, accessCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by access code: %w", err)
	}
	return u, nil
}

// List returns all users ordered by creation time.
func (r *UserRepositoryPostgres) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}

// Update persists mutable user fields.
func (r *UserRepositoryPostgres) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, pin = $4, access_code = $5,
			role = $6, otp_enabled = $7, otp_expiry = $8, updated_at = NOW()
		WHERE id = $9
	`
	result, err := r.pool.Exec(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Pin, user.AccessCode,
		user.Role, user.OtpEnabled, user.OtpExpiry, user.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("user with email '%s' already exists: %w", user.Email, domainErrors.ErrEmailExists)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// Delete removes a user. Dependent rows cascade via foreign keys.
func (r *UserRepositoryPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin stamps a successful authentication.
func (r *UserRepositoryPostgres) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login_at = $1, updated_at = NOW() WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// SetTwoFactor flips the 2FA flag and replaces the encrypted secret.
func (r *UserRepositoryPostgres) SetTwoFactor(ctx context.Context, id uuid.UUID, enabled bool, secretEncrypted string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET two_factor_enabled = $1, two_factor_secret_encrypted = $2, updated_at = NOW() WHERE id = $3`,
		enabled, secretEncrypted, id)
	if err != nil {
		return fmt.Errorf("failed to update two-factor state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// Count returns the total number of users.
func (r *UserRepositoryPostgres) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
