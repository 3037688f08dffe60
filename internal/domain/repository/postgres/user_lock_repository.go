package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanguyen1814/SmartLock/internal/domain/models"
)

// UserLockRepositoryPostgres implements repository.UserLockRepository for PostgreSQL.
type UserLockRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewUserLockRepositoryPostgres creates a new instance.
func NewUserLockRepositoryPostgres(pool *pgxpool.Pool) *UserLockRepositoryPostgres {
	return &UserLockRepositoryPostgres{pool: pool}
}

// Replace swaps the full assignment set of a lock in one transaction.
func (r *UserLockRepositoryPostgres) Replace(ctx context.Context, lockID uuid.UUID, userIDs []uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin assignment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_locks WHERE lock_id = $1`, lockID); err != nil {
		return fmt.Errorf("failed to clear lock assignments: %w", err)
	}
	for _, userID := range userIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO user_locks (id, user_id, lock_id) VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, lock_id) DO NOTHING`,
			uuid.New(), userID, lockID)
		if err != nil {
			return fmt.Errorf("failed to insert lock assignment: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit lock assignments: %w", err)
	}
	return nil
}

// ListUsersByLock returns the users assigned to a lock.
func (r *UserLockRepositoryPostgres) ListUsersByLock(ctx context.Context, lockID uuid.UUID) ([]*models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.password_hash, u.pin, u.access_code, u.role,
			u.otp_enabled, u.otp_expiry, u.two_factor_enabled, u.two_factor_secret_encrypted,
			u.last_login_at, u.created_at, u.updated_at
		FROM users u
		JOIN user_locks ul ON ul.user_id = u.id
		WHERE ul.lock_id = $1
		ORDER BY u.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, lockID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by lock: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assigned user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assigned user rows: %w", err)
	}
	return users, nil
}

// ListLockIDsByUser returns the lock IDs a user is assigned to.
func (r *UserLockRepositoryPostgres) ListLockIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT lock_id FROM user_locks WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locks by user: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignment rows: %w", err)
	}
	return ids, nil
}

// Exists reports whether a user is assigned to a lock.
func (r *UserLockRepositoryPostgres) Exists(ctx context.Context, userID, lockID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_locks WHERE user_id = $1 AND lock_id = $2)`,
		userID, lockID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check lock assignment: %w", err)
	}
	return exists, nil
}

// DeleteByLock clears all assignments of a lock.
func (r *UserLockRepositoryPostgres) DeleteByLock(ctx context.Context, lockID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM user_locks WHERE lock_id = $1`, lockID); err != nil {
		return fmt.Errorf("failed to delete assignments by lock: %w", err)
	}
	return nil
}

// DeleteByUser clears all assignments of a user.
func (r *UserLockRepositoryPostgres) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM user_locks WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete assignments by user: %w", err)
	}
	return nil
}
