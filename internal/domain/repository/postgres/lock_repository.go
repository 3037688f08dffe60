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

const lockColumns = `id, token, name, location, status, last_seen, created_at, updated_at`

// LockRepositoryPostgres implements repository.LockRepository for PostgreSQL.
type LockRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewLockRepositoryPostgres creates a new instance.
func NewLockRepositoryPostgres(pool *pgxpool.Pool) *LockRepositoryPostgres {
	return &LockRepositoryPostgres{pool: pool}
}

func scanLock(row pgx.Row) (*models.Lock, error) {
	l := &models.Lock{}
	err := row.Scan(
		&l.ID, &l.Token, &l.Name, &l.Location, &l.Status, &l.LastSeen,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Create persists a new device.
func (r *LockRepositoryPostgres) Create(ctx context.Context, lock *models.Lock) error {
	query := `
		INSERT INTO locks (id, token, name, location, status, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		lock.ID, lock.Token, lock.Name, lock.Location, lock.Status, lock.LastSeen,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("lock token already registered: %w", domainErrors.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create lock: %w", err)
	}
	return nil
}

// GetByID retrieves a lock by primary key.
func (r *LockRepositoryPostgres) GetByID(ctx context.Context, id uuid.UUID) (*models.Lock, error) {
	l, err := scanLock(r.pool.QueryRow(ctx, `SELECT `+lockColumns+` FROM locks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrLockNotFound
		}
		return nil, fmt.Errorf("failed to find lock by ID: %w", err)
	}
	return l, nil
}

// GetByToken authenticates a device by its bearer token.
func (r *LockRepositoryPostgres) GetByToken(ctx context.Context, token string) (*models.Lock, error) {
	l, err := scanLock(r.pool.QueryRow(ctx, `SELECT `+lockColumns+` FROM locks WHERE token = $1`, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrLockNotFound
		}
		return nil, fmt.Errorf("failed to find lock by token: %w", err)
	}
	return l, nil
}

// List returns all locks ordered by creation time.
func (r *LockRepositoryPostgres) List(ctx context.Context) ([]*models.Lock, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lockColumns+` FROM locks ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locks: %w", err)
	}
	return collectLocks(rows)
}

// ListByIDs returns the locks matching ids, in creation order.
func (r *LockRepositoryPostgres) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Lock, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+lockColumns+` FROM locks WHERE id = ANY($1) ORDER BY created_at ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list locks by IDs: %w", err)
	}
	return collectLocks(rows)
}

// Update persists mutable lock fields.
func (r *LockRepositoryPostgres) Update(ctx context.Context, lock *models.Lock) error {
	query := `
		UPDATE locks
		SET name = $1, location = $2, status = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := r.pool.Exec(ctx, query, lock.Name, lock.Location, lock.Status, lock.ID)
	if err != nil {
		return fmt.Errorf("failed to update lock: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrLockNotFound
	}
	return nil
}

// Delete removes a lock. Commands, assignments and lock-scoped codes
// cascade via foreign keys.
func (r *LockRepositoryPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM locks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lock: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrLockNotFound
	}
	return nil
}

// UpdateStatus records a device-reported status and bumps last_seen.
func (r *LockRepositoryPostgres) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LockStatus, seenAt time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE locks SET status = $1, last_seen = $2, updated_at = NOW() WHERE id = $3`,
		status, seenAt, id)
	if err != nil {
		return fmt.Errorf("failed to update lock status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrLockNotFound
	}
	return nil
}

// TouchLastSeen records device liveness without touching status.
func (r *LockRepositoryPostgres) TouchLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE locks SET last_seen = $1, updated_at = NOW() WHERE id = $2`, seenAt, id)
	if err != nil {
		return fmt.Errorf("failed to touch lock last seen: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrLockNotFound
	}
	return nil
}

// Count returns the total number of locks.
func (r *LockRepositoryPostgres) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM locks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count locks: %w", err)
	}
	return count, nil
}

// CountByStatus returns how many locks last reported the given status.
func (r *LockRepositoryPostgres) CountByStatus(ctx context.Context, status models.LockStatus) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM locks WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count locks by status: %w", err)
	}
	return count, nil
}

func collectLocks(rows pgx.Rows) ([]*models.Lock, error) {
	defer rows.Close()
	var locks []*models.Lock
	for rows.Next() {
		l, err := scanLock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lock row: %w", err)
		}
		locks = append(locks, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lock rows: %w", err)
	}
	return locks, nil
}
