package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
)

const commandColumns = `id, lock_id, command, status, issued_by, metadata, created_at, executed_at`

// LockCommandRepositoryPostgres implements repository.LockCommandRepository for PostgreSQL.
type LockCommandRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewLockCommandRepositoryPostgres creates a new instance.
func NewLockCommandRepositoryPostgres(pool *pgxpool.Pool) *LockCommandRepositoryPostgres {
	return &LockCommandRepositoryPostgres{pool: pool}
}

func scanCommand(row pgx.Row) (*models.LockCommand, error) {
	c := &models.LockCommand{}
	err := row.Scan(
		&c.ID, &c.LockID, &c.Command, &c.Status, &c.IssuedBy, &c.Metadata,
		&c.CreatedAt, &c.ExecutedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Enqueue appends a command to the tail of a device's queue.
func (r *LockCommandRepositoryPostgres) Enqueue(ctx context.Context, command *models.LockCommand) error {
	query := `
		INSERT INTO lock_commands (id, lock_id, command, status, issued_by, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		command.ID, command.LockID, command.Command, command.Status,
		command.IssuedBy, command.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue lock command: %w", err)
	}
	return nil
}

// NextPending returns the oldest pending entry without mutating it, so
// a device that polls again before acknowledging sees the same command.
// The (created_at, id) order keeps same-timestamp inserts stable.
func (r *LockCommandRepositoryPostgres) NextPending(ctx context.Context, lockID uuid.UUID) (*models.LockCommand, error) {
	query := `
		SELECT ` + commandColumns + `
		FROM lock_commands
		WHERE lock_id = $1 AND status = $2
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`
	c, err := scanCommand(r.pool.QueryRow(ctx, query, lockID, models.CommandPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrCommandNotFound
		}
		return nil, fmt.Errorf("failed to fetch next pending command: %w", err)
	}
	return c, nil
}

// MarkSent advances a pending entry to sent. Zero rows affected means
// the entry is missing or already past pending; either way a no-op.
func (r *LockCommandRepositoryPostgres) MarkSent(ctx context.Context, lockID, commandID uuid.UUID, at time.Time) error {
	query := `
		UPDATE lock_commands
		SET status = $1, executed_at = $2
		WHERE id = $3 AND lock_id = $4 AND status = $5
	`
	_, err := r.pool.Exec(ctx, query, models.CommandSent, at, commandID, lockID, models.CommandPending)
	if err != nil {
		return fmt.Errorf("failed to mark command sent: %w", err)
	}
	return nil
}

// MarkOutcome finishes a pending or sent entry. Terminal rows never
// transition again.
func (r *LockCommandRepositoryPostgres) MarkOutcome(ctx context.Context, lockID, commandID uuid.UUID, success bool, at time.Time) error {
	status := models.CommandCompleted
	if !success {
		status = models.CommandFailed
	}
	query := `
		UPDATE lock_commands
		SET status = $1, executed_at = $2
		WHERE id = $3 AND lock_id = $4 AND status IN ($5, $6)
	`
	_, err := r.pool.Exec(ctx, query, status, at, commandID, lockID,
		models.CommandPending, models.CommandSent)
	if err != nil {
		return fmt.Errorf("failed to mark command outcome: %w", err)
	}
	return nil
}

// ListByLock returns a device's full queue history, newest first.
func (r *LockCommandRepositoryPostgres) ListByLock(ctx context.Context, lockID uuid.UUID) ([]*models.LockCommand, error) {
	query := `
		SELECT ` + commandColumns + `
		FROM lock_commands
		WHERE lock_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.pool.Query(ctx, query, lockID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lock commands: %w", err)
	}
	defer rows.Close()

	var commands []*models.LockCommand
	for rows.Next() {
		c, err := scanCommand(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan command row: %w", err)
		}
		commands = append(commands, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate command rows: %w", err)
	}
	return commands, nil
}

// DeleteByLock clears a device's queue.
func (r *LockCommandRepositoryPostgres) DeleteByLock(ctx context.Context, lockID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM lock_commands WHERE lock_id = $1`, lockID); err != nil {
		return fmt.Errorf("failed to delete lock commands: %w", err)
	}
	return nil
}
