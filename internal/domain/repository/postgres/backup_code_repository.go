package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
)

// BackupCodeRepositoryPostgres implements repository.BackupCodeRepository for PostgreSQL.
type BackupCodeRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewBackupCodeRepositoryPostgres creates a new instance.
func NewBackupCodeRepositoryPostgres(pool *pgxpool.Pool) *BackupCodeRepositoryPostgres {
	return &BackupCodeRepositoryPostgres{pool: pool}
}

// ReplaceForUser swaps the user's stored code hashes in one transaction.
func (r *BackupCodeRepositoryPostgres) ReplaceForUser(ctx context.Context, userID uuid.UUID, codes []*models.BackupCode) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin backup code transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM backup_codes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear backup codes: %w", err)
	}
	for _, code := range codes {
		_, err := tx.Exec(ctx,
			`INSERT INTO backup_codes (id, user_id, code_hash) VALUES ($1, $2, $3)`,
			code.ID, code.UserID, code.CodeHash)
		if err != nil {
			return fmt.Errorf("failed to insert backup code: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit backup codes: %w", err)
	}
	return nil
}

// ListByUser returns codes in creation order.
func (r *BackupCodeRepositoryPostgres) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.BackupCode, error) {
	query := `
		SELECT id, user_id, code_hash, created_at
		FROM backup_codes
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list backup codes: %w", err)
	}
	defer rows.Close()

	var codes []*models.BackupCode
	for rows.Next() {
		c := &models.BackupCode{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.CodeHash, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup code row: %w", err)
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate backup code rows: %w", err)
	}
	return codes, nil
}

// Delete removes one consumed code.
func (r *BackupCodeRepositoryPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM backup_codes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete backup code: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// DeleteByUser removes all codes of a user.
func (r *BackupCodeRepositoryPostgres) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM backup_codes WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete backup codes: %w", err)
	}
	return result.RowsAffected(), nil
}

// CountByUser returns how many unused codes the user still holds.
func (r *BackupCodeRepositoryPostgres) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM backup_codes WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count backup codes: %w", err)
	}
	return count, nil
}
