package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
)

// SettingRepositoryPostgres implements repository.SettingRepository for PostgreSQL.
type SettingRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewSettingRepositoryPostgres creates a new instance.
func NewSettingRepositoryPostgres(pool *pgxpool.Pool) *SettingRepositoryPostgres {
	return &SettingRepositoryPostgres{pool: pool}
}

// Get returns the stored value for key, or ErrNotFound.
func (r *SettingRepositoryPostgres) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domainErrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to read setting '%s': %w", key, err)
	}
	return value, nil
}

// Set upserts a setting row.
func (r *SettingRepositoryPostgres) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write setting '%s': %w", key, err)
	}
	return nil
}
