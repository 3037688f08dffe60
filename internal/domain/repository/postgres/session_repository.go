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

// SessionRepositoryPostgres implements repository.SessionRepository for PostgreSQL.
type SessionRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewSessionRepositoryPostgres creates a new instance.
func NewSessionRepositoryPostgres(pool *pgxpool.Pool) *SessionRepositoryPostgres {
	return &SessionRepositoryPostgres{pool: pool}
}

// Create persists a new session.
func (r *SessionRepositoryPostgres) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, token_id, user_agent, ip_address,
			last_active_at, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID, session.UserID, session.TokenID, session.UserAgent, session.IPAddress,
		session.LastActiveAt, session.ExpiresAt, session.RevokedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by primary key.
func (r *SessionRepositoryPostgres) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	query := `
		SELECT id, user_id, token_id, user_agent, ip_address,
			last_active_at, expires_at, revoked_at, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`
	s := &models.Session{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.TokenID, &s.UserAgent, &s.IPAddress,
		&s.LastActiveAt, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session by ID: %w", err)
	}
	return s, nil
}

// Touch slides the activity window. Only the two timestamps move; no
// read-modify-write, so concurrent touches just race to the newest value.
func (r *SessionRepositoryPostgres) Touch(ctx context.Context, id uuid.UUID, lastActiveAt, expiresAt time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE sessions SET last_active_at = $1, expires_at = $2, updated_at = NOW() WHERE id = $3`,
		lastActiveAt, expiresAt, id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrSessionNotFound
	}
	return nil
}

// Activate clears the pending-2FA marker and re-arms expiry. Only a
// still-pending session transitions.
func (r *SessionRepositoryPostgres) Activate(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	query := `
		UPDATE sessions
		SET revoked_at = NULL, last_active_at = NOW(), expires_at = $1, updated_at = NOW()
		WHERE id = $2 AND revoked_at IS NOT NULL
	`
	result, err := r.pool.Exec(ctx, query, expiresAt, id)
	if err != nil {
		return fmt.Errorf("failed to activate session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrSessionNotFound
	}
	return nil
}

// Revoke marks a session as logged out.
func (r *SessionRepositoryPostgres) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE sessions SET revoked_at = $1, updated_at = NOW() WHERE id = $2 AND revoked_at IS NULL`,
		at, id)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session row.
func (r *SessionRepositoryPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired removes sessions past their absolute expiry. Used by
// the periodic sweep; deleting by filter is idempotent.
func (r *SessionRepositoryPostgres) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected(), nil
}
