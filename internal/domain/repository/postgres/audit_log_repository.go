package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanguyen1814/SmartLock/internal/domain/models"
)

const auditEntryColumns = `
	a.id, a.user_id, a.lock_id, a.action, a.metadata, a.created_at,
	COALESCE(u.email, ''), COALESCE(u.name, ''),
	COALESCE(l.name, ''), COALESCE(l.location, '')`

const auditEntryJoins = `
	FROM audit_logs a
	LEFT JOIN users u ON u.id = a.user_id
	LEFT JOIN locks l ON l.id = a.lock_id`

// AuditLogRepositoryPostgres implements repository.AuditLogRepository for PostgreSQL.
type AuditLogRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepositoryPostgres creates a new instance.
func NewAuditLogRepositoryPostgres(pool *pgxpool.Pool) *AuditLogRepositoryPostgres {
	return &AuditLogRepositoryPostgres{pool: pool}
}

// Create appends one entry. Rows are never updated or deleted.
func (r *AuditLogRepositoryPostgres) Create(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, user_id, lock_id, action, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.UserID, entry.LockID, entry.Action, entry.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log entry: %w", err)
	}
	return nil
}

// List returns a filtered page of entries, newest first, plus the
// total count under the same filters.
func (r *AuditLogRepositoryPostgres) List(ctx context.Context, params models.ListLogsParams) ([]*models.AuditLogEntry, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	idx := 1

	if params.LockID != nil {
		where += fmt.Sprintf(" AND a.lock_id = $%d", idx)
		args = append(args, *params.LockID)
		idx++
	}
	if params.UserID != nil {
		where += fmt.Sprintf(" AND a.user_id = $%d", idx)
		args = append(args, *params.UserID)
		idx++
	}
	if params.Action != "" {
		where += fmt.Sprintf(" AND a.action = $%d", idx)
		args = append(args, params.Action)
		idx++
	}

	var total int64
	countQuery := `SELECT COUNT(*)` + auditEntryJoins + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit log entries: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = 50
	}
	query := `SELECT` + auditEntryColumns + auditEntryJoins + where +
		fmt.Sprintf(" ORDER BY a.created_at DESC, a.id DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit log entries: %w", err)
	}
	entries, err := collectAuditEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListRecent returns the newest entries for the dashboard.
func (r *AuditLogRepositoryPostgres) ListRecent(ctx context.Context, limit int) ([]*models.AuditLogEntry, error) {
	if limit < 1 {
		limit = 10
	}
	query := `SELECT` + auditEntryColumns + auditEntryJoins +
		` ORDER BY a.created_at DESC, a.id DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent audit log entries: %w", err)
	}
	return collectAuditEntries(rows)
}

// ListAll returns every entry newest-first for CSV export.
func (r *AuditLogRepositoryPostgres) ListAll(ctx context.Context) ([]*models.AuditLogEntry, error) {
	query := `SELECT` + auditEntryColumns + auditEntryJoins +
		` ORDER BY a.created_at DESC, a.id DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list all audit log entries: %w", err)
	}
	return collectAuditEntries(rows)
}

func collectAuditEntries(rows pgx.Rows) ([]*models.AuditLogEntry, error) {
	defer rows.Close()
	var entries []*models.AuditLogEntry
	for rows.Next() {
		e := &models.AuditLogEntry{}
		err := rows.Scan(
			&e.ID, &e.UserID, &e.LockID, &e.Action, &e.Metadata, &e.CreatedAt,
			&e.UserEmail, &e.UserName, &e.LockName, &e.LockLocation,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit log rows: %w", err)
	}
	return entries, nil
}
