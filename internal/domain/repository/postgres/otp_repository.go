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
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
)

const otpColumns = `id, user_id, lock_id, created_by, code, expires_at,
	max_uses, used_count, created_at, consumed_at`

// OtpRepositoryPostgres implements repository.OtpRepository for PostgreSQL.
type OtpRepositoryPostgres struct {
	pool *pgxpool.Pool
}

// NewOtpRepositoryPostgres creates a new instance.
func NewOtpRepositoryPostgres(pool *pgxpool.Pool) *OtpRepositoryPostgres {
	return &OtpRepositoryPostgres{pool: pool}
}

func scanOtp(row pgx.Row) (*models.Otp, error) {
	o := &models.Otp{}
	err := row.Scan(
		&o.ID, &o.UserID, &o.LockID, &o.CreatedBy, &o.Code, &o.ExpiresAt,
		&o.MaxUses, &o.UsedCount, &o.CreatedAt, &o.ConsumedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Create persists a new code. A duplicate (user, lock, code) triple
// maps to ErrAlreadyExists so the caller can regenerate and retry.
func (r *OtpRepositoryPostgres) Create(ctx context.Context, otp *models.Otp) error {
	query := `
		INSERT INTO otps (id, user_id, lock_id, created_by, code, expires_at, max_uses, used_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		otp.ID, otp.UserID, otp.LockID, otp.CreatedBy, otp.Code,
		otp.ExpiresAt, otp.MaxUses, otp.UsedCount,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("OTP code already active for this user and lock: %w", domainErrors.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create OTP: %w", err)
	}
	return nil
}

// Consume redeems a code against a lock. The guarded UPDATE is the
// whole concurrency story: used_count only advances while below
// max_uses, so two racing redemptions of a single-use code can never
// both succeed. When the update exhausts the code the row is deleted
// in the same transaction.
func (r *OtpRepositoryPostgres) Consume(ctx context.Context, lockID uuid.UUID, code string, now time.Time) (*models.Otp, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin OTP consume transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE otps
		SET used_count = used_count + 1, consumed_at = $1
		WHERE lock_id = $2 AND code = $3 AND expires_at > $1 AND used_count < max_uses
		RETURNING ` + otpColumns
	o, err := scanOtp(tx.QueryRow(ctx, query, now, lockID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Absent, expired and exhausted are deliberately the same
			// answer; a device must not learn which it was.
			return nil, domainErrors.ErrOtpNotFound
		}
		return nil, fmt.Errorf("failed to consume OTP: %w", err)
	}

	if o.UsedCount >= o.MaxUses {
		if _, err := tx.Exec(ctx, `DELETE FROM otps WHERE id = $1`, o.ID); err != nil {
			return nil, fmt.Errorf("failed to delete exhausted OTP: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit OTP consume: %w", err)
	}
	return o, nil
}

// FindByUserAndCode looks a code up regardless of lock scope or
// remaining uses. The email verification path deletes whatever it finds.
func (r *OtpRepositoryPostgres) FindByUserAndCode(ctx context.Context, userID uuid.UUID, code string) (*models.Otp, error) {
	query := `SELECT ` + otpColumns + ` FROM otps WHERE user_id = $1 AND code = $2 LIMIT 1`
	o, err := scanOtp(r.pool.QueryRow(ctx, query, userID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrOtpNotFound
		}
		return nil, fmt.Errorf("failed to find OTP by user and code: %w", err)
	}
	return o, nil
}

// Delete removes one code.
func (r *OtpRepositoryPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM otps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete OTP: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrOtpNotFound
	}
	return nil
}

// DeleteByIDs removes a batch of codes.
func (r *OtpRepositoryPostgres) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM otps WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to delete OTPs: %w", err)
	}
	return nil
}

// DeleteExpiredScoped clears truly expired codes within one scope.
func (r *OtpRepositoryPostgres) DeleteExpiredScoped(ctx context.Context, userID uuid.UUID, lockID *uuid.UUID, now time.Time) error {
	query := `
		DELETE FROM otps
		WHERE user_id = $1 AND lock_id IS NOT DISTINCT FROM $2 AND expires_at <= $3
	`
	if _, err := r.pool.Exec(ctx, query, userID, lockID, now); err != nil {
		return fmt.Errorf("failed to delete expired OTPs in scope: %w", err)
	}
	return nil
}

// ListActiveScoped returns unexpired codes in a scope, newest first.
func (r *OtpRepositoryPostgres) ListActiveScoped(ctx context.Context, userID uuid.UUID, lockID *uuid.UUID, now time.Time) ([]*models.Otp, error) {
	query := `
		SELECT ` + otpColumns + `
		FROM otps
		WHERE user_id = $1 AND lock_id IS NOT DISTINCT FROM $2 AND expires_at > $3
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.pool.Query(ctx, query, userID, lockID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active OTPs in scope: %w", err)
	}
	return collectOtps(rows)
}

// ListActiveByLock returns redeemable codes for a device snapshot.
func (r *OtpRepositoryPostgres) ListActiveByLock(ctx context.Context, lockID uuid.UUID, now time.Time) ([]*models.Otp, error) {
	query := `
		SELECT ` + otpColumns + `
		FROM otps
		WHERE lock_id = $1 AND expires_at > $2 AND used_count < max_uses
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, lockID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active OTPs by lock: %w", err)
	}
	return collectOtps(rows)
}

// List applies the operator-facing listing filters.
func (r *OtpRepositoryPostgres) List(ctx context.Context, params repository.OtpListParams) ([]*models.Otp, error) {
	query := `SELECT ` + otpColumns + ` FROM otps WHERE 1=1`
	args := []any{}
	idx := 1

	if params.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", idx)
		args = append(args, *params.UserID)
		idx++
	}
	if params.LockID != nil {
		query += fmt.Sprintf(" AND lock_id = $%d", idx)
		args = append(args, *params.LockID)
		idx++
	}
	if params.CreatedBy != nil {
		query += fmt.Sprintf(" AND created_by = $%d", idx)
		args = append(args, *params.CreatedBy)
		idx++
	}
	switch params.Status {
	case "active":
		query += fmt.Sprintf(" AND expires_at > $%d AND used_count < max_uses", idx)
		args = append(args, params.Now)
		idx++
	case "expired":
		query += fmt.Sprintf(" AND expires_at <= $%d", idx)
		args = append(args, params.Now)
		idx++
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list OTPs: %w", err)
	}
	return collectOtps(rows)
}

// DeleteExpired removes all truly expired codes. Sentinel expiries sit
// a century out and are never matched.
func (r *OtpRepositoryPostgres) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM otps WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired OTPs: %w", err)
	}
	return result.RowsAffected(), nil
}

func collectOtps(rows pgx.Rows) ([]*models.Otp, error) {
	defer rows.Close()
	var otps []*models.Otp
	for rows.Next() {
		o, err := scanOtp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan OTP row: %w", err)
		}
		otps = append(otps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate OTP rows: %w", err)
	}
	return otps, nil
}
