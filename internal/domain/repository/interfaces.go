// Package repository declares the persistence interfaces the domain
// services depend on. Implementations live in repository/postgres.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hanguyen1814/SmartLock/internal/domain/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByAccessCode(ctx context.Context, accessCode string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	// SetTwoFactor flips the 2FA flag and replaces the encrypted secret
	// in one statement. An empty secret clears enrollment.
	SetTwoFactor(ctx context.Context, id uuid.UUID, enabled bool, secretEncrypted string) error
	Count(ctx context.Context) (int64, error)
}

type BackupCodeRepository interface {
	// ReplaceForUser atomically swaps the user's stored code hashes.
	ReplaceForUser(ctx context.Context, userID uuid.UUID, codes []*models.BackupCode) error
	// ListByUser returns codes in creation order; verification scans
	// them linearly and consumes the first match.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.BackupCode, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	// Touch is the lightweight sliding-window save: it updates only
	// activity and expiry, skipping every other column. Last writer
	// wins; session liveness is approximate by nature.
	Touch(ctx context.Context, id uuid.UUID, lastActiveAt, expiresAt time.Time) error
	// Activate clears the pending-2FA marker and re-arms the expiry.
	Activate(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type OtpRepository interface {
	Create(ctx context.Context, otp *models.Otp) error
	// Consume atomically redeems a code for a lock: the increment only
	// happens while used_count < max_uses, so concurrent redemptions
	// can never overshoot the cap. Exhausting the final use deletes
	// the row in the same call. Missing, expired and exhausted codes
	// are indistinguishable: all return ErrOtpNotFound.
	Consume(ctx context.Context, lockID uuid.UUID, code string, now time.Time) (*models.Otp, error)
	// FindByUserAndCode is the lock-independent lookup used by the
	// one-shot email verification path.
	FindByUserAndCode(ctx context.Context, userID uuid.UUID, code string) (*models.Otp, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
	// DeleteExpiredScoped clears truly expired codes for one user,
	// optionally narrowed to one lock.
	DeleteExpiredScoped(ctx context.Context, userID uuid.UUID, lockID *uuid.UUID, now time.Time) error
	// ListActiveScoped returns unexpired codes for a (user, lock)
	// scope, newest first, for ceiling enforcement.
	ListActiveScoped(ctx context.Context, userID uuid.UUID, lockID *uuid.UUID, now time.Time) ([]*models.Otp, error)
	// ListActiveByLock returns unexpired, unexhausted codes for a
	// device's sync snapshot.
	ListActiveByLock(ctx context.Context, lockID uuid.UUID, now time.Time) ([]*models.Otp, error)
	List(ctx context.Context, params OtpListParams) ([]*models.Otp, error)
	// DeleteExpired is the sweep: it removes truly expired codes and,
	// by construction of the far-future sentinel, never touches
	// unlimited-duration codes. Delete-by-filter is idempotent, so
	// overlapping sweeps are harmless.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// OtpListParams filters the operator-facing OTP listing.
type OtpListParams struct {
	UserID    *uuid.UUID
	LockID    *uuid.UUID
	CreatedBy *uuid.UUID
	// Status is "active", "expired" or "" for all.
	Status string
	Now    time.Time
}

type LockRepository interface {
	Create(ctx context.Context, lock *models.Lock) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lock, error)
	GetByToken(ctx context.Context, token string) (*models.Lock, error)
	List(ctx context.Context) ([]*models.Lock, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Lock, error)
	Update(ctx context.Context, lock *models.Lock) error
	Delete(ctx context.Context, id uuid.UUID) error
	// UpdateStatus records a device-reported status and bumps lastSeen.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.LockStatus, seenAt time.Time) error
	TouchLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status models.LockStatus) (int64, error)
}

type LockCommandRepository interface {
	Enqueue(ctx context.Context, command *models.LockCommand) error
	// NextPending returns the first still-pending entry in insertion
	// order, without mutating it. Returns ErrCommandNotFound when the
	// queue has no pending entry.
	NextPending(ctx context.Context, lockID uuid.UUID) (*models.LockCommand, error)
	// MarkSent transitions a pending entry to sent. A missing or
	// already-progressed entry is a silent no-op: a racing report may
	// have completed it first.
	MarkSent(ctx context.Context, lockID, commandID uuid.UUID, at time.Time) error
	// MarkOutcome finishes an entry as completed or failed and stamps
	// executedAt. Terminal entries are immutable history, so only
	// pending/sent rows transition; anything else is a silent no-op.
	MarkOutcome(ctx context.Context, lockID, commandID uuid.UUID, success bool, at time.Time) error
	ListByLock(ctx context.Context, lockID uuid.UUID) ([]*models.LockCommand, error)
	DeleteByLock(ctx context.Context, lockID uuid.UUID) error
}

type UserLockRepository interface {
	// Replace swaps the full assignment set of a lock.
	Replace(ctx context.Context, lockID uuid.UUID, userIDs []uuid.UUID) error
	ListUsersByLock(ctx context.Context, lockID uuid.UUID) ([]*models.User, error)
	ListLockIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Exists(ctx context.Context, userID, lockID uuid.UUID) (bool, error)
	DeleteByLock(ctx context.Context, lockID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, params models.ListLogsParams) ([]*models.AuditLogEntry, int64, error)
	ListRecent(ctx context.Context, limit int) ([]*models.AuditLogEntry, error)
	// ListAll streams every entry newest-first for CSV export.
	ListAll(ctx context.Context) ([]*models.AuditLogEntry, error)
}

type SettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
