// Package service implements the domain logic between HTTP handlers
// and the repositories.
package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
	"github.com/hanguyen1814/SmartLock/internal/events/kafka"
)

// AuditService records and reads the append-only activity trail.
type AuditService interface {
	// Record appends one entry. Auditing never fails the operation
	// that triggered it; persistence errors are logged and swallowed.
	Record(ctx context.Context, userID, lockID *uuid.UUID, action string, metadata map[string]any)
	List(ctx context.Context, params models.ListLogsParams) ([]*models.AuditLogEntry, int64, error)
	Recent(ctx context.Context, limit int) ([]*models.AuditLogEntry, error)
	// ExportCSV renders the full trail as CSV, newest first.
	ExportCSV(ctx context.Context) ([]byte, error)
}

type auditService struct {
	repo     repository.AuditLogRepository
	producer kafka.EventProducer
	logger   *zap.Logger
}

// NewAuditService creates the audit service.
func NewAuditService(repo repository.AuditLogRepository, producer kafka.EventProducer, logger *zap.Logger) AuditService {
	return &auditService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("audit_service"),
	}
}

func (s *auditService) Record(ctx context.Context, userID, lockID *uuid.UUID, action string, metadata map[string]any) {
	var metadataJSON json.RawMessage
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			s.logger.Error("failed to marshal audit metadata",
				zap.String("action", action), zap.Error(err))
		} else {
			metadataJSON = b
		}
	}

	entry := &models.AuditLog{
		ID:       uuid.New(),
		UserID:   userID,
		LockID:   lockID,
		Action:   action,
		Metadata: metadataJSON,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to persist audit entry",
			zap.String("action", action), zap.Error(err))
		return
	}

	subject := entry.ID.String()
	if userID != nil {
		subject = userID.String()
	}
	// Best effort; the producer logs its own failures.
	_ = s.producer.PublishAuditEvent(ctx, action, subject, entry)
}

func (s *auditService) List(ctx context.Context, params models.ListLogsParams) ([]*models.AuditLogEntry, int64, error) {
	return s.repo.List(ctx, params)
}

func (s *auditService) Recent(ctx context.Context, limit int) ([]*models.AuditLogEntry, error) {
	return s.repo.ListRecent(ctx, limit)
}

func (s *auditService) ExportCSV(ctx context.Context) ([]byte, error) {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "timestamp", "userEmail", "userName", "lockName", "action", "pin", "metadata"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		pin := ""
		metadata := ""
		if len(e.Metadata) > 0 {
			metadata = string(e.Metadata)
			var fields map[string]any
			if err := json.Unmarshal(e.Metadata, &fields); err == nil {
				if p, ok := fields["pin"].(string); ok {
					pin = p
				}
			}
		}
		record := []string{
			e.ID.String(),
			e.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
			e.UserEmail,
			e.UserName,
			e.LockName,
			e.Action,
			pin,
			metadata,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}
