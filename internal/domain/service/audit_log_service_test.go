package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/events/kafka"
)

func TestAuditRecord(t *testing.T) {
	ctx := context.Background()
	repo := &mockAuditLogRepo{}
	svc := NewAuditService(repo, kafka.NoopProducer{}, zap.NewNop())

	userID := uuid.New()
	repo.On("Create", ctx, mock.AnythingOfType("*models.AuditLog")).Return(nil).Once()

	svc.Record(ctx, &userID, nil, models.ActionLogin, map[string]any{"ip": "127.0.0.1"})

	repo.AssertExpectations(t)
	entry := repo.Calls[0].Arguments.Get(1).(*models.AuditLog)
	assert.Equal(t, models.ActionLogin, entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, userID, *entry.UserID)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal(entry.Metadata, &metadata))
	assert.Equal(t, "127.0.0.1", metadata["ip"])
}

func TestAuditRecordSwallowsPersistenceErrors(t *testing.T) {
	ctx := context.Background()
	repo := &mockAuditLogRepo{}
	svc := NewAuditService(repo, kafka.NoopProducer{}, zap.NewNop())

	repo.On("Create", ctx, mock.Anything).Return(assert.AnError).Once()

	// No panic, no error surface: auditing never fails its caller.
	svc.Record(ctx, nil, nil, models.ActionLogout, nil)
	repo.AssertExpectations(t)
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	repo := &mockAuditLogRepo{}
	svc := NewAuditService(repo, kafka.NoopProducer{}, zap.NewNop())

	createdAt := time.Date(2025, 6, 1, 12, 30, 45, 123_000_000, time.UTC)
	entries := []*models.AuditLogEntry{
		{
			AuditLog: models.AuditLog{
				ID:        uuid.New(),
				Action:    models.ActionLockOpenPin,
				Metadata:  json.RawMessage(`{"pin":"4321","status":"open"}`),
				CreatedAt: createdAt,
			},
			UserEmail: "alice@example.com",
			UserName:  "Alice",
			LockName:  "Front Door",
		},
		{
			AuditLog: models.AuditLog{ID: uuid.New(), Action: models.ActionLogout, CreatedAt: createdAt},
		},
	}
	repo.On("ListAll", ctx).Return(entries, nil).Once()

	data, err := svc.ExportCSV(ctx)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"id", "timestamp", "userEmail", "userName", "lockName", "action", "pin", "metadata"}, records[0])
	assert.Equal(t, "2025-06-01T12:30:45.123Z", records[1][1])
	assert.Equal(t, "alice@example.com", records[1][2])
	assert.Equal(t, "4321", records[1][6], "pin extracted from metadata")
	assert.Equal(t, "", records[2][6], "no pin column for entries without one")
}
