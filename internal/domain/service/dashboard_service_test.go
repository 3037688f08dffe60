package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/domain/models"
)

func TestDashboardSummary(t *testing.T) {
	ctx := context.Background()
	users := &mockUserRepo{}
	locks := &mockLockRepo{}

	users.On("Count", ctx).Return(int64(7), nil).Once()
	locks.On("Count", ctx).Return(int64(3), nil).Once()
	locks.On("CountByStatus", ctx, models.LockStatusOpen).Return(int64(1), nil).Once()

	svc := NewDashboardService(users, locks, &recordingAudit{}, zap.NewNop())

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), summary.Metrics.TotalUsers)
	assert.Equal(t, int64(3), summary.Metrics.TotalLocks)
	assert.Equal(t, int64(1), summary.Metrics.OpenLocks)
	assert.Empty(t, summary.RecentLogs)
}
