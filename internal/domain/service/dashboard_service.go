package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
)

const dashboardRecentLogs = 10

// DashboardService assembles the operator landing-page summary.
type DashboardService interface {
	Summary(ctx context.Context) (*models.DashboardResponse, error)
}

type dashboardService struct {
	users  repository.UserRepository
	locks  repository.LockRepository
	audit  AuditService
	logger *zap.Logger
}

// NewDashboardService creates the dashboard service.
func NewDashboardService(users repository.UserRepository, locks repository.LockRepository, audit AuditService, logger *zap.Logger) DashboardService {
	return &dashboardService{
		users:  users,
		locks:  locks,
		audit:  audit,
		logger: logger.Named("dashboard_service"),
	}
}

func (s *dashboardService) Summary(ctx context.Context) (*models.DashboardResponse, error) {
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalLocks, err := s.locks.Count(ctx)
	if err != nil {
		return nil, err
	}
	openLocks, err := s.locks.CountByStatus(ctx, models.LockStatusOpen)
	if err != nil {
		return nil, err
	}
	recent, err := s.audit.Recent(ctx, dashboardRecentLogs)
	if err != nil {
		return nil, err
	}

	logs := make([]models.AuditLogEntry, 0, len(recent))
	for _, e := range recent {
		logs = append(logs, *e)
	}
	return &models.DashboardResponse{
		Metrics: models.DashboardMetrics{
			TotalUsers: totalUsers,
			TotalLocks: totalLocks,
			OpenLocks:  openLocks,
		},
		RecentLogs: logs,
	}, nil
}
