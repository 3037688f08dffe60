package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
)

// Sweeper periodically deletes expired one-time codes and sessions.
// It is bound to the process lifetime: Run blocks until the context is
// cancelled, and the caller owns exactly one sweeper.
type Sweeper struct {
	otps     repository.OtpRepository
	sessions repository.SessionRepository
	interval time.Duration
	running  atomic.Bool
	logger   *zap.Logger
}

// NewSweeper creates a sweeper with the given tick interval.
func NewSweeper(otps repository.OtpRepository, sessions repository.SessionRepository, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		otps:     otps,
		sessions: sessions,
		interval: interval,
		logger:   logger.Named("sweeper"),
	}
}

// Run ticks until ctx is cancelled. A tick that outlasts the interval
// suppresses the next one instead of stacking up; the deletes are
// idempotent anyway, this just avoids pointless concurrent scans.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			if !s.running.CompareAndSwap(false, true) {
				continue
			}
			s.sweep(ctx)
			s.running.Store(false)
		}
	}
}

// sweep runs one pass. Errors are logged, never fatal: the next tick
// retries and expiry is enforced at read time regardless.
func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()

	otps, err := s.otps.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error("failed to sweep expired codes", zap.Error(err))
	} else if otps > 0 {
		s.logger.Info("swept expired codes", zap.Int64("count", otps))
	}

	sessions, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error("failed to sweep expired sessions", zap.Error(err))
	} else if sessions > 0 {
		s.logger.Info("swept expired sessions", zap.Int64("count", sessions))
	}
}
