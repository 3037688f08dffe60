package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestSweeperDeletesExpired(t *testing.T) {
	otps := &mockOtpRepo{}
	sessions := &mockSessionRepo{}

	done := make(chan struct{})
	otps.On("DeleteExpired", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(2), nil)
	sessions.On("DeleteExpired", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(int64(1), nil).
		Run(func(mock.Arguments) {
			select {
			case done <- struct{}{}:
			default:
			}
		})

	sweeper := NewSweeper(otps, sessions, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go sweeper.Run(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never ran a pass")
	}
	cancel()

	otps.AssertCalled(t, "DeleteExpired", mock.Anything, mock.AnythingOfType("time.Time"))
	sessions.AssertCalled(t, "DeleteExpired", mock.Anything, mock.AnythingOfType("time.Time"))
}

func TestSweeperSurvivesErrors(t *testing.T) {
	otps := &mockOtpRepo{}
	sessions := &mockSessionRepo{}

	done := make(chan struct{})
	otps.On("DeleteExpired", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(int64(0), context.DeadlineExceeded)
	sessions.On("DeleteExpired", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(int64(0), nil).
		Run(func(mock.Arguments) {
			select {
			case done <- struct{}{}:
			default:
			}
		})

	sweeper := NewSweeper(otps, sessions, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go sweeper.Run(ctx)

	// The session sweep still runs after the otp sweep fails.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper stopped after a failed delete")
	}
	cancel()
}

func TestSweeperDefaultsInterval(t *testing.T) {
	sweeper := NewSweeper(&mockOtpRepo{}, &mockSessionRepo{}, 0, zap.NewNop())
	if sweeper.interval != time.Minute {
		t.Fatalf("expected default interval of one minute, got %v", sweeper.interval)
	}
}
