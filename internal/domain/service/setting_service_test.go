package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/config"
	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
)

func TestSettingOtpDefaultExpiry(t *testing.T) {
	ctx := context.Background()

	t.Run("stored value wins", func(t *testing.T) {
		repo := &mockSettingRepo{}
		repo.On("Get", ctx, models.SettingOtpDefaultExpiry).Return("60", nil).Once()
		svc := NewSettingService(repo, &config.Config{}, zap.NewNop())

		assert.Equal(t, 60, svc.OtpDefaultExpiry(ctx))
	})

	t.Run("missing row falls back to config", func(t *testing.T) {
		repo := &mockSettingRepo{}
		repo.On("Get", ctx, models.SettingOtpDefaultExpiry).Return("", domainErrors.ErrNotFound).Once()
		cfg := &config.Config{Otp: config.OtpConfig{DefaultExpiry: 30 * time.Second}}
		svc := NewSettingService(repo, cfg, zap.NewNop())

		assert.Equal(t, 30, svc.OtpDefaultExpiry(ctx))
	})

	t.Run("missing row and config fall back to built-in default", func(t *testing.T) {
		repo := &mockSettingRepo{}
		repo.On("Get", ctx, models.SettingOtpDefaultExpiry).Return("", domainErrors.ErrNotFound).Once()
		svc := NewSettingService(repo, &config.Config{}, zap.NewNop())

		assert.Equal(t, models.DefaultOtpExpirySeconds, svc.OtpDefaultExpiry(ctx))
	})

	t.Run("corrupt stored value ignored", func(t *testing.T) {
		repo := &mockSettingRepo{}
		repo.On("Get", ctx, models.SettingOtpDefaultExpiry).Return("banana", nil).Once()
		svc := NewSettingService(repo, &config.Config{}, zap.NewNop())

		assert.Equal(t, models.DefaultOtpExpirySeconds, svc.OtpDefaultExpiry(ctx))
	})

	t.Run("out-of-range stored value ignored", func(t *testing.T) {
		repo := &mockSettingRepo{}
		repo.On("Get", ctx, models.SettingOtpDefaultExpiry).Return("999", nil).Once()
		svc := NewSettingService(repo, &config.Config{}, zap.NewNop())

		assert.Equal(t, models.DefaultOtpExpirySeconds, svc.OtpDefaultExpiry(ctx))
	})
}

func TestSettingUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid option persisted", func(t *testing.T) {
		repo := &mockSettingRepo{}
		repo.On("Set", ctx, models.SettingOtpDefaultExpiry, "60").Return(nil).Once()
		svc := NewSettingService(repo, &config.Config{}, zap.NewNop())

		value := 60
		require.NoError(t, svc.Update(ctx, models.UpdateSettingsRequest{OtpDefaultExpiry: &value}))
		repo.AssertExpectations(t)
	})

	t.Run("invalid option rejected", func(t *testing.T) {
		repo := &mockSettingRepo{}
		svc := NewSettingService(repo, &config.Config{}, zap.NewNop())

		value := 45
		err := svc.Update(ctx, models.UpdateSettingsRequest{OtpDefaultExpiry: &value})
		assert.ErrorIs(t, err, domainErrors.ErrInvalidRequest)
		repo.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty update rejected", func(t *testing.T) {
		repo := &mockSettingRepo{}
		svc := NewSettingService(repo, &config.Config{}, zap.NewNop())

		err := svc.Update(ctx, models.UpdateSettingsRequest{})
		assert.ErrorIs(t, err, domainErrors.ErrInvalidRequest)
	})
}
