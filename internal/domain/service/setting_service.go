package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/config"
	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
)

// SettingService reads and writes system-wide configuration rows.
type SettingService interface {
	// OtpDefaultExpiry returns the system default OTP TTL in seconds.
	// A missing or unreadable row falls back to the built-in default.
	OtpDefaultExpiry(ctx context.Context) int
	Get(ctx context.Context) (map[string]any, error)
	Update(ctx context.Context, req models.UpdateSettingsRequest) error
}

type settingService struct {
	repo   repository.SettingRepository
	cfg    *config.Config
	logger *zap.Logger
}

// NewSettingService creates the settings service.
func NewSettingService(repo repository.SettingRepository, cfg *config.Config, logger *zap.Logger) SettingService {
	return &settingService{
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("setting_service"),
	}
}

func (s *settingService) OtpDefaultExpiry(ctx context.Context) int {
	value, err := s.repo.Get(ctx, models.SettingOtpDefaultExpiry)
	if err != nil {
		if !domainErrors.IsNotFound(err) {
			s.logger.Warn("failed to read otp default expiry", zap.Error(err))
		}
		return s.fallbackExpiry()
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || !models.IsValidOtpExpiryOption(seconds) {
		return s.fallbackExpiry()
	}
	return seconds
}

func (s *settingService) fallbackExpiry() int {
	if s.cfg.Otp.DefaultExpiry > 0 {
		return int(s.cfg.Otp.DefaultExpiry.Seconds())
	}
	return models.DefaultOtpExpirySeconds
}

func (s *settingService) Get(ctx context.Context) (map[string]any, error) {
	return map[string]any{
		models.SettingOtpDefaultExpiry: s.OtpDefaultExpiry(ctx),
		"otp_expiry_options":           models.OtpExpiryOptions(),
	}, nil
}

func (s *settingService) Update(ctx context.Context, req models.UpdateSettingsRequest) error {
	if req.OtpDefaultExpiry == nil {
		return fmt.Errorf("%w: nothing to update", domainErrors.ErrInvalidRequest)
	}
	if !models.IsValidOtpExpiryOption(*req.OtpDefaultExpiry) {
		return fmt.Errorf("%w: otp_default_expiry must be one of %v",
			domainErrors.ErrInvalidRequest, models.OtpExpiryOptions())
	}
	return s.repo.Set(ctx, models.SettingOtpDefaultExpiry, strconv.Itoa(*req.OtpDefaultExpiry))
}
