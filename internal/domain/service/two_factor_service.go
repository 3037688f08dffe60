package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanguyen1814/SmartLock/internal/config"
	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
	"github.com/hanguyen1814/SmartLock/internal/infrastructure/security"
	"github.com/hanguyen1814/SmartLock/internal/utils/random"
)

// ProvisionResult carries the enrollment material for an authenticator
// app. The secret is shown exactly once.
type ProvisionResult struct {
	Secret        string `json:"secret"`
	EnrollmentURI string `json:"otpauthUrl"`
}

// TwoFactorStatus summarizes an account's 2FA state.
type TwoFactorStatus struct {
	Enabled              bool `json:"enabled"`
	BackupCodesRemaining int  `json:"backupCodesRemaining"`
}

// TwoFactorService manages TOTP enrollment and verification.
type TwoFactorService interface {
	// Provision generates a fresh secret for enrollment. Refused while
	// 2FA is already enabled.
	Provision(ctx context.Context, user *models.User) (*ProvisionResult, error)
	// ConfirmEnable proves possession of the provisioned secret and
	// switches 2FA on, returning the plaintext backup codes. They are
	// shown exactly once; only hashes are stored.
	ConfirmEnable(ctx context.Context, user *models.User, code string) ([]string, error)
	// Verify accepts either a TOTP code or a backup code. A matched
	// backup code is consumed.
	Verify(ctx context.Context, user *models.User, totpCode, backupCode string) error
	// Disable turns 2FA off after reauthentication by password or
	// backup code. All stored material is destroyed.
	Disable(ctx context.Context, user *models.User, password, backupCode string) error
	Status(ctx context.Context, user *models.User) (*TwoFactorStatus, error)
	// RegenerateBackupCodes replaces the stored set with a fresh one.
	RegenerateBackupCodes(ctx context.Context, user *models.User) ([]string, error)
}

type twoFactorService struct {
	users       repository.UserRepository
	backupCodes repository.BackupCodeRepository
	totp        security.TOTPService
	passwords   security.PasswordService
	encryption  security.EncryptionService
	audit       AuditService
	cfg         *config.Config
	logger      *zap.Logger
}

// NewTwoFactorService creates the 2FA service.
func NewTwoFactorService(
	users repository.UserRepository,
	backupCodes repository.BackupCodeRepository,
	totp security.TOTPService,
	passwords security.PasswordService,
	encryption security.EncryptionService,
	audit AuditService,
	cfg *config.Config,
	logger *zap.Logger,
) TwoFactorService {
	return &twoFactorService{
		users:       users,
		backupCodes: backupCodes,
		totp:        totp,
		passwords:   passwords,
		encryption:  encryption,
		audit:       audit,
		cfg:         cfg,
		logger:      logger.Named("two_factor_service"),
	}
}

func (s *twoFactorService) Provision(ctx context.Context, user *models.User) (*ProvisionResult, error) {
	if user.TwoFactor.Enabled {
		return nil, domainErrors.Err2FAAlreadyEnabled
	}

	secret, uri, err := s.totp.GenerateSecret(user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	encrypted, err := s.encryption.Encrypt(secret, s.cfg.TwoFA.SecretEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt TOTP secret: %w", err)
	}

	// Stored disabled: re-provisioning before confirmation simply
	// overwrites the previous candidate secret.
	if err := s.users.SetTwoFactor(ctx, user.ID, false, encrypted); err != nil {
		return nil, err
	}
	user.TwoFactor.SecretEncrypted = encrypted

	s.audit.Record(ctx, &user.ID, nil, models.Action2FASetup, nil)
	return &ProvisionResult{Secret: secret, EnrollmentURI: uri}, nil
}

func (s *twoFactorService) ConfirmEnable(ctx context.Context, user *models.User, code string) ([]string, error) {
	if user.TwoFactor.Enabled {
		return nil, domainErrors.Err2FAAlreadyEnabled
	}
	if user.TwoFactor.SecretEncrypted == "" {
		return nil, domainErrors.Err2FANotProvisioned
	}

	secret, err := s.encryption.Decrypt(user.TwoFactor.SecretEncrypted, s.cfg.TwoFA.SecretEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt TOTP secret: %w", err)
	}
	valid, err := s.totp.ValidateCode(secret, code)
	if err != nil {
		return nil, fmt.Errorf("failed to validate TOTP code: %w", err)
	}
	if !valid {
		return nil, domainErrors.ErrInvalid2FACode
	}

	plaintext, err := s.storeFreshBackupCodes(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetTwoFactor(ctx, user.ID, true, user.TwoFactor.SecretEncrypted); err != nil {
		return nil, err
	}
	user.TwoFactor.Enabled = true

	s.audit.Record(ctx, &user.ID, nil, models.Action2FAEnable, nil)
	return plaintext, nil
}

func (s *twoFactorService) Verify(ctx context.Context, user *models.User, totpCode, backupCode string) error {
	if !user.TwoFactor.Enabled {
		return domainErrors.Err2FANotEnabled
	}

	if totpCode != "" {
		secret, err := s.encryption.Decrypt(user.TwoFactor.SecretEncrypted, s.cfg.TwoFA.SecretEncryptionKey)
		if err != nil {
			return fmt.Errorf("failed to decrypt TOTP secret: %w", err)
		}
		valid, err := s.totp.ValidateCode(secret, totpCode)
		if err != nil {
			return fmt.Errorf("failed to validate TOTP code: %w", err)
		}
		if !valid {
			return domainErrors.ErrInvalid2FACode
		}
		s.audit.Record(ctx, &user.ID, nil, models.Action2FAVerifyTOTP, nil)
		return nil
	}

	if backupCode != "" {
		if err := s.consumeBackupCode(ctx, user.ID, backupCode); err != nil {
			return err
		}
		s.audit.Record(ctx, &user.ID, nil, models.Action2FAVerifyBackupCode, nil)
		return nil
	}

	return fmt.Errorf("%w: a token or backup code is required", domainErrors.ErrInvalidRequest)
}

func (s *twoFactorService) Disable(ctx context.Context, user *models.User, password, backupCode string) error {
	if !user.TwoFactor.Enabled {
		return domainErrors.Err2FANotEnabled
	}

	switch {
	case password != "":
		match, err := s.passwords.CheckPasswordHash(password, user.PasswordHash)
		if err != nil {
			return fmt.Errorf("failed to verify password: %w", err)
		}
		if !match {
			return domainErrors.ErrInvalidCredentials
		}
	case backupCode != "":
		if err := s.consumeBackupCode(ctx, user.ID, backupCode); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: a password or backup code is required", domainErrors.ErrInvalidRequest)
	}

	if err := s.users.SetTwoFactor(ctx, user.ID, false, ""); err != nil {
		return err
	}
	if _, err := s.backupCodes.DeleteByUser(ctx, user.ID); err != nil {
		return err
	}
	user.TwoFactor.Enabled = false
	user.TwoFactor.SecretEncrypted = ""

	s.audit.Record(ctx, &user.ID, nil, models.Action2FADisable, nil)
	return nil
}

func (s *twoFactorService) Status(ctx context.Context, user *models.User) (*TwoFactorStatus, error) {
	remaining := 0
	if user.TwoFactor.Enabled {
		count, err := s.backupCodes.CountByUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		remaining = count
	}
	return &TwoFactorStatus{Enabled: user.TwoFactor.Enabled, BackupCodesRemaining: remaining}, nil
}

func (s *twoFactorService) RegenerateBackupCodes(ctx context.Context, user *models.User) ([]string, error) {
	if !user.TwoFactor.Enabled {
		return nil, domainErrors.Err2FANotEnabled
	}
	plaintext, err := s.storeFreshBackupCodes(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &user.ID, nil, models.Action2FARegenerateCodes, nil)
	return plaintext, nil
}

// storeFreshBackupCodes generates a new code set, persists the hashes
// and returns the plaintexts.
func (s *twoFactorService) storeFreshBackupCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	count := s.cfg.TwoFA.BackupCodeCount
	if count <= 0 {
		count = 8
	}

	plaintext := make([]string, 0, count)
	stored := make([]*models.BackupCode, 0, count)
	for i := 0; i < count; i++ {
		code, err := random.BackupCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		hash, err := s.passwords.HashPassword(code)
		if err != nil {
			return nil, fmt.Errorf("failed to hash backup code: %w", err)
		}
		plaintext = append(plaintext, code)
		stored = append(stored, &models.BackupCode{
			ID:       uuid.New(),
			UserID:   userID,
			CodeHash: hash,
		})
	}
	if err := s.backupCodes.ReplaceForUser(ctx, userID, stored); err != nil {
		return nil, err
	}
	return plaintext, nil
}

// consumeBackupCode scans the stored hashes and deletes the first
// match. Each code works exactly once.
func (s *twoFactorService) consumeBackupCode(ctx context.Context, userID uuid.UUID, code string) error {
	stored, err := s.backupCodes.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, candidate := range stored {
		match, err := s.passwords.CheckPasswordHash(code, candidate.CodeHash)
		if err != nil {
			continue
		}
		if match {
			if err := s.backupCodes.Delete(ctx, candidate.ID); err != nil {
				return err
			}
			return nil
		}
	}
	return domainErrors.ErrInvalid2FACode
}
