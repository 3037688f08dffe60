package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
	"github.com/hanguyen1814/SmartLock/internal/infrastructure/security"
)

// --- Repository mocks ---

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByAccessCode(ctx context.Context, accessCode string) (*models.User, error) {
	args := m.Called(ctx, accessCode)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if users, ok := args.Get(0).([]*models.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockUserRepo) SetTwoFactor(ctx context.Context, id uuid.UUID, enabled bool, secretEncrypted string) error {
	return m.Called(ctx, id, enabled, secretEncrypted).Error(0)
}

func (m *mockUserRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, id)
	if session, ok := args.Get(0).(*models.Session); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionRepo) Touch(ctx context.Context, id uuid.UUID, lastActiveAt, expiresAt time.Time) error {
	return m.Called(ctx, id, lastActiveAt, expiresAt).Error(0)
}

func (m *mockSessionRepo) Activate(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	return m.Called(ctx, id, expiresAt).Error(0)
}

func (m *mockSessionRepo) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockBackupCodeRepo struct{ mock.Mock }

func (m *mockBackupCodeRepo) ReplaceForUser(ctx context.Context, userID uuid.UUID, codes []*models.BackupCode) error {
	return m.Called(ctx, userID, codes).Error(0)
}

func (m *mockBackupCodeRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.BackupCode, error) {
	args := m.Called(ctx, userID)
	if codes, ok := args.Get(0).([]*models.BackupCode); ok {
		return codes, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBackupCodeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackupCodeRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBackupCodeRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type mockOtpRepo struct{ mock.Mock }

func (m *mockOtpRepo) Create(ctx context.Context, otp *models.Otp) error {
	return m.Called(ctx, otp).Error(0)
}

func (m *mockOtpRepo) Consume(ctx context.Context, lockID uuid.UUID, code string, now time.Time) (*models.Otp, error) {
	args := m.Called(ctx, lockID, code, now)
	if otp, ok := args.Get(0).(*models.Otp); ok {
		return otp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOtpRepo) FindByUserAndCode(ctx context.Context, userID uuid.UUID, code string) (*models.Otp, error) {
	args := m.Called(ctx, userID, code)
	if otp, ok := args.Get(0).(*models.Otp); ok {
		return otp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOtpRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOtpRepo) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *mockOtpRepo) DeleteExpiredScoped(ctx context.Context, userID uuid.UUID, lockID *uuid.UUID, now time.Time) error {
	return m.Called(ctx, userID, lockID, now).Error(0)
}

func (m *mockOtpRepo) ListActiveScoped(ctx context.Context, userID uuid.UUID, lockID *uuid.UUID, now time.Time) ([]*models.Otp, error) {
	args := m.Called(ctx, userID, lockID, now)
	if otps, ok := args.Get(0).([]*models.Otp); ok {
		return otps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOtpRepo) ListActiveByLock(ctx context.Context, lockID uuid.UUID, now time.Time) ([]*models.Otp, error) {
	args := m.Called(ctx, lockID, now)
	if otps, ok := args.Get(0).([]*models.Otp); ok {
		return otps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOtpRepo) List(ctx context.Context, params repository.OtpListParams) ([]*models.Otp, error) {
	args := m.Called(ctx, params)
	if otps, ok := args.Get(0).([]*models.Otp); ok {
		return otps, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOtpRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockLockRepo struct{ mock.Mock }

func (m *mockLockRepo) Create(ctx context.Context, lock *models.Lock) error {
	return m.Called(ctx, lock).Error(0)
}

func (m *mockLockRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Lock, error) {
	args := m.Called(ctx, id)
	if lock, ok := args.Get(0).(*models.Lock); ok {
		return lock, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLockRepo) GetByToken(ctx context.Context, token string) (*models.Lock, error) {
	args := m.Called(ctx, token)
	if lock, ok := args.Get(0).(*models.Lock); ok {
		return lock, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLockRepo) List(ctx context.Context) ([]*models.Lock, error) {
	args := m.Called(ctx)
	if locks, ok := args.Get(0).([]*models.Lock); ok {
		return locks, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLockRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Lock, error) {
	args := m.Called(ctx, ids)
	if locks, ok := args.Get(0).([]*models.Lock); ok {
		return locks, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLockRepo) Update(ctx context.Context, lock *models.Lock) error {
	return m.Called(ctx, lock).Error(0)
}

func (m *mockLockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockLockRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LockStatus, seenAt time.Time) error {
	return m.Called(ctx, id, status, seenAt).Error(0)
}

func (m *mockLockRepo) TouchLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	return m.Called(ctx, id, seenAt).Error(0)
}

func (m *mockLockRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLockRepo) CountByStatus(ctx context.Context, status models.LockStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

type mockCommandRepo struct{ mock.Mock }

func (m *mockCommandRepo) Enqueue(ctx context.Context, command *models.LockCommand) error {
	return m.Called(ctx, command).Error(0)
}

func (m *mockCommandRepo) NextPending(ctx context.Context, lockID uuid.UUID) (*models.LockCommand, error) {
	args := m.Called(ctx, lockID)
	if command, ok := args.Get(0).(*models.LockCommand); ok {
		return command, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCommandRepo) MarkSent(ctx context.Context, lockID, commandID uuid.UUID, at time.Time) error {
	return m.Called(ctx, lockID, commandID, at).Error(0)
}

func (m *mockCommandRepo) MarkOutcome(ctx context.Context, lockID, commandID uuid.UUID, success bool, at time.Time) error {
	return m.Called(ctx, lockID, commandID, success, at).Error(0)
}

func (m *mockCommandRepo) ListByLock(ctx context.Context, lockID uuid.UUID) ([]*models.LockCommand, error) {
	args := m.Called(ctx, lockID)
	if commands, ok := args.Get(0).([]*models.LockCommand); ok {
		return commands, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCommandRepo) DeleteByLock(ctx context.Context, lockID uuid.UUID) error {
	return m.Called(ctx, lockID).Error(0)
}

type mockUserLockRepo struct{ mock.Mock }

func (m *mockUserLockRepo) Replace(ctx context.Context, lockID uuid.UUID, userIDs []uuid.UUID) error {
	return m.Called(ctx, lockID, userIDs).Error(0)
}

func (m *mockUserLockRepo) ListUsersByLock(ctx context.Context, lockID uuid.UUID) ([]*models.User, error) {
	args := m.Called(ctx, lockID)
	if users, ok := args.Get(0).([]*models.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserLockRepo) ListLockIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserLockRepo) Exists(ctx context.Context, userID, lockID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, lockID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserLockRepo) DeleteByLock(ctx context.Context, lockID uuid.UUID) error {
	return m.Called(ctx, lockID).Error(0)
}

func (m *mockUserLockRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type mockAuditLogRepo struct{ mock.Mock }

func (m *mockAuditLogRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockAuditLogRepo) List(ctx context.Context, params models.ListLogsParams) ([]*models.AuditLogEntry, int64, error) {
	args := m.Called(ctx, params)
	if entries, ok := args.Get(0).([]*models.AuditLogEntry); ok {
		return entries, args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *mockAuditLogRepo) ListRecent(ctx context.Context, limit int) ([]*models.AuditLogEntry, error) {
	args := m.Called(ctx, limit)
	if entries, ok := args.Get(0).([]*models.AuditLogEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuditLogRepo) ListAll(ctx context.Context) ([]*models.AuditLogEntry, error) {
	args := m.Called(ctx)
	if entries, ok := args.Get(0).([]*models.AuditLogEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSettingRepo struct{ mock.Mock }

func (m *mockSettingRepo) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockSettingRepo) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

// --- Security service mocks ---

type mockPasswordService struct{ mock.Mock }

func (m *mockPasswordService) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordService) CheckPasswordHash(password, encodedHash string) (bool, error) {
	args := m.Called(password, encodedHash)
	return args.Bool(0), args.Error(1)
}

type mockTokenService struct{ mock.Mock }

func (m *mockTokenService) Issue(userID uuid.UUID, sessionID uuid.UUID, tokenID string, role string) (string, error) {
	args := m.Called(userID, sessionID, tokenID, role)
	return args.String(0), args.Error(1)
}

func (m *mockTokenService) Validate(tokenString string) (*security.Claims, error) {
	args := m.Called(tokenString)
	if claims, ok := args.Get(0).(*security.Claims); ok {
		return claims, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTOTPService struct{ mock.Mock }

func (m *mockTOTPService) GenerateSecret(accountName string) (string, string, error) {
	args := m.Called(accountName)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockTOTPService) ValidateCode(secret string, code string) (bool, error) {
	args := m.Called(secret, code)
	return args.Bool(0), args.Error(1)
}

type mockEncryptionService struct{ mock.Mock }

func (m *mockEncryptionService) Encrypt(plainText string, keyHex string) (string, error) {
	args := m.Called(plainText, keyHex)
	return args.String(0), args.Error(1)
}

func (m *mockEncryptionService) Decrypt(cipherTextBase64 string, keyHex string) (string, error) {
	args := m.Called(cipherTextBase64, keyHex)
	return args.String(0), args.Error(1)
}

// --- Domain service mocks ---

type mockTwoFactorService struct{ mock.Mock }

func (m *mockTwoFactorService) Provision(ctx context.Context, user *models.User) (*ProvisionResult, error) {
	args := m.Called(ctx, user)
	if result, ok := args.Get(0).(*ProvisionResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTwoFactorService) ConfirmEnable(ctx context.Context, user *models.User, code string) ([]string, error) {
	args := m.Called(ctx, user, code)
	if codes, ok := args.Get(0).([]string); ok {
		return codes, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTwoFactorService) Verify(ctx context.Context, user *models.User, totpCode, backupCode string) error {
	return m.Called(ctx, user, totpCode, backupCode).Error(0)
}

func (m *mockTwoFactorService) Disable(ctx context.Context, user *models.User, password, backupCode string) error {
	return m.Called(ctx, user, password, backupCode).Error(0)
}

func (m *mockTwoFactorService) Status(ctx context.Context, user *models.User) (*TwoFactorStatus, error) {
	args := m.Called(ctx, user)
	if status, ok := args.Get(0).(*TwoFactorStatus); ok {
		return status, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTwoFactorService) RegenerateBackupCodes(ctx context.Context, user *models.User) ([]string, error) {
	args := m.Called(ctx, user)
	if codes, ok := args.Get(0).([]string); ok {
		return codes, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSettingService struct{ mock.Mock }

func (m *mockSettingService) OtpDefaultExpiry(ctx context.Context) int {
	return m.Called(ctx).Int(0)
}

func (m *mockSettingService) Get(ctx context.Context) (map[string]any, error) {
	args := m.Called(ctx)
	if settings, ok := args.Get(0).(map[string]any); ok {
		return settings, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSettingService) Update(ctx context.Context, req models.UpdateSettingsRequest) error {
	return m.Called(ctx, req).Error(0)
}

// recordedAudit is one captured Record call.
type recordedAudit struct {
	UserID   *uuid.UUID
	LockID   *uuid.UUID
	Action   string
	Metadata map[string]any
}

// recordingAudit captures audit records instead of persisting them.
// Record never fails callers, so a simple recorder beats a mock here.
type recordingAudit struct {
	mu      sync.Mutex
	entries []recordedAudit
}

func (r *recordingAudit) Record(ctx context.Context, userID, lockID *uuid.UUID, action string, metadata map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedAudit{UserID: userID, LockID: lockID, Action: action, Metadata: metadata})
}

func (r *recordingAudit) List(ctx context.Context, params models.ListLogsParams) ([]*models.AuditLogEntry, int64, error) {
	return nil, 0, nil
}

func (r *recordingAudit) Recent(ctx context.Context, limit int) ([]*models.AuditLogEntry, error) {
	return nil, nil
}

func (r *recordingAudit) ExportCSV(ctx context.Context) ([]byte, error) {
	return nil, nil
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		actions = append(actions, e.Action)
	}
	return actions
}
