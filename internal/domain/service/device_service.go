package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
	"github.com/hanguyen1814/SmartLock/internal/domain/models"
	"github.com/hanguyen1814/SmartLock/internal/domain/repository"
	"github.com/hanguyen1814/SmartLock/internal/utils/random"
)

// RegisteredDevice is the one-time response to device registration.
// The token is shown once and stored by the firmware.
type RegisteredDevice struct {
	ID     uuid.UUID         `json:"id"`
	Token  string            `json:"token"`
	Name   string            `json:"name"`
	Status models.LockStatus `json:"status"`
}

// DeviceService is the device-facing surface: registration, token
// authentication, status reports, the command queue and sync pulls.
// Device payloads come from low-trust firmware and are normalized, not
// rejected.
type DeviceService interface {
	Register(ctx context.Context, req models.RegisterDeviceRequest) (*RegisteredDevice, error)
	// Authenticate resolves a bearer token to its lock.
	Authenticate(ctx context.Context, token string) (*models.Lock, error)
	// ReportStatus ingests a heartbeat: normalizes and stores the
	// reported status, optionally acknowledges a command outcome, and
	// attributes any reported PIN to an assigned user in the audit trail.
	ReportStatus(ctx context.Context, lock *models.Lock, req models.ReportStatusRequest) error
	// PollCommand returns the head of the pending queue without
	// consuming it; repeated polls see the same entry. When ackID is
	// set, that previously delivered entry is first marked sent.
	PollCommand(ctx context.Context, lock *models.Lock, ackID string) (*models.LockCommand, error)
	// IngestLogs stores device-side activity entries in the audit trail.
	IngestLogs(ctx context.Context, lock *models.Lock, entries []models.DeviceLogEntry) int
	// Snapshot assembles the sync payload for a device.
	Snapshot(ctx context.Context, lock *models.Lock, format models.SyncFormat) (any, error)
}

type deviceService struct {
	locks     repository.LockRepository
	commands  repository.LockCommandRepository
	userLocks repository.UserLockRepository
	users     repository.UserRepository
	otps      repository.OtpRepository
	settings  SettingService
	audit     AuditService
	logger    *zap.Logger
}

// NewDeviceService creates the device service.
func NewDeviceService(
	locks repository.LockRepository,
	commands repository.LockCommandRepository,
	userLocks repository.UserLockRepository,
	users repository.UserRepository,
	otps repository.OtpRepository,
	settings SettingService,
	audit AuditService,
	logger *zap.Logger,
) DeviceService {
	return &deviceService{
		locks:     locks,
		commands:  commands,
		userLocks: userLocks,
		users:     users,
		otps:      otps,
		settings:  settings,
		audit:     audit,
		logger:    logger.Named("device_service"),
	}
}

func (s *deviceService) Register(ctx context.Context, req models.RegisterDeviceRequest) (*RegisteredDevice, error) {
	token, err := random.Hex(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate device token: %w", err)
	}
	lock := &models.Lock{
		ID:       uuid.New(),
		Token:    token,
		Name:     req.Name,
		Location: req.Location,
		Status:   models.LockStatusUnknown,
	}
	if err := s.locks.Create(ctx, lock); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, nil, &lock.ID, models.ActionDeviceRegister, map[string]any{
		"name": lock.Name,
	})
	return &RegisteredDevice{ID: lock.ID, Token: lock.Token, Name: lock.Name, Status: lock.Status}, nil
}

func (s *deviceService) Authenticate(ctx context.Context, token string) (*models.Lock, error) {
	if token == "" {
		return nil, domainErrors.ErrUnauthorized
	}
	lock, err := s.locks.GetByToken(ctx, token)
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return nil, domainErrors.ErrUnauthorized
		}
		return nil, err
	}
	return lock, nil
}

func (s *deviceService) ReportStatus(ctx context.Context, lock *models.Lock, req models.ReportStatusRequest) error {
	now := time.Now().UTC()
	status := models.NormalizeLockStatus(req.Status)

	if err := s.locks.UpdateStatus(ctx, lock.ID, status, now); err != nil {
		return err
	}
	lock.Status = status
	lock.LastSeen = &now

	// A report may double as a command acknowledgment.
	if req.CommandID != "" {
		commandID, err := uuid.Parse(req.CommandID)
		if err == nil {
			success := req.Success == nil || *req.Success
			if err := s.commands.MarkOutcome(ctx, lock.ID, commandID, success, now); err != nil {
				s.logger.Warn("failed to record command outcome",
					zap.String("command_id", commandID.String()), zap.Error(err))
			}
		}
	}

	action := statusAuditAction(status)
	metadata := map[string]any{"status": string(status)}
	var userID *uuid.UUID
	if pin := req.ReportedPin(); pin != "" {
		metadata["pin"] = pin
		if match := s.matchPin(ctx, lock.ID, pin); match != nil {
			userID = &match.ID
			metadata["userName"] = match.Name
		}
		action = models.ActionLockOpenPin
	}
	s.audit.Record(ctx, userID, &lock.ID, action, metadata)
	return nil
}

func statusAuditAction(status models.LockStatus) string {
	switch status {
	case models.LockStatusOpen, models.LockStatusOpening:
		return models.ActionLockOpen
	case models.LockStatusClosed, models.LockStatusClosing:
		return models.ActionLockClose
	default:
		return models.ActionLockStatus
	}
}

// matchPin attributes a keypad PIN to one of the lock's assigned users.
// No match is fine; the event is still recorded with the raw PIN.
func (s *deviceService) matchPin(ctx context.Context, lockID uuid.UUID, pin string) *models.User {
	assigned, err := s.userLocks.ListUsersByLock(ctx, lockID)
	if err != nil {
		s.logger.Warn("failed to load assigned users for pin attribution", zap.Error(err))
		return nil
	}
	for _, user := range assigned {
		if user.Pin == pin || user.AccessCode == pin {
			return user
		}
	}
	return nil
}

func (s *deviceService) PollCommand(ctx context.Context, lock *models.Lock, ackID string) (*models.LockCommand, error) {
	now := time.Now().UTC()
	if err := s.locks.TouchLastSeen(ctx, lock.ID, now); err != nil {
		s.logger.Warn("failed to touch lock last seen", zap.Error(err))
	}

	if ackID != "" {
		commandID, err := uuid.Parse(ackID)
		if err == nil {
			if err := s.commands.MarkSent(ctx, lock.ID, commandID, now); err != nil {
				s.logger.Warn("failed to mark command sent",
					zap.String("command_id", commandID.String()), zap.Error(err))
			}
		}
	}

	return s.commands.NextPending(ctx, lock.ID)
}

func (s *deviceService) IngestLogs(ctx context.Context, lock *models.Lock, entries []models.DeviceLogEntry) int {
	stored := 0
	for i := range entries {
		entry := &entries[i]
		action := strings.TrimSpace(entry.Action)
		if action == "" {
			continue
		}

		metadata := map[string]any{}
		for k, v := range entry.Metadata {
			metadata[k] = v
		}
		metadata["source"] = "device"
		if entry.Time != nil {
			metadata["deviceTime"] = entry.Time.UTC()
		}
		if pin := entry.EntryPin(); pin != "" {
			metadata["pin"] = pin
		}

		userID := s.resolveLogUser(ctx, lock.ID, entry)
		s.audit.Record(ctx, userID, &lock.ID, "device."+action, metadata)
		stored++
	}
	return stored
}

// resolveLogUser maps a device log entry to a user by explicit ID,
// access code or PIN, in that order.
func (s *deviceService) resolveLogUser(ctx context.Context, lockID uuid.UUID, entry *models.DeviceLogEntry) *uuid.UUID {
	if entry.UserID != "" {
		if id, err := uuid.Parse(entry.UserID); err == nil {
			return &id
		}
	}
	if entry.AccessCode != "" {
		if user, err := s.users.GetByAccessCode(ctx, entry.AccessCode); err == nil {
			return &user.ID
		}
	}
	if pin := entry.EntryPin(); pin != "" {
		if user := s.matchPin(ctx, lockID, pin); user != nil {
			return &user.ID
		}
	}
	return nil
}

func (s *deviceService) Snapshot(ctx context.Context, lock *models.Lock, format models.SyncFormat) (any, error) {
	now := time.Now().UTC()
	if err := s.locks.TouchLastSeen(ctx, lock.ID, now); err != nil {
		s.logger.Warn("failed to touch lock last seen", zap.Error(err))
	}

	assigned, err := s.userLocks.ListUsersByLock(ctx, lock.ID)
	if err != nil {
		return nil, err
	}
	active, err := s.otps.ListActiveByLock(ctx, lock.ID, now)
	if err != nil {
		return nil, err
	}

	// Oldest-first from the repository; keep the newest active code
	// per user for the merged user view.
	newestByUser := map[uuid.UUID]*models.Otp{}
	for _, o := range active {
		newestByUser[o.UserID] = o
	}

	users := make([]models.SyncUser, 0, len(assigned))
	for _, u := range assigned {
		su := models.SyncUser{
			ID:         u.ID.String(),
			Name:       u.Name,
			Email:      u.Email,
			AccessCode: u.AccessCode,
			Pin:        u.Pin,
			OtpEnabled: u.OtpEnabled,
		}
		if o, ok := newestByUser[u.ID]; ok {
			su.Otp = o.Code
			expiresAt := o.ExpiresAt
			su.OtpExpiresAt = &expiresAt
		}
		users = append(users, su)
	}

	accessCodeByUser := map[uuid.UUID]string{}
	for _, u := range assigned {
		accessCodeByUser[u.ID] = u.AccessCode
	}

	if format == models.SyncFormatSimple {
		otps := make([]models.SimpleSyncOtp, 0, len(active))
		for _, o := range active {
			otps = append(otps, models.SimpleSyncOtp{
				UserID:     o.UserID.String(),
				Code:       o.Code,
				ExpiresAt:  o.ExpiresAt,
				AccessCode: accessCodeByUser[o.UserID],
			})
		}
		return &models.SimpleSnapshot{Users: users, Otps: otps, ServerTime: now}, nil
	}

	otps := make([]models.SyncOtp, 0, len(active))
	for _, o := range active {
		so := models.SyncOtp{
			ID:            o.ID,
			UserID:        o.UserID.String(),
			AccessCode:    accessCodeByUser[o.UserID],
			Code:          o.Code,
			ExpiresAt:     o.ExpiresAt,
			MaxUses:       o.MaxUses,
			UsedCount:     o.UsedCount,
			RemainingUses: o.RemainingUses(),
		}
		if o.LockID != nil {
			so.LockID = o.LockID.String()
		}
		otps = append(otps, so)
	}
	return &models.FullSnapshot{
		Lock: models.SnapshotLock{
			ID:        lock.ID,
			Name:      lock.Name,
			Location:  lock.Location,
			Status:    lock.Status,
			LastSeen:  lock.LastSeen,
			UpdatedAt: lock.UpdatedAt,
		},
		Users:      users,
		Otps:       otps,
		Settings:   models.SyncSettings{OtpExpiry: s.settings.OtpDefaultExpiry(ctx)},
		ServerTime: now,
	}, nil
}

// CommandPollResponse shapes the poll answer for firmware: command and
// commandId are top-level fields and the raw metadata travels
// untouched.
type CommandPollResponse struct {
	Command   models.CommandType `json:"command"`
	CommandID uuid.UUID          `json:"commandId"`
	Metadata  json.RawMessage    `json:"metadata,omitempty"`
	IssuedAt  time.Time          `json:"issuedAt"`
}
