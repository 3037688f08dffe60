package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is one append-only activity record.
type AuditLog struct {
	ID        uuid.UUID       `json:"id"`
	UserID    *uuid.UUID      `json:"userId,omitempty"`
	LockID    *uuid.UUID      `json:"lockId,omitempty"`
	Action    string          `json:"action"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AuditLogEntry is a log row joined with the naming details the audit
// surfaces (listing, CSV export, dashboard) need.
type AuditLogEntry struct {
	AuditLog
	UserEmail    string `json:"userEmail,omitempty"`
	UserName     string `json:"userName,omitempty"`
	LockName     string `json:"lockName,omitempty"`
	LockLocation string `json:"lockLocation,omitempty"`
}

// ListLogsParams filters and pages the audit listing.
type ListLogsParams struct {
	LockID *uuid.UUID
	UserID *uuid.UUID
	Action string
	Page   int
	Limit  int
}

// Audit actions recorded by the core components.
const (
	ActionLogin           = "auth.login"
	ActionLoginPending2FA = "auth.login.pending_2fa"
	ActionLogin2FAFailed  = "auth.login.2fa_failed"
	ActionLogout          = "auth.logout"

	Action2FASetup            = "2fa.setup"
	Action2FAEnable           = "2fa.enable"
	Action2FADisable          = "2fa.disable"
	Action2FAVerifyTOTP       = "2fa.verify.totp"
	Action2FAVerifyBackupCode = "2fa.verify.backup_code"
	Action2FARegenerateCodes  = "2fa.regenerate_backup_codes"

	ActionOtpCreate  = "otp.create"
	ActionOtpConsume = "otp.consume"
	ActionOtpVerify  = "otp.verify"

	ActionDeviceRegister = "device.register"
	ActionLockStatus     = "lock.status"
	ActionLockOpen       = "lock.open"
	ActionLockClose      = "lock.close"
	ActionLockOpenPin    = "lock.open.withPin"

	ActionLockCreate = "lock.create"
	ActionLockUpdate = "lock.update"
	ActionLockDelete = "lock.delete"
	ActionLockAssign = "lock.assign"

	ActionUserCreate      = "user.create"
	ActionUserUpdate      = "user.update"
	ActionUserDelete      = "user.delete"
	ActionUserPinChange   = "user.pin.change"
	ActionUserCodeReset   = "user.access_code.reset"
)

// CommandAuditAction names the audit action for an enqueued command.
func CommandAuditAction(command CommandType) string {
	return "lock.command." + string(command)
}
