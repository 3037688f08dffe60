package models

import (
	"time"

	"github.com/google/uuid"
)

// Operator-facing requests.

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginPendingResponse is returned instead of a credential whenever
// the account has 2FA enabled.
type LoginPendingResponse struct {
	RequiresTwoFactor bool   `json:"requiresTwoFactor"`
	SessionID         string `json:"sessionId"`
	Message           string `json:"message"`
}

type CompleteTwoFactorRequest struct {
	SessionID  string `json:"sessionId" binding:"required"`
	Token      string `json:"token"`
	BackupCode string `json:"backupCode"`
}

type VerifyTwoFactorRequest struct {
	Token      string `json:"token"`
	BackupCode string `json:"backupCode"`
}

type DisableTwoFactorRequest struct {
	Password   string `json:"password"`
	BackupCode string `json:"backupCode"`
}

type CreateUserRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Pin        string `json:"pin"`
	Role       Role   `json:"role"`
	OtpEnabled bool   `json:"otpEnabled"`
	OtpExpiry  int    `json:"otpExpiry"`
}

type UpdateUserRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	Role       *Role   `json:"role"`
	OtpEnabled *bool   `json:"otpEnabled"`
	OtpExpiry  *int    `json:"otpExpiry"`
}

type ChangePinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// IssueOtpRequest asks for a code for a user on a lock. UserID names
// the code's subject; empty means the caller. A nil or zero TTL
// requests an unlimited-duration code.
type IssueOtpRequest struct {
	UserID    string `json:"userId"`
	LockID    string `json:"lockId" binding:"required"`
	OtpExpiry *int   `json:"otpExpiry"`
	MaxUses   int    `json:"maxUses"`
}

type IssuedOtpResponse struct {
	Otp       string    `json:"otp"`
	ExpiresAt time.Time `json:"expiresAt"`
	MaxUses   int       `json:"maxUses"`
}

type VerifyOtpRequest struct {
	Email string `json:"email" binding:"required,email"`
	Otp   string `json:"otp" binding:"required"`
}

type CreateLockRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
}

type UpdateLockRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Status   *string `json:"status"`
}

type AssignUsersRequest struct {
	UserIDs []string `json:"userIds"`
}

type UpdateSettingsRequest struct {
	OtpDefaultExpiry *int `json:"otp_default_expiry"`
}

// Device-facing requests. These come from low-trust embedded clients;
// loosely typed fields are normalized, never rejected.

type RegisterDeviceRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
}

type ReportStatusRequest struct {
	Token     string `json:"token" binding:"required"`
	Status    any    `json:"status" binding:"required"`
	CommandID string `json:"commandId"`
	Success   *bool  `json:"success"`
	Pin       string `json:"pin"`
	UsedPin   string `json:"usedPin"`
}

// ReportedPin returns whichever PIN field the firmware populated.
func (r *ReportStatusRequest) ReportedPin() string {
	if r.Pin != "" {
		return r.Pin
	}
	return r.UsedPin
}

type ConsumeOtpRequest struct {
	Token string `json:"token" binding:"required"`
	Otp   string `json:"otp" binding:"required"`
}

type DeviceLogEntry struct {
	Action     string         `json:"action"`
	UserID     string         `json:"userId"`
	User       string         `json:"user"`
	AccessCode string         `json:"accessCode"`
	Pin        string         `json:"pin"`
	UsedPin    string         `json:"usedPin"`
	Time       *time.Time     `json:"time"`
	Metadata   map[string]any `json:"metadata"`
}

// EntryPin returns whichever PIN field the log entry populated.
func (e *DeviceLogEntry) EntryPin() string {
	if e.Pin != "" {
		return e.Pin
	}
	if e.UsedPin != "" {
		return e.UsedPin
	}
	if e.Metadata != nil {
		if pin, ok := e.Metadata["pin"].(string); ok {
			return pin
		}
	}
	return ""
}

type SyncLogsRequest struct {
	Token string           `json:"token" binding:"required"`
	Logs  []DeviceLogEntry `json:"logs"`
}

// DashboardResponse is the operator landing-page summary.
type DashboardResponse struct {
	Metrics    DashboardMetrics `json:"metrics"`
	RecentLogs []AuditLogEntry  `json:"recentLogs"`
}

type DashboardMetrics struct {
	TotalUsers int64 `json:"totalUsers"`
	TotalLocks int64 `json:"totalLocks"`
	OpenLocks  int64 `json:"activeLocks"`
}

// OtpListItem is the operator-facing view of an issued code.
type OtpListItem struct {
	ID            uuid.UUID    `json:"id"`
	Code          string       `json:"code"`
	User          *UserRef     `json:"user"`
	Lock          *LockRef     `json:"lock"`
	CreatedBy     *UserRef     `json:"createdBy"`
	ExpiresAt     time.Time    `json:"expiresAt"`
	ExpiresIn     *int         `json:"expiresIn"` // nil means unlimited
	IsExpired     bool         `json:"isExpired"`
	IsUnlimited   bool         `json:"isUnlimited"`
	MaxUses       int          `json:"maxUses"`
	UsedCount     int          `json:"usedCount"`
	RemainingUses int          `json:"remainingUses"`
	IsExhausted   bool         `json:"isExhausted"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type UserRef struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	AccessCode string    `json:"accessCode,omitempty"`
}

type LockRef struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Location string    `json:"location,omitempty"`
}
