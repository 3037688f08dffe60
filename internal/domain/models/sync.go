package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncFormat selects the snapshot shape a device pulls.
type SyncFormat string

const (
	SyncFormatFull   SyncFormat = "full"
	SyncFormatSimple SyncFormat = "simple"
)

// ParseSyncFormat folds the format query parameter into a known shape.
// "esp" is the legacy spelling of the compact format.
func ParseSyncFormat(value string) SyncFormat {
	switch value {
	case "simple", "esp":
		return SyncFormatSimple
	default:
		return SyncFormatFull
	}
}

// SyncUser is one assigned user in the device snapshot, merged with the
// most relevant active code for that user on this lock.
type SyncUser struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	AccessCode   string     `json:"accessCode"`
	Pin          string     `json:"pin"`
	OtpEnabled   bool       `json:"otpEnabled"`
	Otp          string     `json:"otp,omitempty"`
	OtpExpiresAt *time.Time `json:"otpExpiresAt,omitempty"`
}

// SyncOtp is one active code in the snapshot's flat OTP array.
type SyncOtp struct {
	ID            uuid.UUID  `json:"id,omitempty"`
	UserID        string     `json:"userId"`
	LockID        string     `json:"lockId,omitempty"`
	AccessCode    string     `json:"accessCode,omitempty"`
	Code          string     `json:"code"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	MaxUses       int        `json:"maxUses,omitempty"`
	UsedCount     int        `json:"usedCount"`
	RemainingUses int        `json:"remainingUses,omitempty"`
}

// SimpleSnapshot is the compact pull for constrained devices.
type SimpleSnapshot struct {
	Users      []SyncUser     `json:"users"`
	Otps       []SimpleSyncOtp `json:"otps"`
	ServerTime time.Time      `json:"serverTime"`
}

// SimpleSyncOtp trims SyncOtp to what keypad firmware consumes.
type SimpleSyncOtp struct {
	UserID     string    `json:"userId"`
	Code       string    `json:"code"`
	ExpiresAt  time.Time `json:"expiresAt"`
	AccessCode string    `json:"accessCode,omitempty"`
}

// FullSnapshot adds lock metadata and settings for richer clients.
type FullSnapshot struct {
	Lock       SnapshotLock   `json:"lock"`
	Users      []SyncUser     `json:"users"`
	Otps       []SyncOtp      `json:"otps"`
	Settings   SyncSettings   `json:"settings"`
	ServerTime time.Time      `json:"serverTime"`
}

type SnapshotLock struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Location  string     `json:"location,omitempty"`
	Status    LockStatus `json:"status"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type SyncSettings struct {
	OtpExpiry int `json:"otpExpiry"`
}
