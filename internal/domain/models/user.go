package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level of an operator account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

var pinRegex = regexp.MustCompile(`^[0-9]{4,8}$`)

// User is an operator account.
//
// PIN and access code are stored in clear: the device needs the raw
// values in its sync payload to match local keypad entries.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Pin          string     `json:"pin"`
	AccessCode   string     `json:"accessCode"`
	Role         Role       `json:"role"`
	OtpEnabled   bool       `json:"otpEnabled"`
	OtpExpiry    int        `json:"otpExpiry"` // seconds, per-user default for issued codes
	TwoFactor    TwoFactorState
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TwoFactorState groups the 2FA columns of a user row.
type TwoFactorState struct {
	Enabled         bool
	SecretEncrypted string // AES-GCM ciphertext of the base32 TOTP secret
}

// IsValidPin reports whether value is an acceptable numeric PIN.
func IsValidPin(value string) bool {
	return pinRegex.MatchString(value)
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserResponse is the caller-facing projection of a user. Password hash
// and 2FA secret never leave the service.
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Pin         string     `json:"pin"`
	AccessCode  string     `json:"accessCode"`
	Role        Role       `json:"role"`
	OtpEnabled  bool       `json:"otpEnabled"`
	OtpExpiry   int        `json:"otpExpiry"`
	TwoFactorEnabled bool  `json:"twoFactorEnabled"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ToResponse strips credentials from the user for API responses.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Pin:         u.Pin,
		AccessCode:  u.AccessCode,
		Role:        u.Role,
		OtpEnabled:  u.OtpEnabled,
		OtpExpiry:   u.OtpExpiry,
		TwoFactorEnabled: u.TwoFactor.Enabled,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// BackupCode is one stored hash of a single-use 2FA recovery code.
type BackupCode struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CodeHash  string
	CreatedAt time.Time
}
