package models

import "time"

// Setting is one key/value configuration row.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SettingOtpDefaultExpiry is the key of the system-wide default OTP TTL.
const SettingOtpDefaultExpiry = "otp_default_expiry"

// DefaultOtpExpirySeconds applies when the setting row is absent.
const DefaultOtpExpirySeconds = 300

// OtpExpiryOptions returns the permitted values for the default OTP TTL.
func OtpExpiryOptions() []int {
	return []int{30, 60, 300}
}

// IsValidOtpExpiryOption reports whether value is a permitted TTL option.
func IsValidOtpExpiryOption(value int) bool {
	for _, option := range OtpExpiryOptions() {
		if option == value {
			return true
		}
	}
	return false
}
