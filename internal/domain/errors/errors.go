package errors

import (
	"errors"
	"fmt"
)

var (
	// General errors.
	ErrInternal       = errors.New("internal server error")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrForbidden      = errors.New("access denied")
	ErrUnauthorized   = errors.New("not authorized")

	// Authentication errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")

	// User errors.
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already in use")
	ErrInvalidPin   = errors.New("pin must be 4-8 digits")

	// Two-factor errors.
	ErrInvalid2FACode    = errors.New("invalid 2fa code")
	Err2FARequired       = errors.New("two-factor authentication required")
	Err2FAAlreadyEnabled = errors.New("two-factor authentication already enabled")
	Err2FANotEnabled     = errors.New("two-factor authentication not enabled")
	Err2FANotProvisioned = errors.New("two-factor authentication not provisioned")

	// Session errors.
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExpired    = errors.New("session expired")
	ErrSessionRevoked    = errors.New("session revoked")
	ErrSessionNotPending = errors.New("session is not pending two-factor verification")

	// OTP errors.
	ErrOtpNotFound = errors.New("otp not found")

	// Lock errors.
	ErrLockNotFound    = errors.New("lock not found")
	ErrCommandNotFound = errors.New("command not found")

	// Rate limiting.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// AppError carries an error with caller-facing metadata.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

// IsNotFound reports whether err belongs to the not-found class.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrOtpNotFound) ||
		errors.Is(err, ErrLockNotFound) ||
		errors.Is(err, ErrCommandNotFound)
}

// IsUnauthorized reports whether err belongs to the authorization class.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrSessionRevoked) ||
		errors.Is(err, ErrInvalid2FACode)
}

// IsConflict reports whether err belongs to the conflict class.
// Conflicts surface to callers as validation-level failures, never as crashes.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrEmailExists)
}

// IsBadRequest reports whether err belongs to the validation class.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidPin)
}

// IsForbidden reports whether err belongs to the forbidden class.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
