package security

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPService provisions and verifies time-based one-time passwords.
type TOTPService interface {
	// GenerateSecret returns a fresh base32 secret and the otpauth://
	// enrollment URI for the given account.
	GenerateSecret(accountName string) (secret string, enrollmentURI string, err error)
	// ValidateCode checks a submitted 6-digit code against the secret.
	ValidateCode(secret string, code string) (bool, error)
}

type pquernaTOTPService struct {
	issuer string
	// skew allows this many 30s steps of clock drift on either side.
	skew uint
}

// NewTOTPService creates a TOTPService with a ±2-step tolerance window.
func NewTOTPService(issuer string) TOTPService {
	return &pquernaTOTPService{issuer: issuer, skew: 2}
}

func (s *pquernaTOTPService) GenerateSecret(accountName string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
		SecretSize:  20,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate totp secret: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

func (s *pquernaTOTPService) ValidateCode(secret string, code string) (bool, error) {
	return totp.ValidateCustom(
		code,
		secret,
		time.Now(),
		totp.ValidateOpts{
			Period:    30,
			Skew:      s.skew,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		},
	)
}
