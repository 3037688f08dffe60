package security

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	svc := NewTOTPService("SmartLock")

	secret, uri, err := svc.GenerateSecret("alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.True(t, strings.HasPrefix(uri, "otpauth://totp/"))
	assert.Contains(t, uri, "SmartLock")
}

func TestValidateCode(t *testing.T) {
	svc := NewTOTPService("SmartLock")

	secret, _, err := svc.GenerateSecret("alice@example.com")
	require.NoError(t, err)

	code, err := totp.GenerateCodeCustom(secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)

	valid, err := svc.ValidateCode(secret, code)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = svc.ValidateCode(secret, "000000")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestValidateCodeWithinSkew(t *testing.T) {
	svc := NewTOTPService("SmartLock")

	secret, _, err := svc.GenerateSecret("alice@example.com")
	require.NoError(t, err)

	// A code from one step back stays valid inside the drift tolerance.
	code, err := totp.GenerateCodeCustom(secret, time.Now().Add(-30*time.Second), totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)

	valid, err := svc.ValidateCode(secret, code)
	require.NoError(t, err)
	assert.True(t, valid)
}
