package security

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/hanguyen1814/SmartLock/internal/domain/errors"
)

func TestTokenIssueAndValidate(t *testing.T) {
	svc := NewHMACTokenService("test-secret", time.Hour, "smartlock-test")

	userID := uuid.New()
	sessionID := uuid.New()

	token, err := svc.Issue(userID, sessionID, "tid-abc123", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, "tid-abc123", claims.ID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "smartlock-test", claims.Issuer)
}

func TestTokenExpired(t *testing.T) {
	svc := NewHMACTokenService("test-secret", -time.Minute, "smartlock-test")

	token, err := svc.Issue(uuid.New(), uuid.New(), "tid", "user")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, domainErrors.ErrExpiredToken)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewHMACTokenService("secret-a", time.Hour, "smartlock-test")
	validator := NewHMACTokenService("secret-b", time.Hour, "smartlock-test")

	token, err := issuer.Issue(uuid.New(), uuid.New(), "tid", "user")
	require.NoError(t, err)

	_, err = validator.Validate(token)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	svc := NewHMACTokenService("test-secret", time.Hour, "smartlock-test")

	_, err := svc.Validate("not.a.token")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidToken)

	_, err = svc.Validate("")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidToken)
}
