package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	svc := NewArgon2idPasswordService(nil)

	hash, err := svc.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	match, err := svc.CheckPasswordHash("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = svc.CheckPasswordHash("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestPasswordHashesAreSalted(t *testing.T) {
	svc := NewArgon2idPasswordService(nil)

	first, err := svc.HashPassword("password123")
	require.NoError(t, err)
	second, err := svc.HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestCheckPasswordHashMalformed(t *testing.T) {
	svc := NewArgon2idPasswordService(nil)

	_, err := svc.CheckPasswordHash("password", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)

	_, err = svc.CheckPasswordHash("password", "$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
