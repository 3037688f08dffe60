package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc := NewAESGCMEncryptionService()

	cipherText, err := svc.Encrypt("JBSWY3DPEHPK3PXP", testKeyHex)
	require.NoError(t, err)
	assert.NotEqual(t, "JBSWY3DPEHPK3PXP", cipherText)

	plainText, err := svc.Decrypt(cipherText, testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", plainText)
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	svc := NewAESGCMEncryptionService()

	first, err := svc.Encrypt("secret", testKeyHex)
	require.NoError(t, err)
	second, err := svc.Encrypt("secret", testKeyHex)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDecryptWithWrongKey(t *testing.T) {
	svc := NewAESGCMEncryptionService()

	cipherText, err := svc.Encrypt("secret", testKeyHex)
	require.NoError(t, err)

	wrongKey := strings.Repeat("ff", 32)
	_, err = svc.Decrypt(cipherText, wrongKey)
	assert.Error(t, err)
}

func TestInvalidKeys(t *testing.T) {
	svc := NewAESGCMEncryptionService()

	_, err := svc.Encrypt("secret", "not-hex")
	assert.Error(t, err)

	_, err = svc.Encrypt("secret", "abcd") // 2 bytes, not 32
	assert.Error(t, err)

	_, err = svc.Decrypt("dG9vc2hvcnQ", testKeyHex)
	assert.Error(t, err)
}
