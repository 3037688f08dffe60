package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// EncryptionService encrypts and decrypts short secrets at rest.
type EncryptionService interface {
	// Encrypt takes plaintext and a hex-encoded 32-byte key, returns
	// base64-encoded nonce+ciphertext+tag.
	Encrypt(plainText string, keyHex string) (string, error)
	// Decrypt reverses Encrypt.
	Decrypt(cipherTextBase64 string, keyHex string) (string, error)
}

type aesGCMEncryptionService struct{}

// NewAESGCMEncryptionService creates an AES-256-GCM EncryptionService.
func NewAESGCMEncryptionService() EncryptionService {
	return &aesGCMEncryptionService{}
}

func (s *aesGCMEncryptionService) Encrypt(plainText string, keyHex string) (string, error) {
	gcm, err := newGCM(keyHex)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	cipherText := gcm.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(cipherText), nil
}

func (s *aesGCMEncryptionService) Decrypt(cipherTextBase64 string, keyHex string) (string, error) {
	gcm, err := newGCM(keyHex)
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(cipherTextBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 ciphertext: %w", err)
	}
	if len(data) < gcm.NonceSize() {
		return "", errors.New("ciphertext shorter than nonce")
	}

	nonce, cipherText := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plainText, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plainText), nil
}

func newGCM(keyHex string) (cipher.AEAD, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex key: %w", err)
	}
	if len(key) != 32 {
		return nil, errors.New("invalid key length: must be 32 bytes for AES-256")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher block: %w", err)
	}
	return cipher.NewGCM(block)
}
