package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// backupCodeAlphabet omits 0, O, I, 1 and l so codes survive being
// read aloud or copied by hand.
const backupCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// Hex returns a random lowercase hex string of the given length.
func Hex(length int) (string, error) {
	b := make([]byte, (length+1)/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b)[:length], nil
}

// NumericCode returns a random code of exactly `digits` decimal digits
// with no leading zero, matching the keypad entry space.
func NumericCode(digits int) (string, error) {
	if digits < 1 {
		return "", fmt.Errorf("digits must be positive")
	}
	low := pow10(digits - 1)
	span := pow10(digits) - low
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", fmt.Errorf("failed to generate numeric code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+low), nil
}

// Pin returns a random numeric PIN of 4 to 8 digits.
func Pin() (string, error) {
	lengthOffset, err := rand.Int(rand.Reader, big.NewInt(5))
	if err != nil {
		return "", fmt.Errorf("failed to pick pin length: %w", err)
	}
	length := 4 + int(lengthOffset.Int64())

	var sb strings.Builder
	for i := 0; i < length; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate pin digit: %w", err)
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}

// AccessCode returns a fresh system-generated access code, e.g. "AC-9F3B21D0".
func AccessCode() (string, error) {
	suffix, err := Hex(8)
	if err != nil {
		return "", err
	}
	return "AC-" + strings.ToUpper(suffix), nil
}

// BackupCode returns one human-typable recovery code of 8 characters.
func BackupCode() (string, error) {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(backupCodeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate backup code: %w", err)
		}
		sb.WriteByte(backupCodeAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}

func pow10(n int) int64 {
	result := int64(1)
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}
