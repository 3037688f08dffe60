package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiryFromTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("positive ttl", func(t *testing.T) {
		ttl := 300
		expiry := ExpiryFromTTL(now, &ttl)
		assert.Equal(t, now.Add(300*time.Second), expiry)
	})

	t.Run("nil ttl means unlimited", func(t *testing.T) {
		expiry := ExpiryFromTTL(now, nil)
		assert.Equal(t, UnlimitedExpiry(now), expiry)
	})

	t.Run("zero ttl means unlimited", func(t *testing.T) {
		ttl := 0
		expiry := ExpiryFromTTL(now, &ttl)
		assert.Equal(t, UnlimitedExpiry(now), expiry)
	})

	t.Run("negative ttl means unlimited", func(t *testing.T) {
		ttl := -60
		expiry := ExpiryFromTTL(now, &ttl)
		assert.Equal(t, UnlimitedExpiry(now), expiry)
	})
}

func TestOtpUnlimitedSentinel(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	unlimited := &Otp{ExpiresAt: UnlimitedExpiry(now)}
	assert.True(t, unlimited.IsUnlimited(now))
	assert.False(t, unlimited.IsExpired(now))

	// Far-future but below the recognition threshold: a long bounded TTL,
	// not a sentinel.
	bounded := &Otp{ExpiresAt: now.Add(365 * 24 * time.Hour)}
	assert.False(t, bounded.IsUnlimited(now))
	assert.False(t, bounded.IsExpired(now))

	expired := &Otp{ExpiresAt: now.Add(-time.Second)}
	assert.False(t, expired.IsUnlimited(now))
	assert.True(t, expired.IsExpired(now))
}

func TestOtpExhaustion(t *testing.T) {
	otp := &Otp{MaxUses: 3, UsedCount: 0}
	assert.False(t, otp.IsExhausted())
	assert.Equal(t, 3, otp.RemainingUses())

	otp.UsedCount = 3
	assert.True(t, otp.IsExhausted())
	assert.Equal(t, 0, otp.RemainingUses())

	// Overshoot never goes negative.
	otp.UsedCount = 5
	assert.True(t, otp.IsExhausted())
	assert.Equal(t, 0, otp.RemainingUses())
}

func TestNormalizeMaxUses(t *testing.T) {
	assert.Equal(t, 1, NormalizeMaxUses(0))
	assert.Equal(t, 1, NormalizeMaxUses(-5))
	assert.Equal(t, 1, NormalizeMaxUses(1))
	assert.Equal(t, 10, NormalizeMaxUses(10))
}
