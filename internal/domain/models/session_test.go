package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionLifecycle(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 30 * time.Minute

	t.Run("fresh session is usable", func(t *testing.T) {
		s := &Session{
			LastActiveAt: now,
			ExpiresAt:    now.Add(window),
		}
		assert.True(t, s.IsUsable(now, window))
		assert.False(t, s.IsPending2FA())
	})

	t.Run("pending 2fa session is not usable", func(t *testing.T) {
		revokedAt := now
		s := &Session{
			LastActiveAt: now,
			ExpiresAt:    now.Add(Pending2FATTL),
			RevokedAt:    &revokedAt,
		}
		assert.True(t, s.IsPending2FA())
		assert.False(t, s.IsUsable(now, window))
	})

	t.Run("absolute expiry", func(t *testing.T) {
		s := &Session{
			LastActiveAt: now,
			ExpiresAt:    now,
		}
		assert.True(t, s.IsExpired(now))
		assert.False(t, s.IsUsable(now, window))
	})

	t.Run("inactivity ceiling", func(t *testing.T) {
		s := &Session{
			LastActiveAt: now.Add(-window - time.Second),
			ExpiresAt:    now.Add(time.Hour),
		}
		assert.True(t, s.IsInactive(now, window))
		assert.False(t, s.IsUsable(now, window))
	})

	t.Run("activity inside the window keeps the session alive", func(t *testing.T) {
		s := &Session{
			LastActiveAt: now.Add(-window + time.Minute),
			ExpiresAt:    now.Add(time.Minute),
		}
		assert.True(t, s.IsUsable(now, window))
	})
}
