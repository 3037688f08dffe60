package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// UnlimitedExpiryHorizon is how far in the future an expiry is
	// stored for codes that never expire. A far-future timestamp keeps
	// every range comparison uniform; a true NULL would silently sort
	// as "already expired" in naive queries.
	UnlimitedExpiryHorizon = 100 * 365 * 24 * time.Hour

	// unlimitedThreshold: anything beyond this is treated as unlimited.
	// The margin below the storage horizon absorbs clock drift.
	unlimitedThreshold = 50 * 365 * 24 * time.Hour

	// MaxActiveOtpsPerScope caps simultaneously active codes per
	// (user, lock); the oldest active codes are evicted beyond it.
	MaxActiveOtpsPerScope = 10
)

// Otp is a lock-scoped, multi-use, time-bounded one-time code.
type Otp struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	LockID     *uuid.UUID `json:"lockId,omitempty"`
	CreatedBy  uuid.UUID  `json:"createdBy"`
	Code       string     `json:"code"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	MaxUses    int        `json:"maxUses"`
	UsedCount  int        `json:"usedCount"`
	CreatedAt  time.Time  `json:"createdAt"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
}

// UnlimitedExpiry returns the sentinel expiry for a never-expiring code.
func UnlimitedExpiry(now time.Time) time.Time {
	return now.Add(UnlimitedExpiryHorizon)
}

// ExpiryFromTTL converts a requested TTL into a stored expiry.
// A nil, zero or negative TTL means the code never expires.
func ExpiryFromTTL(now time.Time, ttlSeconds *int) time.Time {
	if ttlSeconds == nil || *ttlSeconds <= 0 {
		return UnlimitedExpiry(now)
	}
	return now.Add(time.Duration(*ttlSeconds) * time.Second)
}

// IsUnlimited reports whether the stored expiry is the far-future sentinel.
func (o *Otp) IsUnlimited(now time.Time) bool {
	return o.ExpiresAt.After(now.Add(unlimitedThreshold))
}

// IsExpired reports whether the code has truly expired. Sentinel
// expiries are always in the future and never report expired.
func (o *Otp) IsExpired(now time.Time) bool {
	return o.ExpiresAt.Before(now) && !o.IsUnlimited(now)
}

// IsExhausted reports whether every permitted use has been consumed.
func (o *Otp) IsExhausted() bool {
	return o.UsedCount >= o.MaxUses
}

// RemainingUses returns how many redemptions are left.
func (o *Otp) RemainingUses() int {
	remaining := o.MaxUses - o.UsedCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// NormalizeMaxUses clamps a requested use cap to at least one.
func NormalizeMaxUses(maxUses int) int {
	if maxUses < 1 {
		return 1
	}
	return maxUses
}

// ConsumeResult is what a device learns after redeeming a code.
type ConsumeResult struct {
	UsedCount     int `json:"usedCount"`
	MaxUses       int `json:"maxUses"`
	RemainingUses int `json:"remainingUses"`
}
