package models

import (
	"time"

	"github.com/google/uuid"
)

// Pending2FATTL is the window a pending-2FA session stays completable.
const Pending2FATTL = 10 * time.Minute

// Session is one authenticated browser/API session.
//
// A freshly created session with RevokedAt set is not dead: it is the
// temporary handle for the second authentication factor. Completing
// 2FA clears RevokedAt and re-arms ExpiresAt with the full inactivity
// window. RevokedAt on an established session means logout.
type Session struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"userId"`
	TokenID      string     `json:"-"` // random identifier embedded in the JWT, never the JWT itself
	UserAgent    string     `json:"userAgent,omitempty"`
	IPAddress    string     `json:"ipAddress,omitempty"`
	LastActiveAt time.Time  `json:"lastActiveAt"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsExpired reports whether the absolute expiry has passed.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// IsInactive reports whether the inactivity ceiling has been exceeded.
func (s *Session) IsInactive(now time.Time, window time.Duration) bool {
	return now.Sub(s.LastActiveAt) > window
}

// IsPending2FA reports whether the session is awaiting the second factor.
func (s *Session) IsPending2FA() bool {
	return s.RevokedAt != nil
}

// IsUsable reports whether the session may authenticate a request.
func (s *Session) IsUsable(now time.Time, window time.Duration) bool {
	return s.RevokedAt == nil && !s.IsExpired(now) && !s.IsInactive(now, window)
}

// ClientMeta is the request metadata bound to a session at creation.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}
