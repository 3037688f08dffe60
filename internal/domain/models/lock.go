package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LockStatus is the last state a device reported for itself.
type LockStatus string

const (
	LockStatusOpen    LockStatus = "open"
	LockStatusClosed  LockStatus = "closed"
	LockStatusUnknown LockStatus = "unknown"
	LockStatusOpening LockStatus = "opening"
	LockStatusClosing LockStatus = "closing"
)

// CommandType is a physical action a device can be asked to perform.
type CommandType string

const (
	CommandOpen  CommandType = "open"
	CommandClose CommandType = "close"
)

// CommandStatus is the lifecycle state of a queued command.
type CommandStatus string

const (
	CommandPending   CommandStatus = "pending"
	CommandSent      CommandStatus = "sent"
	CommandCompleted CommandStatus = "completed"
	CommandFailed    CommandStatus = "failed"
)

// Lock is a device identity. The bearer token authenticates every
// device-facing call; it is generated once at registration.
type Lock struct {
	ID        uuid.UUID  `json:"id"`
	Token     string     `json:"-"`
	Name      string     `json:"name"`
	Location  string     `json:"location,omitempty"`
	Status    LockStatus `json:"status"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// LockCommand is one entry of a device's FIFO command queue.
// Completed and failed entries are immutable history.
type LockCommand struct {
	ID         uuid.UUID       `json:"id"`
	LockID     uuid.UUID       `json:"lockId"`
	Command    CommandType     `json:"command"`
	Status     CommandStatus   `json:"status"`
	IssuedBy   *uuid.UUID      `json:"issuedBy,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	ExecutedAt *time.Time      `json:"executedAt,omitempty"`
}

// IsValidCommand reports whether value names a known command type.
func IsValidCommand(value string) bool {
	return value == string(CommandOpen) || value == string(CommandClose)
}

// NormalizeLockStatus folds an untrusted device-reported status into
// the closed status set. Devices run low-trust firmware: the payload
// may be an object, a JSON-encoded string, an alternate spelling, or
// garbage. Nothing a device sends may cause its report to be rejected,
// so every unrecognized shape folds to unknown.
func NormalizeLockStatus(raw any) LockStatus {
	var value string
	switch v := raw.(type) {
	case string:
		value = v
	case LockStatus:
		value = string(v)
	default:
		return LockStatusUnknown
	}

	// Some firmware revisions double-encode the status field.
	if strings.HasPrefix(strings.TrimSpace(value), "{") {
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			if s, ok := parsed.(string); ok {
				value = s
			} else {
				return LockStatusUnknown
			}
		}
	}

	value = strings.ToLower(strings.TrimSpace(value))
	if value == "close" {
		value = string(LockStatusClosed)
	}

	switch LockStatus(value) {
	case LockStatusOpen, LockStatusClosed, LockStatusUnknown, LockStatusOpening, LockStatusClosing:
		return LockStatus(value)
	default:
		return LockStatusUnknown
	}
}
