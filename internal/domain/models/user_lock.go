package models

import (
	"time"

	"github.com/google/uuid"
)

// UserLock assigns a user to a lock. Unique per (user, lock) pair; it
// governs which codes and commands an operator may create for a device
// and which users the device's sync snapshot includes.
type UserLock struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	LockID    uuid.UUID `json:"lockId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Assignment is a user joined through their lock assignment.
type Assignment struct {
	User User
}
