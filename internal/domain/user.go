package domain

import "time"

// UserStatus represents lifecycle states for a user account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the directory entry for assignees, requesters and managers.
// Authentication lives upstream; this service only reads the directory.
type User struct {
	ID        string
	Name      string
	Email     string
	Timezone  string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
