package domain

import "time"

// Role determines which task operations a user may perform.
type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) IsValid() bool {
	return r == RoleManager || r == RoleEmployee
}

// User represents an authenticated identity in the platform.
// PasswordHash is never serialized outward.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the resolved caller of an action: a verified user id plus role.
type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) IsManager() bool {
	return i.Role == RoleManager
}
