package models

import (
	"time"
)

// RoleType defines the authorization role of a user account
type RoleType string

const (
	RoleAdmin   RoleType = "ADMIN"
	RoleStudent RoleType = "STUDENT"
)

// Valid reports whether r is one of the known roles
func (r RoleType) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// User defines the user model based on the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`                                                  // Unique identifier for the user
	Username    string     `json:"username" db:"username" example:"ayse.demir"`                             // Unique login name
	Password    string     `json:"-" db:"password"`                                                         // User's hashed password (excluded from JSON)
	RoleType    RoleType   `json:"roleType" db:"role_type" example:"STUDENT"`                               // User's role (ADMIN or STUDENT)
	CreatedAt   time.Time  `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"`                // Timestamp when the user was created
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at" example:"2024-01-02T15:30:00Z"`                // Timestamp when the user was last updated
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at" example:"2024-04-20T18:00:00Z"` // Timestamp of the last login (nullable)
}
