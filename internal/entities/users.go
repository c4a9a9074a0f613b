package entities

import (
	"time"
)

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleAdmin   UserRole = "admin"
)

// ValidRole reports whether r is a known user role.
func ValidRole(r UserRole) bool {
	return r == UserRoleStudent || r == UserRoleAdmin
}

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"uniqueIndex;size:64" json:"username"`
	Email        string   `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string   `gorm:"size:100" json:"-"` // bcrypt digest, never serialized
	Role         UserRole `gorm:"size:20;default:'student'" json:"role"`

	// Optional campus metadata
	StudentID string `gorm:"size:50" json:"student_id,omitempty"`
	Course    string `gorm:"size:100" json:"course,omitempty"`
	Year      int    `json:"year,omitempty"`

	// Login throttling state
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
