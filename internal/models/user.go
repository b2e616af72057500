// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User represents a builder account. A user owns themes, content and assets.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Image        *string   `json:"image,omitempty"`
	Role         Role      `json:"role"`
	LicenseKey   string    `json:"licenseKey"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName joins first and last name, falling back to the email address.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// ProfileUpdate carries the optional fields of a profile edit. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Image     *string `json:"image,omitempty"`
}
