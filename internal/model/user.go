// Package model defines domain entities for the application.
package model

import "time"

// RoleAdmin is the role required for the /admin routes.
const RoleAdmin = "admin"

// User represents a registered account.
// The password hash is never serialized in API responses.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	HashedPassword string    `json:"-"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// AuthContext carries the identity resolved by the auth middleware.
type AuthContext struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}
