// Package users is the credential store for user records: model, repository
// contract, and the file- and Postgres-backed implementations.
package users

import "time"

// Role is the authorization level of a user. Only an exact admin match is
// modeled; there is no hierarchy.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is the stored identity record. Hash and Salt never leave the store
// layer except through this struct; use Safe() before exposing a user to
// anything outside the subsystem.
type User struct {
	ID        string            `json:"id"`
	Username  string            `json:"username"`
	Email     string            `json:"email,omitempty"`
	Hash      []byte            `json:"hash"`
	Salt      []byte            `json:"salt"`
	Role      Role              `json:"role"`
	CreatedAt time.Time         `json:"created_at"`
	LastLogin *time.Time        `json:"last_login,omitempty"`
	Settings  map[string]string `json:"settings,omitempty"`
}

// SafeUser is the projection of User with credential material stripped.
type SafeUser struct {
	ID        string            `json:"id"`
	Username  string            `json:"username"`
	Email     string            `json:"email,omitempty"`
	Role      Role              `json:"role"`
	CreatedAt time.Time         `json:"created_at"`
	LastLogin *time.Time        `json:"last_login,omitempty"`
	Settings  map[string]string `json:"settings,omitempty"`
}

// Safe returns the user without hash and salt.
func (u *User) Safe() *SafeUser {
	return &SafeUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
		Settings:  u.Settings,
	}
}
