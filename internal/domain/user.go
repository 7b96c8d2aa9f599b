package domain

import "time"

// Roles known to the application. Role checks compare strings exactly.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user's stored role is exactly role.
func (u *User) HasRole(role string) bool {
	return u != nil && u.Role == role
}

// Session is a server-side login record referenced by the session cookie.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
