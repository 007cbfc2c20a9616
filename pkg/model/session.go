package model

import (
	"slices"
	"time"
)

// Session represents an authenticated user session held by the client.
// A Session is either fully populated or absent (nil); it is never partial.
type Session struct {
	Email     string    `json:"email"`
	UserID    int64     `json:"id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"tokenExpirationDate"`
	Roles     []string  `json:"role"`
}

// IsExpired reports whether the token has expired at the given instant.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Remaining returns the time left until the token expires. It is negative
// once the token has expired.
func (s *Session) Remaining(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

// HasRole reports whether the session carries the given role.
func (s *Session) HasRole(role string) bool {
	return slices.Contains(s.Roles, role)
}

// IsAdmin reports whether the session has admin role.
func (s *Session) IsAdmin() bool {
	return s.HasRole(string(RoleAdmin))
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Roles = slices.Clone(s.Roles)
	return &c
}
