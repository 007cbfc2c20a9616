package model

import "time"

// UserRole represents the role of a user of the remote API.
type UserRole string

const (
	// RoleUser is a standard customer account.
	RoleUser UserRole = "user"
	// RoleAdmin can log in through the admin endpoint and list customers.
	RoleAdmin UserRole = "admin"
)

// Customer is one entry of the admin customer listing.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
