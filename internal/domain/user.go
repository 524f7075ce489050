package domain

import "time"

// Role determines what a user may do with incidents.
type Role string

// User roles.
const (
	RoleReporter  Role = "REPORTER"
	RoleResponder Role = "RESPONDER"
	RoleAdmin     Role = "ADMIN"
)

// IsValid checks if the role is valid.
func (r Role) IsValid() bool {
	return r == RoleReporter || r == RoleResponder || r == RoleAdmin
}

// HasPermission reports whether the role satisfies the minimum required role.
// Roles are ordered REPORTER < RESPONDER < ADMIN.
func (r Role) HasPermission(min Role) bool {
	return r.rank() >= min.rank()
}

func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleResponder:
		return 2
	case RoleReporter:
		return 1
	}
	return 0
}

// User represents an account known to the incident tracker.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
