package domain

import "time"

// UserRole enumerates platform roles.
type UserRole string

const (
	UserRoleCitizen UserRole = "CITIZEN"
	UserRoleStaff   UserRole = "STAFF"
	UserRoleAdmin   UserRole = "ADMIN"
)

// ValidUserRole reports whether r is a known role.
func ValidUserRole(r UserRole) bool {
	switch r {
	case UserRoleCitizen, UserRoleStaff, UserRoleAdmin:
		return true
	}
	return false
}

// User is the domain model for registered accounts. Email is the unique,
// immutable key linking a user to the identity provider.
type User struct {
	ID               string
	Name             string
	Email            string
	Role             UserRole
	IssuesReported   int
	IsPremium        bool
	IsBlocked        bool
	SubscriptionDate *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
