// Package identity carries the authenticated principal handed to every
// operation by the external identity provider. Authentication itself
// (passwords, sessions, resets) lives outside this service.
package identity

import "github.com/google/uuid"

// Role distinguishes the two sides of the marketplace.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleProvider
}

// Principal is an authenticated user as asserted by the identity provider.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}
