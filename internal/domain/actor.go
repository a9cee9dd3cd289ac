package domain

import "github.com/google/uuid"

// Role identifies which side of the marketplace an actor belongs to.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated identity performing an operation.
// Authentication itself happens upstream; the engine only checks ownership and role.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the actor has admin privileges.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
