// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
//
// Entities reference each other only through identifier fields; joins are
// performed by the usecase layer.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a marketplace account. It may own stores, addresses and exactly one cart.
type User struct {
	ID           uuid.UUID // The Global Unique Identifier (GUID) for the user.
	Name         string    // The user's display name or real name.
	Email        string    // Unique, used as the login identifier.
	CPF          string    // Unique national ID.
	PasswordHash string    // bcrypt hash, never serialized to clients.
	Roles        Roles     // Never empty; defaults to RoleUser.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role Role) bool {
	return u.Roles.Contains(role)
}
