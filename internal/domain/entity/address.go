package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Address is a physical location owned by a user and optionally attached to one store.
type Address struct {
	ID           uuid.UUID
	UserID       *uuid.UUID // Owning user, if any.
	StoreID      *uuid.UUID // Store this address belongs to, if any.
	Street       string
	Neighborhood string
	City         string
	Number       string
	State        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullAddress renders "street, number - neighborhood, city - state".
func (a *Address) FullAddress() string {
	return fmt.Sprintf("%s, %s - %s, %s - %s", a.Street, a.Number, a.Neighborhood, a.City, a.State)
}

// IsOwnedBy reports whether userID owns the address.
func (a *Address) IsOwnedBy(userID uuid.UUID) bool {
	return a.UserID != nil && *a.UserID == userID
}
