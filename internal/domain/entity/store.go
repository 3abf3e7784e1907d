package entity

import (
	"time"

	"github.com/google/uuid"
)

// StoreDescriptionMaxLength bounds Store.Description.
const StoreDescriptionMaxLength = 500

// Store ("loja") is a shop owned by one user. Its address, if any, is the
// Address whose StoreID points back at it.
type Store struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	CNPJ        string // Unique tax ID.
	Description string
	PhotoURL    string // External URL or the key of an uploaded photo.
	PhotoKey    string // Blob key when the photo was uploaded.
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOwnedBy reports whether userID owns the store.
func (s *Store) IsOwnedBy(userID uuid.UUID) bool {
	return s.OwnerID == userID
}
