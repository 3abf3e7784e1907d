package repository

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/errors"

	"github.com/google/uuid"
)

// ErrAddressNotFound is returned when an address is not found.
var ErrAddressNotFound = errors.New("address not found")

// AddressRepository defines the interface for address persistence.
type AddressRepository interface {
	CreateAddress(ctx context.Context, address *entity.Address) error

	FindAddressByID(ctx context.Context, id uuid.UUID) (*entity.Address, error)

	// FindAddressesByUser returns the user's addresses, oldest first.
	FindAddressesByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Address, error)

	// FindAddressByStore returns the address attached to a store.
	// Returns ErrAddressNotFound if the store has none.
	FindAddressByStore(ctx context.Context, storeID uuid.UUID) (*entity.Address, error)

	UpdateAddress(ctx context.Context, address *entity.Address) error

	DeleteAddress(ctx context.Context, id uuid.UUID) error

	// DeleteAddressesByStore removes the address attached to a store, if any.
	DeleteAddressesByStore(ctx context.Context, storeID uuid.UUID) error
}
