package repository

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for store persistence.
var (
	ErrStoreNotFound  = errors.New("store not found")
	ErrStoreCNPJTaken = errors.New("store cnpj already exists")
)

// StoreRepository defines the interface for store persistence.
type StoreRepository interface {
	// Create persists a store. Returns ErrStoreCNPJTaken on a duplicate tax ID.
	Create(ctx context.Context, store *entity.Store) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Store, error)

	FindByCNPJ(ctx context.Context, cnpj string) (*entity.Store, error)

	// FindByOwner returns every store of ownerID, active or not.
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Store, error)

	// ListActive returns active stores ordered by name.
	ListActive(ctx context.Context) ([]*entity.Store, error)

	// ListRecent returns up to limit active stores, newest first.
	ListRecent(ctx context.Context, limit int) ([]*entity.Store, error)

	// ListAll returns every store. Used by the search scan.
	ListAll(ctx context.Context) ([]*entity.Store, error)

	Update(ctx context.Context, store *entity.Store) error

	Delete(ctx context.Context, id uuid.UUID) error
}
