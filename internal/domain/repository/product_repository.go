package repository

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for product persistence.
var (
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned by DecrementStock when the guarded update matches no row.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductRepository defines the interface for product persistence.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)

	// FindByIDForUpdate reads the product and locks it until the surrounding
	// transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Product, error)

	// FindByIDs returns the products found among ids, keyed by ID.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Product, error)

	// ListByStore returns the store's products ordered by name.
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]*entity.Product, error)

	// ListActive returns active products ordered by name, at most limit when limit > 0.
	ListActive(ctx context.Context, limit int) ([]*entity.Product, error)

	// ListAll returns every product. Used by the search scan.
	ListAll(ctx context.Context) ([]*entity.Product, error)

	Update(ctx context.Context, product *entity.Product) error

	// DecrementStock subtracts qty from the stock and adds it to the sold
	// counter, only if at least qty units remain.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error

	Delete(ctx context.Context, id uuid.UUID) error

	DeleteByStore(ctx context.Context, storeID uuid.UUID) error
}
