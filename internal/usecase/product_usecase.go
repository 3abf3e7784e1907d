package usecase

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInput holds the fields of a product create or update.
type ProductInput struct {
	StoreID     uuid.UUID // Ignored on update.
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	PhotoURL    string
	Active      *bool // Defaults to true on create.
}

// ProductUsecase manages products ("produtos"). Ownership follows the store owner.
type ProductUsecase interface {
	Create(ctx context.Context, actor *entity.Principal, input *ProductInput) (*entity.Product, error)
	Get(ctx context.Context, productID uuid.UUID) (*entity.Product, error)
	ListActive(ctx context.Context) ([]*entity.Product, error)
	// ListByStore returns the active products of a store.
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]*entity.Product, error)
	// Featured returns the first active products ordered by name.
	Featured(ctx context.Context) ([]*entity.Product, error)
	Update(ctx context.Context, actor *entity.Principal, productID uuid.UUID, input *ProductInput) (*entity.Product, error)
	Delete(ctx context.Context, actor *entity.Principal, productID uuid.UUID) error
}
