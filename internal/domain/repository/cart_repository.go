package repository

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for cart persistence.
var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository defines the interface for cart and cart item persistence.
type CartRepository interface {
	// FindByUserID returns the user's cart with its items ordered by creation.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Cart, error)

	// FindByUserIDForUpdate is FindByUserID holding a row lock on the cart until
	// the transaction ends, so concurrent mutations and checkouts of one cart
	// run one after another.
	FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entity.Cart, error)

	// Create persists an empty cart.
	Create(ctx context.Context, cart *entity.Cart) error

	// Touch bumps the cart's UpdatedAt.
	Touch(ctx context.Context, cartID uuid.UUID) error

	FindItemByID(ctx context.Context, itemID uuid.UUID) (*entity.CartItem, error)

	CreateItem(ctx context.Context, item *entity.CartItem) error

	UpdateItem(ctx context.Context, item *entity.CartItem) error

	DeleteItem(ctx context.Context, itemID uuid.UUID) error

	// DeleteItemsByCart empties the cart and reports how many lines it removed.
	DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) (int64, error)

	// DeleteItemsByProduct drops the lines referencing a product from every cart.
	DeleteItemsByProduct(ctx context.Context, productID uuid.UUID) error
}
