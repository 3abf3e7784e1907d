package usecase

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"

	"github.com/google/uuid"
)

// CartDetails is a cart joined with the products its lines reference.
type CartDetails struct {
	Cart     *entity.Cart
	Products map[uuid.UUID]*entity.Product
}

// CheckoutOutput summarises a committed checkout.
type CheckoutOutput struct {
	Event *entity.CheckoutEvent
}

// CartUsecase is the stock-aware cart ("carrinho") of the signed-in user.
// Every mutation runs in a single transaction.
type CartUsecase interface {
	// GetOrCreateCart returns the user's cart, creating an empty one on first access.
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*CartDetails, error)
	// AddItem adds qty units of a product, merging with an existing line.
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartDetails, error)
	// UpdateQuantity sets a line to qty units; qty <= 0 removes the line.
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartDetails, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDetails, error)
	Clear(ctx context.Context, userID uuid.UUID) (*CartDetails, error)
	// Count sums the quantities of every line.
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	// Checkout decrements stock for every line and empties the cart, all or nothing.
	Checkout(ctx context.Context, userID uuid.UUID) (*CheckoutOutput, error)
}
