package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart ("carrinho") belongs to exactly one user.
type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Items     []*CartItem // Ordered by creation.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is a cart line. A cart holds at most one line per product.
type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int             // Always > 0.
	UnitPrice decimal.Decimal // Price captured when the line was last changed.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subtotal is UnitPrice x Quantity.
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums the item subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}

	return total
}

// ItemCount sums the item quantities.
func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}

	return count
}

// FindItemByProduct returns the line for productID, or nil.
func (c *Cart) FindItemByProduct(productID uuid.UUID) *CartItem {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item
		}
	}

	return nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
