package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product ("produto") is an item for sale in a single store.
type Product struct {
	ID          uuid.UUID
	StoreID     uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal // Never negative.
	Quantity    int             // Units in stock, never negative.
	Sold        int             // Units sold through checkout.
	PhotoURL    string
	Active      bool
	Version     int // Incremented on every stock change.
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasStock reports whether qty units can be served.
func (p *Product) HasStock(qty int) bool {
	return qty <= p.Quantity
}
