package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutEvent is published after a checkout commits.
type CheckoutEvent struct {
	CheckoutID uuid.UUID           `json:"checkoutId"`
	UserID     uuid.UUID           `json:"userId"`
	Items      []CheckoutEventItem `json:"items"`
	Total      decimal.Decimal     `json:"total"`
	PlacedAt   time.Time           `json:"placedAt"`
	RequestID  string              `json:"requestId,omitempty"`
}

// CheckoutEventItem is one purchased line.
type CheckoutEventItem struct {
	ProductID uuid.UUID       `json:"productId"`
	StoreID   uuid.UUID       `json:"storeId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}
