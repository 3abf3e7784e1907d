package usecase

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreSale is the part of a checkout that one store sold.
type StoreSale struct {
	Store   *entity.Store
	Owner   *entity.User // nil when the owner account is gone.
	Units   int
	Revenue decimal.Decimal
}

// SalesReport is the outcome of processing one checkout event.
type SalesReport struct {
	CheckoutID uuid.UUID
	Sales      []*StoreSale
	// SkippedItems counts lines whose store no longer exists.
	SkippedItems int
}

// SalesUsecase consumes checkout events on the worker and notifies sellers.
type SalesUsecase interface {
	// HandleCheckoutEvent splits the event by store and emits one seller notice
	// per store. Malformed events fail with ErrValidationFailed; repository
	// failures are returned as-is so the caller can redeliver.
	HandleCheckoutEvent(ctx context.Context, event *entity.CheckoutEvent) (*SalesReport, error)
}
