package impl

import (
	"context"
	"log/slog"

	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

type salesService struct {
	storeRepo repository.StoreRepository
	userRepo  repository.UserRepository
	logger    *slog.Logger
}

// SalesServiceParams holds dependencies for SalesService, injected by Fx.
type SalesServiceParams struct {
	fx.In

	StoreRepo repository.StoreRepository
	UserRepo  repository.UserRepository
	Logger    *slog.Logger
}

// NewSalesService is the constructor for salesService.
func NewSalesService(params SalesServiceParams) usecase.SalesUsecase {
	return &salesService{
		storeRepo: params.StoreRepo,
		userRepo:  params.UserRepo,
		logger:    params.Logger,
	}
}

func (srv *salesService) HandleCheckoutEvent(ctx context.Context, event *entity.CheckoutEvent) (*usecase.SalesReport, error) {
	if event == nil || event.CheckoutID == uuid.Nil || len(event.Items) == 0 {
		return nil, errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Evento de compra inválido"))
	}

	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
	report := &usecase.SalesReport{CheckoutID: event.CheckoutID}

	// Group lines by store, keeping the order stores first appear in.
	byStore := make(map[uuid.UUID]*usecase.StoreSale)
	order := make([]uuid.UUID, 0)
	for _, item := range event.Items {
		sale, ok := byStore[item.StoreID]
		if !ok {
			sale = &usecase.StoreSale{Revenue: decimal.Zero}
			byStore[item.StoreID] = sale
			order = append(order, item.StoreID)
		}
		sale.Units += item.Quantity
		sale.Revenue = sale.Revenue.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	for _, storeID := range order {
		sale := byStore[storeID]

		store, err := srv.storeRepo.FindByID(ctx, storeID)
		if errors.Is(err, repository.ErrStoreNotFound) {
			logger.Warn("Store of a sold item no longer exists",
				slog.String("checkout_id", event.CheckoutID.String()),
				slog.String("store_id", storeID.String()),
			)
			report.SkippedItems += countItems(event.Items, storeID)

			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to load store")
		}
		sale.Store = store

		owner, err := srv.userRepo.FindByID(ctx, store.OwnerID)
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
		case err != nil:
			return nil, errors.Wrap(err, "failed to load store owner")
		default:
			sale.Owner = owner
		}

		report.Sales = append(report.Sales, sale)
	}

	for _, sale := range report.Sales {
		attrs := []any{
			slog.String("checkout_id", event.CheckoutID.String()),
			slog.String("store_id", sale.Store.ID.String()),
			slog.String("store", sale.Store.Name),
			slog.Int("units", sale.Units),
			slog.String("revenue", sale.Revenue.StringFixed(2)),
		}
		if sale.Owner != nil {
			attrs = append(attrs, slog.String("seller_email", sale.Owner.Email))
		}
		logger.Info("Seller notice: new sale", attrs...)
	}

	return report, nil
}

func countItems(items []entity.CheckoutEventItem, storeID uuid.UUID) int {
	n := 0
	for _, item := range items {
		if item.StoreID == storeID {
			n++
		}
	}

	return n
}
