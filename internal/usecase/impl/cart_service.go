package impl

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"time"

	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Cart mutation labels reported to the metrics recorder.
const (
	cartOpAdd    = "add"
	cartOpUpdate = "update"
	cartOpRemove = "remove"
	cartOpClear  = "clear"
)

// Checkout results reported to the metrics recorder.
const (
	checkoutSucceeded = "success"
	checkoutRejected  = "rejected"
	checkoutFailed    = "error"
)

// cartService implements the CartUsecase interface.
type cartService struct {
	txManager repository.TransactionManager
	cartRepo  repository.CartRepository
	publisher service.EventPublisher
	metrics   service.MetricsRecorder
	now       func() time.Time
	logger    *slog.Logger
}

// CartServiceParams holds dependencies for CartService, injected by Fx.
type CartServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	CartRepo  repository.CartRepository
	Publisher service.EventPublisher
	Metrics   service.MetricsRecorder `optional:"true"`
	Logger    *slog.Logger
}

// NewCartService is the constructor for cartService.
func NewCartService(params CartServiceParams) usecase.CartUsecase {
	return newCartService(params, time.Now)
}

func newCartService(params CartServiceParams, now func() time.Time) *cartService {
	metrics := params.Metrics
	if metrics == nil {
		metrics = service.NopMetricsRecorder{}
	}

	return &cartService{
		txManager: params.TxManager,
		cartRepo:  params.CartRepo,
		publisher: params.Publisher,
		metrics:   metrics,
		now:       now,
		logger:    params.Logger,
	}
}

func (srv *cartService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *cartService) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*usecase.CartDetails, error) {
	var details *usecase.CartDetails
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		cart, err := loadOrCreateCart(ctx, repoFactory.NewCartRepository(), userID)
		if err != nil {
			return err
		}
		details, err = joinCartProducts(ctx, repoFactory.NewProductRepository(), cart)

		return err
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	return details, nil
}

// AddItem adds qty units of a product to the cart. The merged line may not
// exceed the product stock.
func (srv *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*usecase.CartDetails, error) {
	if qty <= 0 {
		return nil, errors.WithStack(domainerrors.ErrInvalidQuantity)
	}

	details, err := srv.mutate(ctx, userID, func(repoFactory repository.RepositoryFactory, cart *entity.Cart) error {
		cartRepo := repoFactory.NewCartRepository()

		product, err := loadPurchasableProduct(ctx, repoFactory, productID)
		if err != nil {
			return err
		}

		existing := cart.FindItemByProduct(productID)
		inCart := 0
		if existing != nil {
			inCart = existing.Quantity
		}
		if !product.HasStock(inCart + qty) {
			return errors.WithStack(domainerrors.ErrInsufficientStock.Messagef(
				"Estoque insuficiente. Disponível: %d", max(product.Quantity-inCart, 0)))
		}

		if existing != nil {
			existing.Quantity += qty
			existing.UnitPrice = product.Price
			existing.UpdatedAt = srv.now()

			return errors.Wrap(cartRepo.UpdateItem(ctx, existing), "failed to update cart item")
		}

		return errors.Wrap(cartRepo.CreateItem(ctx, &entity.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  qty,
			UnitPrice: product.Price,
		}), "failed to create cart item")
	})
	if err != nil {
		srv.log(ctx).Warn("Add to cart failed", slog.Any("userID", userID), slog.Any("productID", productID), slog.Any("error", err))

		return nil, err
	}
	srv.metrics.ObserveCartMutation(cartOpAdd)

	return details, nil
}

// UpdateQuantity sets the line to qty units, re-checking stock and price.
func (srv *cartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*usecase.CartDetails, error) {
	if qty <= 0 {
		return srv.RemoveItem(ctx, userID, itemID)
	}

	details, err := srv.mutate(ctx, userID, func(repoFactory repository.RepositoryFactory, cart *entity.Cart) error {
		item, err := findCartLine(cart, itemID)
		if err != nil {
			return err
		}

		product, err := loadPurchasableProduct(ctx, repoFactory, item.ProductID)
		if err != nil {
			return err
		}
		if !product.HasStock(qty) {
			return errors.WithStack(domainerrors.ErrInsufficientStock.Messagef("Estoque insuficiente. Disponível: %d", product.Quantity))
		}

		item.Quantity = qty
		item.UnitPrice = product.Price
		item.UpdatedAt = srv.now()

		return errors.Wrap(repoFactory.NewCartRepository().UpdateItem(ctx, item), "failed to update cart item")
	})
	if err != nil {
		srv.log(ctx).Warn("Cart update failed", slog.Any("userID", userID), slog.Any("itemID", itemID), slog.Any("error", err))

		return nil, err
	}
	srv.metrics.ObserveCartMutation(cartOpUpdate)

	return details, nil
}

func (srv *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*usecase.CartDetails, error) {
	details, err := srv.mutate(ctx, userID, func(repoFactory repository.RepositoryFactory, cart *entity.Cart) error {
		if _, err := findCartLine(cart, itemID); err != nil {
			return err
		}

		return errors.Wrap(repoFactory.NewCartRepository().DeleteItem(ctx, itemID), "failed to delete cart item")
	})
	if err != nil {
		return nil, err
	}
	srv.metrics.ObserveCartMutation(cartOpRemove)

	return details, nil
}

// Clear empties the cart; the cart itself is kept.
func (srv *cartService) Clear(ctx context.Context, userID uuid.UUID) (*usecase.CartDetails, error) {
	details, err := srv.mutate(ctx, userID, func(repoFactory repository.RepositoryFactory, cart *entity.Cart) error {
		_, err := repoFactory.NewCartRepository().DeleteItemsByCart(ctx, cart.ID)

		return errors.Wrap(err, "failed to clear cart")
	})
	if err != nil {
		return nil, err
	}
	srv.metrics.ObserveCartMutation(cartOpClear)

	return details, nil
}

// Count reads without creating: a user without a cart has zero items.
func (srv *cartService) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	cart, err := srv.cartRepo.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to load cart")
	}

	return cart.ItemCount(), nil
}

// Checkout decrements the stock of every line and empties the cart in one
// transaction. The event is published after commit and its failure does not
// undo the purchase.
func (srv *cartService) Checkout(ctx context.Context, userID uuid.UUID) (*usecase.CheckoutOutput, error) {
	event := &entity.CheckoutEvent{
		CheckoutID: uuid.New(),
		UserID:     userID,
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
	}
	units := 0

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		cartRepo := repoFactory.NewCartRepository()
		productRepo := repoFactory.NewProductRepository()
		storeRepo := repoFactory.NewStoreRepository()

		cart, err := cartRepo.FindByUserIDForUpdate(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return errors.WithStack(domainerrors.ErrEmptyCart)
		}
		if err != nil {
			return errors.Wrap(err, "failed to load cart")
		}
		if cart.IsEmpty() {
			return errors.WithStack(domainerrors.ErrEmptyCart)
		}

		// Lock products in a stable order so concurrent checkouts cannot deadlock.
		lines := slices.Clone(cart.Items)
		slices.SortFunc(lines, func(a, b *entity.CartItem) int {
			return bytes.Compare(a.ProductID[:], b.ProductID[:])
		})

		for _, line := range lines {
			product, err := productRepo.FindByIDForUpdate(ctx, line.ProductID)
			if err != nil {
				return errors.Wrap(err, "failed to lock product")
			}
			available, err := isPurchasable(ctx, storeRepo, product)
			if err != nil {
				return err
			}
			if !available {
				return errors.WithStack(domainerrors.ErrProductNotFound.Messagef("Produto '%s' não está mais disponível", product.Name))
			}
			if !product.HasStock(line.Quantity) {
				return errors.WithStack(domainerrors.ErrInsufficientStock.Messagef("Produto '%s' sem estoque suficiente", product.Name))
			}

			if err := productRepo.DecrementStock(ctx, product.ID, line.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return errors.WithStack(domainerrors.ErrInsufficientStock.Messagef("Produto '%s' sem estoque suficiente", product.Name))
				}

				return errors.Wrap(err, "failed to decrement stock")
			}

			event.Items = append(event.Items, entity.CheckoutEventItem{
				ProductID: product.ID,
				StoreID:   product.StoreID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
			units += line.Quantity
		}

		removed, err := cartRepo.DeleteItemsByCart(ctx, cart.ID)
		if err != nil {
			return errors.Wrap(err, "failed to clear cart")
		}
		if removed != int64(len(cart.Items)) {
			return errors.Errorf("cart %s changed during checkout: removed %d of %d lines", cart.ID, removed, len(cart.Items))
		}
		if err := cartRepo.Touch(ctx, cart.ID); err != nil {
			return errors.Wrap(err, "failed to touch cart")
		}

		event.Total = cart.Total()

		return nil
	})
	if err != nil {
		err = translateRepoError(err)
		srv.metrics.ObserveCheckout(checkoutResult(err), 0)
		srv.log(ctx).Warn("Checkout failed", slog.Any("userID", userID), slog.Any("error", err))

		return nil, err
	}

	event.PlacedAt = srv.now()
	srv.metrics.ObserveCheckout(checkoutSucceeded, units)
	srv.log(ctx).Info("Checkout completed",
		slog.Any("userID", userID),
		slog.String("checkoutID", event.CheckoutID.String()),
		slog.Int("units", units),
		slog.String("total", event.Total.StringFixed(2)),
	)

	if err := srv.publisher.PublishCheckoutEvent(ctx, event); err != nil {
		srv.log(ctx).Error("Failed to publish checkout event", slog.String("checkoutID", event.CheckoutID.String()), slog.Any("error", err))
	}

	return &usecase.CheckoutOutput{Event: event}, nil
}

func checkoutResult(err error) string {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) && appErr.HTTPCode() < 500 {
		return checkoutRejected
	}

	return checkoutFailed
}

// mutate runs change against the user's cart and returns the cart as committed.
func (srv *cartService) mutate(
	ctx context.Context,
	userID uuid.UUID,
	change func(repoFactory repository.RepositoryFactory, cart *entity.Cart) error,
) (*usecase.CartDetails, error) {
	var details *usecase.CartDetails
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		cartRepo := repoFactory.NewCartRepository()

		cart, err := loadOrCreateCart(ctx, cartRepo, userID)
		if err != nil {
			return err
		}

		if err := change(repoFactory, cart); err != nil {
			return err
		}
		if err := cartRepo.Touch(ctx, cart.ID); err != nil {
			return errors.Wrap(err, "failed to touch cart")
		}

		cart, err = cartRepo.FindByUserID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to reload cart")
		}
		details, err = joinCartProducts(ctx, repoFactory.NewProductRepository(), cart)

		return err
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	return details, nil
}

// loadOrCreateCart returns the user's cart locked for the rest of the transaction.
func loadOrCreateCart(ctx context.Context, cartRepo repository.CartRepository, userID uuid.UUID) (*entity.Cart, error) {
	cart, err := cartRepo.FindByUserIDForUpdate(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repository.ErrCartNotFound) {
		return nil, errors.Wrap(err, "failed to load cart")
	}

	cart = &entity.Cart{UserID: userID}
	if err := cartRepo.Create(ctx, cart); err != nil {
		return nil, errors.Wrap(err, "failed to create cart")
	}

	return cart, nil
}

// loadPurchasableProduct locks the product and rejects it when it or its store is inactive.
func loadPurchasableProduct(ctx context.Context, repoFactory repository.RepositoryFactory, productID uuid.UUID) (*entity.Product, error) {
	product, err := repoFactory.NewProductRepository().FindByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load product")
	}
	available, err := isPurchasable(ctx, repoFactory.NewStoreRepository(), product)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, errors.WithStack(domainerrors.ErrProductNotFound)
	}

	return product, nil
}

// isPurchasable reports whether both the product and its store are active.
func isPurchasable(ctx context.Context, storeRepo repository.StoreRepository, product *entity.Product) (bool, error) {
	if !product.Active {
		return false, nil
	}

	store, err := storeRepo.FindByID(ctx, product.StoreID)
	if err != nil {
		return false, errors.Wrap(err, "failed to load product store")
	}

	return store.Active, nil
}

func findCartLine(cart *entity.Cart, itemID uuid.UUID) (*entity.CartItem, error) {
	for _, item := range cart.Items {
		if item.ID == itemID {
			return item, nil
		}
	}

	return nil, errors.WithStack(domainerrors.ErrCartItemNotFound)
}

func joinCartProducts(ctx context.Context, productRepo repository.ProductRepository, cart *entity.Cart) (*usecase.CartDetails, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load cart products")
	}

	return &usecase.CartDetails{Cart: cart, Products: products}, nil
}
