package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const featuredProductsLimit = 30

// productService implements the ProductUsecase interface.
type productService struct {
	txManager   repository.TransactionManager
	productRepo repository.ProductRepository
	storeRepo   repository.StoreRepository
	logger      *slog.Logger
}

// ProductServiceParams holds dependencies for ProductService, injected by Fx.
type ProductServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	ProductRepo repository.ProductRepository
	StoreRepo   repository.StoreRepository
	Logger      *slog.Logger
}

// NewProductService is the constructor for productService.
func NewProductService(params ProductServiceParams) usecase.ProductUsecase {
	return &productService{
		txManager:   params.TxManager,
		productRepo: params.ProductRepo,
		storeRepo:   params.StoreRepo,
		logger:      params.Logger,
	}
}

func (srv *productService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func validateProductInput(input *usecase.ProductInput) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Nome do produto é obrigatório"))
	case input.Price.IsNegative():
		return errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Preço não pode ser negativo"))
	case input.Quantity < 0:
		return errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Quantidade não pode ser negativa"))
	}

	return nil
}

// Create adds a product to a store the actor manages.
func (srv *productService) Create(ctx context.Context, actor *entity.Principal, input *usecase.ProductInput) (*entity.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product := &entity.Product{
		StoreID:     input.StoreID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Quantity:    input.Quantity,
		PhotoURL:    strings.TrimSpace(input.PhotoURL),
		Active:      input.Active == nil || *input.Active,
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, err := loadManagedStore(ctx, repoFactory.NewStoreRepository(), actor, input.StoreID); err != nil {
			return err
		}

		return errors.Wrap(repoFactory.NewProductRepository().Create(ctx, product), "failed to create product")
	})
	if err != nil {
		srv.log(ctx).Warn("Product creation failed", slog.Any("storeID", input.StoreID), slog.Any("error", err))

		return nil, translateRepoError(err)
	}
	srv.log(ctx).Info("Product created", slog.Any("productID", product.ID), slog.Any("storeID", product.StoreID))

	return product, nil
}

func (srv *productService) Get(ctx context.Context, productID uuid.UUID) (*entity.Product, error) {
	product, err := srv.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, translateRepoError(errors.Wrap(err, "failed to load product"))
	}

	return product, nil
}

func (srv *productService) ListActive(ctx context.Context) ([]*entity.Product, error) {
	products, err := srv.productRepo.ListActive(ctx, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list products")
	}

	return products, nil
}

// ListByStore returns the store's active products; a deactivated store has none.
func (srv *productService) ListByStore(ctx context.Context, storeID uuid.UUID) ([]*entity.Product, error) {
	store, err := srv.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, translateRepoError(errors.Wrap(err, "failed to load store"))
	}

	products, err := srv.productRepo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list store products")
	}

	active := make([]*entity.Product, 0, len(products))
	if !store.Active {
		return active, nil
	}
	for _, product := range products {
		if product.Active {
			active = append(active, product)
		}
	}

	return active, nil
}

func (srv *productService) Featured(ctx context.Context) ([]*entity.Product, error) {
	products, err := srv.productRepo.ListActive(ctx, featuredProductsLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list featured products")
	}

	return products, nil
}

// Update replaces the product fields. The store, sold counter and version are kept.
func (srv *productService) Update(ctx context.Context, actor *entity.Principal, productID uuid.UUID, input *usecase.ProductInput) (*entity.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	var updated *entity.Product
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		productRepo := repoFactory.NewProductRepository()

		product, err := loadManagedProduct(ctx, repoFactory, actor, productID)
		if err != nil {
			return err
		}

		product.Name = strings.TrimSpace(input.Name)
		product.Description = input.Description
		product.Price = input.Price
		product.Quantity = input.Quantity
		product.PhotoURL = strings.TrimSpace(input.PhotoURL)
		if input.Active != nil {
			product.Active = *input.Active
		}

		if err := productRepo.Update(ctx, product); err != nil {
			return errors.Wrap(err, "failed to update product")
		}
		updated = product

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Product update failed", slog.Any("productID", productID), slog.Any("error", err))

		return nil, translateRepoError(err)
	}

	return updated, nil
}

// Delete removes the product and every cart line that references it.
func (srv *productService) Delete(ctx context.Context, actor *entity.Principal, productID uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, err := loadManagedProduct(ctx, repoFactory, actor, productID); err != nil {
			return err
		}

		return errors.Wrap(repoFactory.NewProductRepository().Delete(ctx, productID), "failed to delete product")
	})
	if err != nil {
		return translateRepoError(err)
	}
	srv.log(ctx).Info("Product deleted", slog.Any("productID", productID))

	return nil
}

// loadManagedProduct loads a product whose store the actor manages.
func loadManagedProduct(ctx context.Context, repoFactory repository.RepositoryFactory, actor *entity.Principal, productID uuid.UUID) (*entity.Product, error) {
	product, err := repoFactory.NewProductRepository().FindByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load product")
	}

	if _, err := loadManagedStore(ctx, repoFactory.NewStoreRepository(), actor, product.StoreID); err != nil {
		return nil, err
	}

	return product, nil
}
