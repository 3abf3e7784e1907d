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

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type searchService struct {
	storeRepo   repository.StoreRepository
	productRepo repository.ProductRepository
	logger      *slog.Logger
}

// SearchServiceParams holds dependencies for SearchService, injected by Fx.
type SearchServiceParams struct {
	fx.In

	StoreRepo   repository.StoreRepository
	ProductRepo repository.ProductRepository
	Logger      *slog.Logger
}

// NewSearchService is the constructor for searchService.
func NewSearchService(params SearchServiceParams) usecase.SearchUsecase {
	return &searchService{
		storeRepo:   params.StoreRepo,
		productRepo: params.ProductRepo,
		logger:      params.Logger,
	}
}

// Search scans every store and product, active or not.
func (srv *searchService) Search(ctx context.Context, query string) (*usecase.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Termo de busca é obrigatório"))
	}

	stores, err := srv.storeRepo.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan stores")
	}
	products, err := srv.productRepo.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan products")
	}

	result := &usecase.SearchResult{
		Stores:   make([]*entity.Store, 0),
		Products: make([]*entity.Product, 0),
	}
	for _, store := range stores {
		if containsFold(store.Name, query) {
			result.Stores = append(result.Stores, store)
		}
	}
	for _, product := range products {
		if containsFold(product.Name, query) {
			result.Products = append(result.Products, product)
		}
	}

	deliverycontext.GetLoggerOrDefault(ctx, srv.logger).Debug("Search completed",
		slog.String("query", query),
		slog.Int("stores", len(result.Stores)),
		slog.Int("products", len(result.Products)),
	)

	return result, nil
}
