package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"

	"github.com/google/uuid"
)

type productRepository struct {
	access accessor
	now    func() time.Time
}

func (repo *productRepository) Create(_ context.Context, product *entity.Product) error {
	return repo.access(func(st *state) error {
		if _, ok := st.stores[product.StoreID]; !ok {
			return errors.ErrStoreNotFound
		}
		if err := checkProductValues(product); err != nil {
			return err
		}
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		stamp(&product.CreatedAt, &product.UpdatedAt, repo.now())
		st.products[product.ID] = copyProduct(product)

		return nil
	})
}

func (repo *productRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Product, error) {
	var found *entity.Product
	err := repo.access(func(st *state) error {
		product, ok := st.products[id]
		if !ok {
			return repository.ErrProductNotFound
		}
		found = copyProduct(product)

		return nil
	})

	return found, err
}

// FindByIDForUpdate needs no row lock: transactions already hold the database lock.
func (repo *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	return repo.FindByID(ctx, id)
}

func (repo *productRepository) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Product, error) {
	found := make(map[uuid.UUID]*entity.Product, len(ids))
	_ = repo.access(func(st *state) error {
		for _, id := range ids {
			if product, ok := st.products[id]; ok {
				found[id] = copyProduct(product)
			}
		}

		return nil
	})

	return found, nil
}

func (repo *productRepository) ListByStore(_ context.Context, storeID uuid.UUID) ([]*entity.Product, error) {
	return repo.filter(func(_ *state, p *entity.Product) bool { return p.StoreID == storeID }, 0), nil
}

// ListActive skips products of inactive stores, like the SQL join does.
func (repo *productRepository) ListActive(_ context.Context, limit int) ([]*entity.Product, error) {
	return repo.filter(func(st *state, p *entity.Product) bool {
		store, ok := st.stores[p.StoreID]

		return p.Active && ok && store.Active
	}, limit), nil
}

func (repo *productRepository) ListAll(_ context.Context) ([]*entity.Product, error) {
	return repo.filter(func(*state, *entity.Product) bool { return true }, 0), nil
}

func (repo *productRepository) filter(keep func(*state, *entity.Product) bool, limit int) []*entity.Product {
	products := make([]*entity.Product, 0)
	_ = repo.access(func(st *state) error {
		for _, product := range st.products {
			if keep(st, product) {
				products = append(products, copyProduct(product))
			}
		}

		return nil
	})
	slices.SortFunc(products, func(a, b *entity.Product) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), a.CreatedAt.Compare(b.CreatedAt))
	})
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}

	return products
}

func (repo *productRepository) Update(_ context.Context, product *entity.Product) error {
	return repo.access(func(st *state) error {
		current, ok := st.products[product.ID]
		if !ok {
			return repository.ErrProductNotFound
		}
		if err := checkProductValues(product); err != nil {
			return err
		}
		product.StoreID = current.StoreID
		product.Sold = current.Sold
		product.CreatedAt = current.CreatedAt
		product.UpdatedAt = repo.now()
		product.Version = current.Version + 1
		st.products[product.ID] = copyProduct(product)

		return nil
	})
}

func (repo *productRepository) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	return repo.access(func(st *state) error {
		product, ok := st.products[id]
		if !ok || product.Quantity < qty {
			return repository.ErrInsufficientStock
		}
		product.Quantity -= qty
		product.Sold += qty
		product.Version++
		product.UpdatedAt = repo.now()

		return nil
	})
}

func (repo *productRepository) Delete(_ context.Context, id uuid.UUID) error {
	return repo.access(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return repository.ErrProductNotFound
		}
		st.deleteProduct(id)

		return nil
	})
}

func (repo *productRepository) DeleteByStore(_ context.Context, storeID uuid.UUID) error {
	return repo.access(func(st *state) error {
		for id, product := range st.products {
			if product.StoreID == storeID {
				st.deleteProduct(id)
			}
		}

		return nil
	})
}

func checkProductValues(product *entity.Product) error {
	if product.Price.IsNegative() || product.Quantity < 0 {
		return errors.ErrValidationFailed.WithMessage("Preço e quantidade não podem ser negativos")
	}

	return nil
}
