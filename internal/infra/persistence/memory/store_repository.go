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

type storeRepository struct {
	access accessor
	now    func() time.Time
}

func (repo *storeRepository) Create(_ context.Context, store *entity.Store) error {
	return repo.access(func(st *state) error {
		if _, ok := st.users[store.OwnerID]; !ok {
			return errors.ErrValidationFailed.WithMessage("Dono da loja não existe")
		}
		if cnpjTaken(st, store) {
			return repository.ErrStoreCNPJTaken
		}
		if store.ID == uuid.Nil {
			store.ID = uuid.New()
		}
		stamp(&store.CreatedAt, &store.UpdatedAt, repo.now())
		st.stores[store.ID] = copyStore(store)

		return nil
	})
}

func (repo *storeRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Store, error) {
	var found *entity.Store
	err := repo.access(func(st *state) error {
		store, ok := st.stores[id]
		if !ok {
			return repository.ErrStoreNotFound
		}
		found = copyStore(store)

		return nil
	})

	return found, err
}

func (repo *storeRepository) FindByCNPJ(_ context.Context, cnpj string) (*entity.Store, error) {
	var found *entity.Store
	err := repo.access(func(st *state) error {
		for _, store := range st.stores {
			if store.CNPJ == cnpj {
				found = copyStore(store)

				return nil
			}
		}

		return repository.ErrStoreNotFound
	})

	return found, err
}

func (repo *storeRepository) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]*entity.Store, error) {
	stores := repo.filter(func(s *entity.Store) bool { return s.OwnerID == ownerID })
	slices.SortFunc(stores, byStoreCreated)

	return stores, nil
}

func (repo *storeRepository) ListActive(_ context.Context) ([]*entity.Store, error) {
	stores := repo.filter(func(s *entity.Store) bool { return s.Active })
	slices.SortFunc(stores, byStoreName)

	return stores, nil
}

func (repo *storeRepository) ListRecent(_ context.Context, limit int) ([]*entity.Store, error) {
	stores := repo.filter(func(s *entity.Store) bool { return s.Active })
	slices.SortFunc(stores, func(a, b *entity.Store) int { return byStoreCreated(b, a) })
	if limit > 0 && len(stores) > limit {
		stores = stores[:limit]
	}

	return stores, nil
}

func (repo *storeRepository) ListAll(_ context.Context) ([]*entity.Store, error) {
	stores := repo.filter(func(*entity.Store) bool { return true })
	slices.SortFunc(stores, byStoreName)

	return stores, nil
}

func (repo *storeRepository) filter(keep func(*entity.Store) bool) []*entity.Store {
	stores := make([]*entity.Store, 0)
	_ = repo.access(func(st *state) error {
		for _, store := range st.stores {
			if keep(store) {
				stores = append(stores, copyStore(store))
			}
		}

		return nil
	})

	return stores
}

func (repo *storeRepository) Update(_ context.Context, store *entity.Store) error {
	return repo.access(func(st *state) error {
		current, ok := st.stores[store.ID]
		if !ok {
			return repository.ErrStoreNotFound
		}
		if cnpjTaken(st, store) {
			return repository.ErrStoreCNPJTaken
		}
		store.CreatedAt = current.CreatedAt
		store.UpdatedAt = repo.now()
		st.stores[store.ID] = copyStore(store)

		return nil
	})
}

func (repo *storeRepository) Delete(_ context.Context, id uuid.UUID) error {
	return repo.access(func(st *state) error {
		if _, ok := st.stores[id]; !ok {
			return repository.ErrStoreNotFound
		}
		st.deleteStore(id)

		return nil
	})
}

func cnpjTaken(st *state, store *entity.Store) bool {
	for _, other := range st.stores {
		if other.ID != store.ID && other.CNPJ == store.CNPJ {
			return true
		}
	}

	return false
}

func byStoreName(a, b *entity.Store) int {
	return cmp.Or(cmp.Compare(a.Name, b.Name), a.CreatedAt.Compare(b.CreatedAt))
}

func byStoreCreated(a, b *entity.Store) int {
	return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.Name, b.Name))
}
