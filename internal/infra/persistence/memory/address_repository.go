package memory

import (
	"context"
	"slices"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"

	"github.com/google/uuid"
)

type addressRepository struct {
	access accessor
	now    func() time.Time
}

func (repo *addressRepository) CreateAddress(_ context.Context, address *entity.Address) error {
	return repo.access(func(st *state) error {
		if err := checkAddressRefs(st, address); err != nil {
			return err
		}
		if address.ID == uuid.Nil {
			address.ID = uuid.New()
		}
		stamp(&address.CreatedAt, &address.UpdatedAt, repo.now())
		st.addresses[address.ID] = copyAddress(address)

		return nil
	})
}

func (repo *addressRepository) FindAddressByID(_ context.Context, id uuid.UUID) (*entity.Address, error) {
	var found *entity.Address
	err := repo.access(func(st *state) error {
		address, ok := st.addresses[id]
		if !ok {
			return repository.ErrAddressNotFound
		}
		found = copyAddress(address)

		return nil
	})

	return found, err
}

func (repo *addressRepository) FindAddressesByUser(_ context.Context, userID uuid.UUID) ([]*entity.Address, error) {
	addresses := make([]*entity.Address, 0)
	_ = repo.access(func(st *state) error {
		for _, address := range st.addresses {
			if address.IsOwnedBy(userID) {
				addresses = append(addresses, copyAddress(address))
			}
		}

		return nil
	})
	slices.SortFunc(addresses, func(a, b *entity.Address) int { return a.CreatedAt.Compare(b.CreatedAt) })

	return addresses, nil
}

func (repo *addressRepository) FindAddressByStore(_ context.Context, storeID uuid.UUID) (*entity.Address, error) {
	var found *entity.Address
	err := repo.access(func(st *state) error {
		for _, address := range st.addresses {
			if address.StoreID != nil && *address.StoreID == storeID {
				found = copyAddress(address)

				return nil
			}
		}

		return repository.ErrAddressNotFound
	})

	return found, err
}

func (repo *addressRepository) UpdateAddress(_ context.Context, address *entity.Address) error {
	return repo.access(func(st *state) error {
		current, ok := st.addresses[address.ID]
		if !ok {
			return repository.ErrAddressNotFound
		}
		if err := checkAddressRefs(st, address); err != nil {
			return err
		}
		address.CreatedAt = current.CreatedAt
		address.UpdatedAt = repo.now()
		st.addresses[address.ID] = copyAddress(address)

		return nil
	})
}

func (repo *addressRepository) DeleteAddress(_ context.Context, id uuid.UUID) error {
	return repo.access(func(st *state) error {
		if _, ok := st.addresses[id]; !ok {
			return repository.ErrAddressNotFound
		}
		delete(st.addresses, id)

		return nil
	})
}

func (repo *addressRepository) DeleteAddressesByStore(_ context.Context, storeID uuid.UUID) error {
	return repo.access(func(st *state) error {
		for id, address := range st.addresses {
			if address.StoreID != nil && *address.StoreID == storeID {
				delete(st.addresses, id)
			}
		}

		return nil
	})
}

// checkAddressRefs enforces the foreign keys and the one-address-per-store rule.
func checkAddressRefs(st *state, address *entity.Address) error {
	if address.UserID != nil {
		if _, ok := st.users[*address.UserID]; !ok {
			return errors.ErrValidationFailed.WithMessage("Usuário ou loja do endereço não existe")
		}
	}
	if address.StoreID == nil {
		return nil
	}
	if _, ok := st.stores[*address.StoreID]; !ok {
		return errors.ErrValidationFailed.WithMessage("Usuário ou loja do endereço não existe")
	}
	for _, other := range st.addresses {
		if other.ID != address.ID && other.StoreID != nil && *other.StoreID == *address.StoreID {
			return errors.ErrValidationFailed.WithMessage("Loja já possui endereço")
		}
	}

	return nil
}
