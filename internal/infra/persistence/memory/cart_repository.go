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

type cartRepository struct {
	access accessor
	now    func() time.Time
}

// FindByUserIDForUpdate needs no row lock: transactions already hold the database lock.
func (repo *cartRepository) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entity.Cart, error) {
	return repo.FindByUserID(ctx, userID)
}

func (repo *cartRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.Cart, error) {
	var found *entity.Cart
	err := repo.access(func(st *state) error {
		for _, cart := range st.carts {
			if cart.UserID != userID {
				continue
			}
			found = copyCart(cart)
			found.Items = make([]*entity.CartItem, 0)
			for _, item := range st.cartItems {
				if item.CartID == cart.ID {
					found.Items = append(found.Items, copyCartItem(item))
				}
			}

			return nil
		}

		return repository.ErrCartNotFound
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(found.Items, func(a, b *entity.CartItem) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID.String(), b.ID.String()))
	})

	return found, nil
}

func (repo *cartRepository) Create(_ context.Context, cart *entity.Cart) error {
	return repo.access(func(st *state) error {
		if _, ok := st.users[cart.UserID]; !ok {
			return errors.ErrUserNotFound
		}
		for _, other := range st.carts {
			if other.UserID == cart.UserID {
				return errors.ErrValidationFailed.WithMessage("Usuário já possui carrinho")
			}
		}
		if cart.ID == uuid.Nil {
			cart.ID = uuid.New()
		}
		stamp(&cart.CreatedAt, &cart.UpdatedAt, repo.now())
		st.carts[cart.ID] = copyCart(cart)

		return nil
	})
}

func (repo *cartRepository) Touch(_ context.Context, cartID uuid.UUID) error {
	return repo.access(func(st *state) error {
		if cart, ok := st.carts[cartID]; ok {
			cart.UpdatedAt = repo.now()
		}

		return nil
	})
}

func (repo *cartRepository) FindItemByID(_ context.Context, itemID uuid.UUID) (*entity.CartItem, error) {
	var found *entity.CartItem
	err := repo.access(func(st *state) error {
		item, ok := st.cartItems[itemID]
		if !ok {
			return repository.ErrCartItemNotFound
		}
		found = copyCartItem(item)

		return nil
	})

	return found, err
}

func (repo *cartRepository) CreateItem(_ context.Context, item *entity.CartItem) error {
	return repo.access(func(st *state) error {
		if _, ok := st.products[item.ProductID]; !ok {
			return errors.ErrProductNotFound
		}
		for _, other := range st.cartItems {
			if other.CartID == item.CartID && other.ProductID == item.ProductID {
				return errors.ErrValidationFailed.WithMessage("Produto já está no carrinho")
			}
		}
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		stamp(&item.CreatedAt, &item.UpdatedAt, repo.now())
		st.cartItems[item.ID] = copyCartItem(item)

		return nil
	})
}

func (repo *cartRepository) UpdateItem(_ context.Context, item *entity.CartItem) error {
	return repo.access(func(st *state) error {
		current, ok := st.cartItems[item.ID]
		if !ok {
			return repository.ErrCartItemNotFound
		}
		current.Quantity = item.Quantity
		current.UnitPrice = item.UnitPrice
		current.UpdatedAt = item.UpdatedAt
		if current.UpdatedAt.IsZero() {
			current.UpdatedAt = repo.now()
		}

		return nil
	})
}

func (repo *cartRepository) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	return repo.access(func(st *state) error {
		if _, ok := st.cartItems[itemID]; !ok {
			return repository.ErrCartItemNotFound
		}
		delete(st.cartItems, itemID)

		return nil
	})
}

func (repo *cartRepository) DeleteItemsByCart(_ context.Context, cartID uuid.UUID) (int64, error) {
	var removed int64
	err := repo.access(func(st *state) error {
		for id, item := range st.cartItems {
			if item.CartID == cartID {
				delete(st.cartItems, id)
				removed++
			}
		}

		return nil
	})

	return removed, err
}

func (repo *cartRepository) DeleteItemsByProduct(_ context.Context, productID uuid.UUID) error {
	return repo.access(func(st *state) error {
		for id, item := range st.cartItems {
			if item.ProductID == productID {
				delete(st.cartItems, id)
			}
		}

		return nil
	})
}
