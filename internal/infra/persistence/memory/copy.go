package memory

import (
	"slices"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"

	"github.com/google/uuid"
)

func copyUser(u *entity.User) *entity.User {
	c := *u
	c.Roles = slices.Clone(u.Roles)

	return &c
}

func copyAddress(a *entity.Address) *entity.Address {
	c := *a
	c.UserID = copyID(a.UserID)
	c.StoreID = copyID(a.StoreID)

	return &c
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id

	return &v
}

func copyStore(s *entity.Store) *entity.Store {
	c := *s

	return &c
}

func copyProduct(p *entity.Product) *entity.Product {
	c := *p

	return &c
}

// copyCart drops Items; lines live in their own table.
func copyCart(cart *entity.Cart) *entity.Cart {
	c := *cart
	c.Items = nil

	return &c
}

func copyCartItem(i *entity.CartItem) *entity.CartItem {
	c := *i

	return &c
}

func copyRefreshToken(t *entity.RefreshToken) *entity.RefreshToken {
	c := *t

	return &c
}
