package memory

import "github.com/google/uuid"

// The helpers below mirror the ON DELETE CASCADE rules of the SQL schema.

func (s *state) deleteUser(id uuid.UUID) {
	delete(s.users, id)
	for tokenID, token := range s.refreshTokens {
		if token.UserID == id {
			delete(s.refreshTokens, tokenID)
		}
	}
	for addressID, address := range s.addresses {
		if address.IsOwnedBy(id) {
			delete(s.addresses, addressID)
		}
	}
	for cartID, cart := range s.carts {
		if cart.UserID == id {
			s.deleteCart(cartID)
		}
	}
	for storeID, store := range s.stores {
		if store.OwnerID == id {
			s.deleteStore(storeID)
		}
	}
}

func (s *state) deleteStore(id uuid.UUID) {
	delete(s.stores, id)
	for addressID, address := range s.addresses {
		if address.StoreID != nil && *address.StoreID == id {
			delete(s.addresses, addressID)
		}
	}
	for productID, product := range s.products {
		if product.StoreID == id {
			s.deleteProduct(productID)
		}
	}
}

func (s *state) deleteProduct(id uuid.UUID) {
	delete(s.products, id)
	for itemID, item := range s.cartItems {
		if item.ProductID == id {
			delete(s.cartItems, itemID)
		}
	}
}

func (s *state) deleteCart(id uuid.UUID) {
	delete(s.carts, id)
	for itemID, item := range s.cartItems {
		if item.CartID == id {
			delete(s.cartItems, itemID)
		}
	}
}
