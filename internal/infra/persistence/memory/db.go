// Package memory keeps every aggregate in process memory. It backs the
// "memory" storage driver and the usecase tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"

	"github.com/google/uuid"
)

// state is one consistent snapshot of all tables.
type state struct {
	users         map[uuid.UUID]*entity.User
	addresses     map[uuid.UUID]*entity.Address
	stores        map[uuid.UUID]*entity.Store
	products      map[uuid.UUID]*entity.Product
	carts         map[uuid.UUID]*entity.Cart
	cartItems     map[uuid.UUID]*entity.CartItem
	refreshTokens map[uuid.UUID]*entity.RefreshToken
}

func newState() *state {
	return &state{
		users:         make(map[uuid.UUID]*entity.User),
		addresses:     make(map[uuid.UUID]*entity.Address),
		stores:        make(map[uuid.UUID]*entity.Store),
		products:      make(map[uuid.UUID]*entity.Product),
		carts:         make(map[uuid.UUID]*entity.Cart),
		cartItems:     make(map[uuid.UUID]*entity.CartItem),
		refreshTokens: make(map[uuid.UUID]*entity.RefreshToken),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, v := range s.users {
		c.users[id] = copyUser(v)
	}
	for id, v := range s.addresses {
		c.addresses[id] = copyAddress(v)
	}
	for id, v := range s.stores {
		c.stores[id] = copyStore(v)
	}
	for id, v := range s.products {
		c.products[id] = copyProduct(v)
	}
	for id, v := range s.carts {
		c.carts[id] = copyCart(v)
	}
	for id, v := range s.cartItems {
		c.cartItems[id] = copyCartItem(v)
	}
	for id, v := range s.refreshTokens {
		c.refreshTokens[id] = copyRefreshToken(v)
	}

	return c
}

// accessor runs fn against the state a repository is bound to.
type accessor func(fn func(st *state) error) error

// DB is the shared in-memory database. Writes inside TransactionManager.Execute
// are applied to a private copy and only become visible on success.
type DB struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

// NewDB creates an empty database.
func NewDB() *DB {
	return &DB{data: newState(), now: time.Now}
}

func (db *DB) locked(fn func(st *state) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return fn(db.data)
}

type transactionManager struct {
	db *DB
}

// NewTransactionManager serializes transactions on the database lock.
// Repositories obtained outside fn must not be used while it runs.
func NewTransactionManager(db *DB) repository.TransactionManager {
	return &transactionManager{db: db}
}

func (tm *transactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.db.mu.Lock()
	defer tm.db.mu.Unlock()

	work := tm.db.data.clone()
	bound := func(f func(st *state) error) error { return f(work) }

	if err := fn(&repositoryFactory{db: tm.db, access: bound}); err != nil {
		return err
	}

	tm.db.data = work

	return nil
}

type repositoryFactory struct {
	db     *DB
	access accessor
}

func (f *repositoryFactory) NewUserRepository() repository.UserRepository {
	return &userRepository{access: f.access, now: f.db.now}
}

func (f *repositoryFactory) NewAddressRepository() repository.AddressRepository {
	return &addressRepository{access: f.access, now: f.db.now}
}

func (f *repositoryFactory) NewStoreRepository() repository.StoreRepository {
	return &storeRepository{access: f.access, now: f.db.now}
}

func (f *repositoryFactory) NewProductRepository() repository.ProductRepository {
	return &productRepository{access: f.access, now: f.db.now}
}

func (f *repositoryFactory) NewCartRepository() repository.CartRepository {
	return &cartRepository{access: f.access, now: f.db.now}
}

func (f *repositoryFactory) NewRefreshTokenRepository() repository.RefreshTokenRepository {
	return &refreshTokenRepository{access: f.access, now: f.db.now}
}

// Repositories returns a factory whose repositories lock per call.
func (db *DB) Repositories() repository.RepositoryFactory {
	return &repositoryFactory{db: db, access: db.locked}
}

func stamp(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	*updated = now
}
