package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"
	"github.com/brunoeugeniodev/NaLojaTem/internal/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *DB
	repos repository.RepositoryFactory
	tm    repository.TransactionManager
	user  *entity.User
	store *entity.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := NewDB()
	f := &fixture{db: db, repos: db.Repositories(), tm: NewTransactionManager(db)}
	ctx := context.Background()

	f.user = &entity.User{Name: "Ana", Email: "ana@example.com", CPF: "123.456.789-00", PasswordHash: "x"}
	require.NoError(t, f.repos.NewUserRepository().Create(ctx, f.user))

	f.store = &entity.Store{OwnerID: f.user.ID, Name: "Mercadinho", CNPJ: "12.345.678/0001-90", Active: true}
	require.NoError(t, f.repos.NewStoreRepository().Create(ctx, f.store))

	return f
}

func (f *fixture) addProduct(t *testing.T, name string, qty int) *entity.Product {
	t.Helper()

	product := &entity.Product{StoreID: f.store.ID, Name: name, Price: decimal.RequireFromString("10.50"), Quantity: qty, Active: true}
	require.NoError(t, f.repos.NewProductRepository().Create(context.Background(), product))

	return product
}

func TestTransactionManager_DiscardsWritesOnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Arroz", 5)

	boom := errors.New("boom")
	err := f.tm.Execute(ctx, func(tx repository.RepositoryFactory) error {
		require.NoError(t, tx.NewProductRepository().DecrementStock(ctx, product.ID, 5))

		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := f.repos.NewProductRepository().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Quantity)
	assert.Equal(t, 0, stored.Sold)
}

func TestTransactionManager_CommitsOnSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Arroz", 5)

	err := f.tm.Execute(ctx, func(tx repository.RepositoryFactory) error {
		return tx.NewProductRepository().DecrementStock(ctx, product.ID, 2)
	})
	require.NoError(t, err)

	stored, err := f.repos.NewProductRepository().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Quantity)
	assert.Equal(t, 2, stored.Sold)
	assert.Equal(t, 1, stored.Version)
}

func TestTransactionManager_SerializesConcurrentDecrements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Feijão", 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.tm.Execute(ctx, func(tx repository.RepositoryFactory) error {
				return tx.NewProductRepository().DecrementStock(ctx, product.ID, 1)
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	stored, err := f.repos.NewProductRepository().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, stored.Quantity)
	assert.Equal(t, 10, stored.Sold)
}

func TestUserRepository_Uniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := f.repos.NewUserRepository()

	err := users.Create(ctx, &entity.User{Email: "ANA@example.com", CPF: "999"})
	assert.ErrorIs(t, err, repository.ErrUserEmailTaken)

	err = users.Create(ctx, &entity.User{Email: "bia@example.com", CPF: f.user.CPF})
	assert.ErrorIs(t, err, repository.ErrUserCPFTaken)

	found, err := users.FindByEmail(ctx, "Ana@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, found.ID)
	assert.Equal(t, entity.Roles{entity.RoleUser}, found.Roles)
}

func TestRepositories_ReturnCopies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	found, err := f.repos.NewStoreRepository().FindByID(ctx, f.store.ID)
	require.NoError(t, err)
	found.Name = "changed"

	again, err := f.repos.NewStoreRepository().FindByID(ctx, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mercadinho", again.Name)
}

func TestProductRepository_ListActiveSkipsInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addProduct(t, "Banana", 1)
	hidden := f.addProduct(t, "Abacate", 1)
	hidden.Active = false
	require.NoError(t, f.repos.NewProductRepository().Update(ctx, hidden))

	closed := &entity.Store{OwnerID: f.user.ID, Name: "Fechada", CNPJ: "00.000.000/0001-00", Active: false}
	require.NoError(t, f.repos.NewStoreRepository().Create(ctx, closed))
	require.NoError(t, f.repos.NewProductRepository().Create(ctx, &entity.Product{StoreID: closed.ID, Name: "Caju", Quantity: 1, Active: true}))

	active, err := f.repos.NewProductRepository().ListActive(ctx, 0)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Banana", active[0].Name)

	all, err := f.repos.NewProductRepository().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDecrementStock_Guard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Arroz", 2)

	err := f.repos.NewProductRepository().DecrementStock(ctx, product.ID, 3)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
}

func TestDeleteStore_Cascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, "Arroz", 2)

	cart := &entity.Cart{UserID: f.user.ID}
	require.NoError(t, f.repos.NewCartRepository().Create(ctx, cart))
	require.NoError(t, f.repos.NewCartRepository().CreateItem(ctx, &entity.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1}))
	storeID := f.store.ID
	require.NoError(t, f.repos.NewAddressRepository().CreateAddress(ctx, &entity.Address{StoreID: &storeID, Street: "Rua A", City: "Recife", State: "PE"}))

	require.NoError(t, f.repos.NewStoreRepository().Delete(ctx, f.store.ID))

	_, err := f.repos.NewProductRepository().FindByID(ctx, product.ID)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
	_, err = f.repos.NewAddressRepository().FindAddressByStore(ctx, storeID)
	assert.ErrorIs(t, err, repository.ErrAddressNotFound)

	reloaded, err := f.repos.NewCartRepository().FindByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Items)
}

func TestAddressRepository_OneAddressPerStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeID := f.store.ID
	addresses := f.repos.NewAddressRepository()

	require.NoError(t, addresses.CreateAddress(ctx, &entity.Address{StoreID: &storeID, Street: "Rua A"}))
	err := addresses.CreateAddress(ctx, &entity.Address{StoreID: &storeID, Street: "Rua B"})
	assert.Error(t, err)
}

func TestCartRepository_ItemsOrderedByCreation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carts := f.repos.NewCartRepository()
	cart := &entity.Cart{UserID: f.user.ID}
	require.NoError(t, carts.Create(ctx, cart))

	first := f.addProduct(t, "Zebra", 5)
	second := f.addProduct(t, "Abacaxi", 5)
	require.NoError(t, carts.CreateItem(ctx, &entity.CartItem{CartID: cart.ID, ProductID: first.ID, Quantity: 1}))
	require.NoError(t, carts.CreateItem(ctx, &entity.CartItem{CartID: cart.ID, ProductID: second.ID, Quantity: 2}))

	err := carts.CreateItem(ctx, &entity.CartItem{CartID: cart.ID, ProductID: first.ID, Quantity: 1})
	assert.Error(t, err)

	loaded, err := carts.FindByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, first.ID, loaded.Items[0].ProductID)
	assert.Equal(t, second.ID, loaded.Items[1].ProductID)
}
