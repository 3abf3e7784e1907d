package impl

import (
	"context"
	"net/http"
	"testing"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")
	store := env.openStore(t, owner, "Padaria", "111")

	tests := []struct {
		name    string
		input   usecase.ProductInput
		wantMsg string
	}{
		{name: "missing name", input: usecase.ProductInput{StoreID: store.ID, Price: decimal.NewFromInt(1)}, wantMsg: "Nome do produto é obrigatório"},
		{name: "negative price", input: usecase.ProductInput{StoreID: store.ID, Name: "Pão", Price: decimal.NewFromInt(-1)}, wantMsg: "Preço não pode ser negativo"},
		{name: "negative quantity", input: usecase.ProductInput{StoreID: store.ID, Name: "Pão", Quantity: -1}, wantMsg: "Quantidade não pode ser negativa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.products.Create(ctx, owner, &tt.input)
			requireHTTPCode(t, err, http.StatusBadRequest)
			requireMessage(t, err, tt.wantMsg)
		})
	}

	_, err := env.products.Create(ctx, owner, &usecase.ProductInput{StoreID: uuid.New(), Name: "Pão"})
	assert.ErrorIs(t, err, domainerrors.ErrStoreNotFound)
}

func TestProductService_OwnershipIsTransitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")
	stranger := env.register(t, "Outro", "outro@example.com", "22222222222")
	store := env.openStore(t, owner, "Padaria", "111")
	product := env.addProduct(t, owner, store, "Pão", "1.00", 10)

	_, err := env.products.Create(ctx, stranger, &usecase.ProductInput{StoreID: store.ID, Name: "Bolo"})
	assert.ErrorIs(t, err, domainerrors.ErrNotStoreOwner)

	_, err = env.products.Update(ctx, stranger, product.ID, &usecase.ProductInput{Name: "Pão", Price: decimal.NewFromInt(2)})
	assert.ErrorIs(t, err, domainerrors.ErrNotStoreOwner)
	requireHTTPCode(t, err, http.StatusForbidden)

	err = env.products.Delete(ctx, stranger, product.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotStoreOwner)

	require.NoError(t, env.products.Delete(ctx, owner, product.ID))
	_, err = env.products.Get(ctx, product.ID)
	assert.ErrorIs(t, err, domainerrors.ErrProductNotFound)
}

func TestProductService_Update_KeepsStoreAndBumpsVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")
	store := env.openStore(t, owner, "Padaria", "111")
	other := env.openStore(t, owner, "Confeitaria", "222")
	product := env.addProduct(t, owner, store, "Pão", "1.00", 10)

	updated, err := env.products.Update(ctx, owner, product.ID, &usecase.ProductInput{
		StoreID:  other.ID,
		Name:     "Pão francês",
		Price:    decimal.RequireFromString("1.25"),
		Quantity: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, store.ID, updated.StoreID)
	assert.True(t, updated.Active)

	current := env.reloadProduct(t, product)
	assert.Equal(t, "Pão francês", current.Name)
	assert.Equal(t, 20, current.Quantity)
	assert.Greater(t, current.Version, product.Version)
}

func TestProductService_Listings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")
	open := env.openStore(t, owner, "Aberta", "111")
	closed := env.openStore(t, owner, "Fechada", "222")

	env.addProduct(t, owner, open, "Banana", "3.00", 5)
	apple := env.addProduct(t, owner, open, "Abacaxi", "6.00", 5)
	env.addProduct(t, owner, closed, "Cenoura", "2.00", 5)

	inactive := false
	_, err := env.products.Update(ctx, owner, apple.ID, &usecase.ProductInput{
		Name: apple.Name, Price: apple.Price, Quantity: apple.Quantity, Active: &inactive,
	})
	require.NoError(t, err)
	_, err = env.stores.Deactivate(ctx, owner, closed.ID)
	require.NoError(t, err)

	names := func(products []*entity.Product) []string {
		out := make([]string, 0, len(products))
		for _, p := range products {
			out = append(out, p.Name)
		}

		return out
	}

	active, err := env.products.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana"}, names(active))

	featured, err := env.products.Featured(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana"}, names(featured))

	byStore, err := env.products.ListByStore(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana"}, names(byStore))

	byClosed, err := env.products.ListByStore(ctx, closed.ID)
	require.NoError(t, err)
	assert.Empty(t, byClosed)

	_, err = env.products.ListByStore(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrStoreNotFound)
}

func TestProductService_Delete_RemovesCartLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")
	buyer := env.register(t, "Cliente", "cliente@example.com", "22222222222")
	store := env.openStore(t, owner, "Padaria", "111")
	product := env.addProduct(t, owner, store, "Pão", "1.00", 10)

	_, err := env.carts.AddItem(ctx, buyer.UserID, product.ID, 4)
	require.NoError(t, err)

	require.NoError(t, env.products.Delete(ctx, owner, product.ID))

	details, err := env.carts.GetOrCreateCart(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.True(t, details.Cart.IsEmpty())
}
