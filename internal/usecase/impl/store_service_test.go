package impl

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")

	details, err := env.stores.Create(ctx, owner, &usecase.StoreInput{
		Name:        "Padaria",
		CNPJ:        "12345678000199",
		Description: "Pães frescos",
		Address: &usecase.AddressInput{
			Street: "Rua A", Number: "10", Neighborhood: "Centro", City: "Recife", State: "PE",
		},
	})
	require.NoError(t, err)
	assert.True(t, details.Store.Active)
	assert.Equal(t, owner.UserID, details.Store.OwnerID)
	require.NotNil(t, details.Address)
	assert.Equal(t, "Rua A, 10 - Centro, Recife - PE", details.Address.FullAddress())

	// The owner becomes a seller.
	user, err := env.users.GetProfile(ctx, owner.UserID)
	require.NoError(t, err)
	assert.True(t, user.HasRole(entity.RoleSeller))

	// Store addresses are not listed as the owner's own addresses.
	addresses, err := env.address.List(ctx, owner.UserID)
	require.NoError(t, err)
	assert.Empty(t, addresses)
}

func TestStoreService_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")
	env.openStore(t, owner, "Primeira", "12345678000199")

	tests := []struct {
		name    string
		input   usecase.StoreInput
		wantMsg string
	}{
		{name: "missing name", input: usecase.StoreInput{CNPJ: "1"}, wantMsg: "Nome da loja é obrigatório"},
		{name: "missing cnpj", input: usecase.StoreInput{Name: "Loja"}, wantMsg: "CNPJ é obrigatório"},
		{name: "duplicate cnpj", input: usecase.StoreInput{Name: "Loja", CNPJ: "12345678000199"}, wantMsg: "CNPJ já cadastrado: 12345678000199"},
		{
			name:    "description too long",
			input:   usecase.StoreInput{Name: "Loja", CNPJ: "2", Description: strings.Repeat("a", entity.StoreDescriptionMaxLength+1)},
			wantMsg: "Descrição deve ter no máximo 500 caracteres",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.stores.Create(ctx, owner, &tt.input)
			requireHTTPCode(t, err, http.StatusBadRequest)
			requireMessage(t, err, tt.wantMsg)
		})
	}

	_, err := env.stores.Create(ctx, nil, &usecase.StoreInput{Name: "Loja", CNPJ: "3"})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestStoreService_OwnershipRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")
	stranger := env.register(t, "Outro", "outro@example.com", "22222222222")
	admin := &entity.Principal{UserID: uuid.New(), Roles: entity.Roles{entity.RoleAdmin}}
	store := env.openStore(t, owner, "Padaria", "12345678000199")

	_, err := env.stores.Update(ctx, stranger, store.ID, &usecase.StoreInput{Name: "Minha", CNPJ: store.CNPJ})
	assert.ErrorIs(t, err, domainerrors.ErrNotStoreOwner)
	requireHTTPCode(t, err, http.StatusForbidden)

	err = env.stores.Delete(ctx, stranger, store.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotStoreOwner)

	_, err = env.stores.Deactivate(ctx, stranger, store.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotStoreOwner)

	updated, err := env.stores.Update(ctx, admin, store.ID, &usecase.StoreInput{Name: "Padaria Nova", CNPJ: store.CNPJ})
	require.NoError(t, err)
	assert.Equal(t, "Padaria Nova", updated.Store.Name)
	assert.Equal(t, owner.UserID, updated.Store.OwnerID)
}

func TestStoreService_Update_CNPJAndAddress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")
	first := env.openStore(t, owner, "Primeira", "111")
	env.openStore(t, owner, "Segunda", "222")

	_, err := env.stores.Update(ctx, owner, first.ID, &usecase.StoreInput{Name: "Primeira", CNPJ: "222"})
	assert.ErrorIs(t, err, domainerrors.ErrCNPJInUse)
	requireMessage(t, err, "CNPJ já está em uso: 222")

	details, err := env.stores.Update(ctx, owner, first.ID, &usecase.StoreInput{
		Name: "Primeira", CNPJ: "111",
		Address: &usecase.AddressInput{Street: "Rua B", Number: "2", Neighborhood: "Boa Vista", City: "Recife", State: "PE"},
	})
	require.NoError(t, err)
	require.NotNil(t, details.Address)
	addressID := details.Address.ID

	details, err = env.stores.Update(ctx, owner, first.ID, &usecase.StoreInput{
		Name: "Primeira", CNPJ: "111",
		Address: &usecase.AddressInput{Street: "Rua C", Number: "3", Neighborhood: "Boa Vista", City: "Recife", State: "PE"},
	})
	require.NoError(t, err)
	assert.Equal(t, addressID, details.Address.ID)
	assert.Equal(t, "Rua C", details.Address.Street)

	// Without an address the current one is kept.
	details, err = env.stores.Update(ctx, owner, first.ID, &usecase.StoreInput{Name: "Primeira", CNPJ: "111"})
	require.NoError(t, err)
	require.NotNil(t, details.Address)
	assert.Equal(t, "Rua C", details.Address.Street)
}

func TestStoreService_Listings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")
	other := env.register(t, "Outro", "outro@example.com", "22222222222")

	for i, name := range []string{"Açougue", "Padaria", "Peixaria", "Mercearia", "Farmácia", "Quitanda", "Sorveteria"} {
		env.openStore(t, owner, name, string(rune('A'+i)))
	}
	closed := env.openStore(t, owner, "Padaria Fechada", "Z")
	env.openStore(t, other, "Padaria do Outro", "Y")

	_, err := env.stores.Deactivate(ctx, owner, closed.ID)
	require.NoError(t, err)

	active, err := env.stores.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 8)

	mine, err := env.stores.ListMine(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 8)

	recommended, err := env.stores.ListRecommended(ctx)
	require.NoError(t, err)
	assert.Len(t, recommended, recommendedStoresLimit)
	for _, details := range recommended {
		assert.True(t, details.Store.Active)
	}

	found, err := env.stores.SearchByName(ctx, "padaria")
	require.NoError(t, err)
	names := make([]string, 0, len(found))
	for _, details := range found {
		names = append(names, details.Store.Name)
	}
	assert.ElementsMatch(t, []string{"Padaria", "Padaria do Outro"}, names)
}

func TestStoreService_Delete_CascadesProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")
	buyer := env.register(t, "Cliente", "cliente@example.com", "22222222222")
	store := env.openStore(t, owner, "Padaria", "111")
	product := env.addProduct(t, owner, store, "Pão", "1.00", 10)

	_, err := env.carts.AddItem(ctx, buyer.UserID, product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, env.stores.Delete(ctx, owner, store.ID))

	_, err = env.stores.Get(ctx, store.ID)
	assert.ErrorIs(t, err, domainerrors.ErrStoreNotFound)
	_, err = env.products.Get(ctx, product.ID)
	assert.ErrorIs(t, err, domainerrors.ErrProductNotFound)

	count, err := env.carts.Count(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStoreService_Photos(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")
	store := env.openStore(t, owner, "Padaria", "111")

	_, err := env.stores.OpenPhoto(ctx, store.ID)
	assert.ErrorIs(t, err, domainerrors.ErrPhotoNotFound)

	_, err = env.stores.UploadPhoto(ctx, owner, store.ID, &usecase.PhotoUpload{
		ContentType: "text/plain", Size: 3, Body: strings.NewReader("abc"),
	})
	requireMessage(t, err, "A foto deve ser uma imagem")

	_, err = env.stores.UploadPhoto(ctx, owner, store.ID, &usecase.PhotoUpload{
		ContentType: "image/png", Size: 4096, Body: bytes.NewReader(make([]byte, 4096)),
	})
	requireMessage(t, err, "A foto deve ter no máximo 1.0 KB")

	image := []byte("\x89PNG fake image")
	details, err := env.stores.UploadPhoto(ctx, owner, store.ID, &usecase.PhotoUpload{
		ContentType: "image/png", Size: int64(len(image)), Body: bytes.NewReader(image),
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/lojas/"+store.ID.String()+"/foto", details.Store.PhotoURL)

	photo, err := env.stores.OpenPhoto(ctx, store.ID)
	require.NoError(t, err)
	defer photo.Body.Close()
	body, err := io.ReadAll(photo.Body)
	require.NoError(t, err)
	assert.Equal(t, image, body)
	assert.Equal(t, "image/png", photo.ContentType)

	// Switching to an external URL unlinks the blob.
	details, err = env.stores.SetPhotoURL(ctx, owner, store.ID, "https://cdn.example.com/p.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/p.jpg", details.Store.PhotoURL)
	_, err = env.stores.OpenPhoto(ctx, store.ID)
	assert.ErrorIs(t, err, domainerrors.ErrPhotoNotFound)

	_, err = env.stores.SetPhotoURL(ctx, owner, store.ID, " ")
	requireMessage(t, err, "fotoUrl é obrigatório")
}

func TestStoreService_QRCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")
	store := env.openStore(t, owner, "Padaria", "111")

	png, err := env.stores.QRCode(ctx, store.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = env.stores.QRCode(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrStoreNotFound)
}
