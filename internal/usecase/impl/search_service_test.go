package impl

import (
	"context"
	"testing"

	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchService_Search(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "Dona", "dona@example.com", "11111111111")

	bakery := env.openStore(t, owner, "Padaria Pão Quente", "111")
	market := env.openStore(t, owner, "Mercadinho", "222")
	env.addProduct(t, owner, bakery, "Pão de queijo", "0.80", 100)
	env.addProduct(t, owner, market, "Queijo coalho", "25.00", 10)
	env.addProduct(t, owner, market, "Leite", "4.00", 10)

	_, err := env.stores.Deactivate(ctx, owner, market.ID)
	require.NoError(t, err)

	result, err := env.search.Search(ctx, "QUEIJO")
	require.NoError(t, err)
	assert.Empty(t, result.Stores)
	require.Len(t, result.Products, 2)

	// Inactive records are part of the scan.
	result, err = env.search.Search(ctx, "merca")
	require.NoError(t, err)
	require.Len(t, result.Stores, 1)
	assert.Equal(t, market.ID, result.Stores[0].ID)
	assert.Empty(t, result.Products)

	result, err = env.search.Search(ctx, "pão")
	require.NoError(t, err)
	assert.Len(t, result.Stores, 1)
	assert.Len(t, result.Products, 1)

	_, err = env.search.Search(ctx, "   ")
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}
