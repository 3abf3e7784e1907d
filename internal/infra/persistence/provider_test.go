package persistence

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func TestNew_MemoryDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = config.StorageDriverMemory

	repos, err := New(Params{
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	user := &entity.User{Email: "ana@example.com", CPF: "1"}
	require.NoError(t, repos.Users.Create(context.Background(), user))

	found, err := repos.Users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", found.Email)
	assert.NotNil(t, repos.TxManager)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = "sqlite"

	_, err := New(Params{
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	assert.Error(t, err)
}

func TestNew_PostgresDriverRequiresConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = config.StorageDriverPostgres

	_, err := New(Params{
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	assert.Error(t, err)
}
