// Package persistence selects the storage driver configured under storage.driver.
package persistence

import (
	"log/slog"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"
	"github.com/brunoeugeniodev/NaLojaTem/internal/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/persistence/memory"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/persistence/postgres"

	"go.uber.org/fx"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// Repositories is the full set of persistence ports handed to the usecases.
type Repositories struct {
	fx.Out

	Users         repository.UserRepository
	Addresses     repository.AddressRepository
	Stores        repository.StoreRepository
	Products      repository.ProductRepository
	Carts         repository.CartRepository
	RefreshTokens repository.RefreshTokenRepository
	TxManager     repository.TransactionManager
}

// New builds the repositories for the configured driver.
func New(params Params) (Repositories, error) {
	switch params.Config.Storage.Driver {
	case config.StorageDriverMemory:
		params.Logger.Warn("Using in-memory storage, data is lost on restart")
		db := memory.NewDB()

		return fromFactory(db.Repositories(), memory.NewTransactionManager(db)), nil
	case config.StorageDriverPostgres, "":
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return Repositories{}, err
		}

		return Repositories{
			Users:         postgres.NewUserRepository(db),
			Addresses:     postgres.NewAddressRepository(db),
			Stores:        postgres.NewStoreRepository(db),
			Products:      postgres.NewProductRepository(db),
			Carts:         postgres.NewCartRepository(db),
			RefreshTokens: postgres.NewRefreshTokenRepository(db),
			TxManager:     postgres.NewTransactionManager(db),
		}, nil
	default:
		return Repositories{}, errors.Errorf("unknown storage driver %q", params.Config.Storage.Driver)
	}
}

func fromFactory(factory repository.RepositoryFactory, tm repository.TransactionManager) Repositories {
	return Repositories{
		Users:         factory.NewUserRepository(),
		Addresses:     factory.NewAddressRepository(),
		Stores:        factory.NewStoreRepository(),
		Products:      factory.NewProductRepository(),
		Carts:         factory.NewCartRepository(),
		RefreshTokens: factory.NewRefreshTokenRepository(),
		TxManager:     tm,
	}
}
