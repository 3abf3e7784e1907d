package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/auth"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/persistence/memory"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/qrcode"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/revocation"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/storage"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig(maxActiveSessions int) *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:        4,
			MaxActiveSessions: maxActiveSessions,
			AccessTokenTTL:    time.Hour,
			RefreshTokenTTL:   24 * time.Hour,
		},
		PasswordStrength: &config.PasswordStrengthConfig{MinLength: 6, MaxLength: 72},
		Blob:             &config.BlobConfig{MaxUploadSize: 1024},
	}
	cfg.App.BaseURL = "http://localhost:8080"
	cfg.SecretKey.Access = "test-access-secret"
	cfg.SecretKey.Refresh = "test-refresh-secret"

	return cfg
}

// mockEventPublisher records checkout events.
type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishCheckoutEvent(ctx context.Context, event *entity.CheckoutEvent) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

func (m *mockEventPublisher) Close() error {
	return m.Called().Error(0)
}

// recordingMetrics counts observations by label.
type recordingMetrics struct {
	mu        sync.Mutex
	mutations map[string]int
	checkouts map[string]int
	units     int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{mutations: map[string]int{}, checkouts: map[string]int{}}
}

func (m *recordingMetrics) ObserveCartMutation(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations[operation]++
}

func (m *recordingMetrics) ObserveCheckout(result string, units int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkouts[result]++
	m.units += units
}

// testEnv wires every service over one in-memory database.
type testEnv struct {
	db        *memory.DB
	repos     repository.RepositoryFactory
	cfg       *config.Config
	tokens    service.TokenService
	publisher *mockEventPublisher
	metrics   *recordingMetrics

	auth     *authService
	users    usecase.UserUsecase
	stores   usecase.StoreUsecase
	products usecase.ProductUsecase
	carts    *cartService
	address  usecase.AddressUsecase
	search   usecase.SearchUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := newTestConfig(3)
	logger := newDiscardLogger()
	db := memory.NewDB()
	repos := db.Repositories()
	txManager := memory.NewTransactionManager(db)

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = bucket.Close() })

	publisher := &mockEventPublisher{}
	publisher.On("PublishCheckoutEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	metrics := newRecordingMetrics()

	env := &testEnv{
		db:        db,
		repos:     repos,
		cfg:       cfg,
		tokens:    tokens,
		publisher: publisher,
		metrics:   metrics,
	}

	env.auth = newAuthService(AuthServiceParams{
		TxManager:        txManager,
		UserRepo:         repos.NewUserRepository(),
		RefreshTokenRepo: repos.NewRefreshTokenRepository(),
		Hasher:           auth.NewBcryptHasher(cfg),
		TokenService:     tokens,
		Revocations:      revocation.NewMemoryList(),
		Config:           cfg,
		Logger:           logger,
	}, time.Now)
	env.users = NewUserService(UserServiceParams{
		TxManager: txManager,
		UserRepo:  repos.NewUserRepository(),
		Hasher:    auth.NewBcryptHasher(cfg),
		Config:    cfg,
		Logger:    logger,
	})
	env.stores = NewStoreService(StoreServiceParams{
		TxManager:   txManager,
		StoreRepo:   repos.NewStoreRepository(),
		AddressRepo: repos.NewAddressRepository(),
		Photos:      storage.NewBlobPhotoStorage(bucket),
		QRCodes:     qrcode.NewQRCodeService(cfg),
		Config:      cfg,
		Logger:      logger,
	})
	env.products = NewProductService(ProductServiceParams{
		TxManager:   txManager,
		ProductRepo: repos.NewProductRepository(),
		StoreRepo:   repos.NewStoreRepository(),
		Logger:      logger,
	})
	env.carts = newCartService(CartServiceParams{
		TxManager: txManager,
		CartRepo:  repos.NewCartRepository(),
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
	}, time.Now)
	env.address = NewAddressService(AddressServiceParams{
		TxManager:   txManager,
		AddressRepo: repos.NewAddressRepository(),
		Logger:      logger,
	})
	env.search = NewSearchService(SearchServiceParams{
		StoreRepo:   repos.NewStoreRepository(),
		ProductRepo: repos.NewProductRepository(),
		Logger:      logger,
	})

	return env
}

// register creates a user and returns the principal the filter would build for them.
func (env *testEnv) register(t *testing.T, name, email, cpf string) *entity.Principal {
	t.Helper()

	out, err := env.auth.Register(context.Background(), &usecase.RegisterInput{
		Name:     name,
		Email:    email,
		CPF:      cpf,
		Password: "secret123",
	})
	require.NoError(t, err)

	return &entity.Principal{UserID: out.User.ID, Email: out.User.Email, Roles: out.User.Roles}
}

func (env *testEnv) openStore(t *testing.T, owner *entity.Principal, name, cnpj string) *entity.Store {
	t.Helper()

	details, err := env.stores.Create(context.Background(), owner, &usecase.StoreInput{Name: name, CNPJ: cnpj})
	require.NoError(t, err)

	return details.Store
}

func (env *testEnv) addProduct(t *testing.T, owner *entity.Principal, storeID *entity.Store, name, price string, qty int) *entity.Product {
	t.Helper()

	product, err := env.products.Create(context.Background(), owner, &usecase.ProductInput{
		StoreID:  storeID.ID,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	})
	require.NoError(t, err)

	return product
}

// reloadProduct reads the committed product, bypassing any usecase.
func (env *testEnv) reloadProduct(t *testing.T, product *entity.Product) *entity.Product {
	t.Helper()

	current, err := env.repos.NewProductRepository().FindByID(context.Background(), product.ID)
	require.NoError(t, err)

	return current
}
