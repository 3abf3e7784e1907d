package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthUsecase struct {
	mock.Mock
	usecase.AuthUsecase
}

func (m *mockAuthUsecase) Authenticate(ctx context.Context, token string) (*entity.Principal, error) {
	args := m.Called(ctx, token)
	principal, _ := args.Get(0).(*entity.Principal)

	return principal, args.Error(1)
}

func newAuthMiddleware(authUC usecase.AuthUsecase) *AuthMiddleware {
	cfg := &config.Config{Auth: &config.AuthConfig{BypassPrefixes: []string{"/css/", "/error"}}}

	return NewAuthMiddleware(AuthMiddlewareParams{
		AuthUC: authUC,
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestResolveAccess(t *testing.T) {
	tests := []struct {
		method string
		path   string
		level  accessLevel
	}{
		{http.MethodPost, "/api/auth/login", accessPublic},
		{http.MethodGet, "/api/busca", accessPublic},
		{http.MethodGet, "/api/public/banner", accessPublic},
		{http.MethodGet, "/api/admin/usuarios", accessRoles},
		{http.MethodPost, "/api/vendedor/pedidos", accessRoles},
		{http.MethodGet, "/api/lojas/minhas-lojas", accessAuthenticated},
		{http.MethodGet, "/api/lojas", accessPublic},
		{http.MethodPost, "/api/lojas", accessAuthenticated},
		{http.MethodGet, "/api/lojas/:id/foto", accessPublic},
		{http.MethodPut, "/api/lojas/:id/foto", accessAuthenticated},
		{http.MethodGet, "/api/produtos", accessPublic},
		{http.MethodGet, "/api/produtos/loja/:lojaId", accessPublic},
		{http.MethodDelete, "/api/produtos/:id", accessAuthenticated},
		{http.MethodGet, "/api/carrinho", accessAuthenticated},
		{http.MethodGet, "/api/enderecos", accessAuthenticated},
		{http.MethodGet, "/health", accessPublic},
		{http.MethodGet, "/", accessPublic},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.level, resolveAccess(tt.method, tt.path).level)
		})
	}

	seller := resolveAccess(http.MethodGet, "/api/vendedor/painel")
	assert.Equal(t, entity.Roles{entity.RoleSeller, entity.RoleAdmin}, seller.roles)
}

func TestExtractToken(t *testing.T) {
	e := echo.New()

	t.Run("header wins over query and cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
		req.AddCookie(&http.Cookie{Name: "token", Value: "from-cookie"})

		assert.Equal(t, "from-header", ExtractToken(e.NewContext(req, httptest.NewRecorder())))
	})

	t.Run("query before cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
		req.AddCookie(&http.Cookie{Name: "jwtToken", Value: "from-cookie"})

		assert.Equal(t, "from-query", ExtractToken(e.NewContext(req, httptest.NewRecorder())))
	})

	t.Run("second cookie name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "jwtToken", Value: "from-cookie"})

		assert.Equal(t, "from-cookie", ExtractToken(e.NewContext(req, httptest.NewRecorder())))
	})

	t.Run("non bearer header is ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Basic dXNlcjpwYXNz")

		assert.Empty(t, ExtractToken(e.NewContext(req, httptest.NewRecorder())))
	})
}

func runFilter(t *testing.T, m *AuthMiddleware, req *http.Request) (*entity.Principal, bool) {
	t.Helper()

	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())

	var (
		principal *entity.Principal
		found     bool
	)
	err := m.Authenticate(func(c echo.Context) error {
		principal, found = deliverycontext.GetPrincipalFromContext(c.Request().Context())

		return nil
	})(c)
	require.NoError(t, err)

	return principal, found
}

func TestAuthenticate(t *testing.T) {
	principal := &entity.Principal{UserID: uuid.New(), Email: "ana@example.com", Roles: entity.Roles{entity.RoleUser}}

	t.Run("valid token populates the principal", func(t *testing.T) {
		authUC := &mockAuthUsecase{}
		authUC.On("Authenticate", mock.Anything, "good").Return(principal, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/carrinho", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer good")

		got, ok := runFilter(t, newAuthMiddleware(authUC), req)
		require.True(t, ok)
		assert.Equal(t, principal, got)
		authUC.AssertExpectations(t)
	})

	t.Run("failures are swallowed", func(t *testing.T) {
		authUC := &mockAuthUsecase{}
		authUC.On("Authenticate", mock.Anything, "bad").
			Return(nil, errors.WithStack(domainerrors.ErrUnauthorized)).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/carrinho", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer bad")

		_, ok := runFilter(t, newAuthMiddleware(authUC), req)
		assert.False(t, ok)
		authUC.AssertExpectations(t)
	})

	t.Run("bypassed prefixes are not inspected", func(t *testing.T) {
		authUC := &mockAuthUsecase{}

		req := httptest.NewRequest(http.MethodGet, "/css/site.css", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer good")

		_, ok := runFilter(t, newAuthMiddleware(authUC), req)
		assert.False(t, ok)
		authUC.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
	})

	t.Run("existing principal is kept", func(t *testing.T) {
		authUC := &mockAuthUsecase{}

		req := httptest.NewRequest(http.MethodGet, "/api/carrinho", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer other")
		req = req.WithContext(deliverycontext.WithPrincipal(req.Context(), principal))

		got, ok := runFilter(t, newAuthMiddleware(authUC), req)
		require.True(t, ok)
		assert.Equal(t, principal, got)
		authUC.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
	})
}

func TestAuthorize(t *testing.T) {
	m := newAuthMiddleware(&mockAuthUsecase{})
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	serve := func(method, route string, principal *entity.Principal) error {
		req := httptest.NewRequest(method, route, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath(route)
		if principal != nil {
			deliverycontext.SetPrincipal(c, principal)
		}

		return m.Authorize(ok)(c)
	}

	user := &entity.Principal{UserID: uuid.New(), Roles: entity.Roles{entity.RoleUser}}
	admin := &entity.Principal{UserID: uuid.New(), Roles: entity.Roles{entity.RoleAdmin}}

	require.NoError(t, serve(http.MethodGet, "/api/lojas", nil))
	require.NoError(t, serve(http.MethodGet, "/api/carrinho", user))
	require.NoError(t, serve(http.MethodGet, "/api/admin/usuarios", admin))
	require.NoError(t, serve(http.MethodGet, "/api/vendedor/painel", admin))

	assert.ErrorIs(t, serve(http.MethodGet, "/api/carrinho", nil), domainerrors.ErrUnauthorized)
	assert.ErrorIs(t, serve(http.MethodGet, "/api/admin/usuarios", user), domainerrors.ErrForbidden)
	assert.ErrorIs(t, serve(http.MethodGet, "/api/vendedor/painel", user), domainerrors.ErrForbidden)
}

func TestRateLimit(t *testing.T) {
	cfg := &config.Config{Auth: &config.AuthConfig{
		RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 2},
	}}
	m := NewRateLimitMiddleware(cfg)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	e := echo.New()
	call := func(ip string) error {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = ip + ":4321"
		c := e.NewContext(req, httptest.NewRecorder())

		return m.Limit(func(c echo.Context) error { return nil })(c)
	}

	require.NoError(t, call("10.0.0.1"))
	require.NoError(t, call("10.0.0.1"))
	assert.ErrorIs(t, call("10.0.0.1"), domainerrors.ErrTooManyRequests)
	require.NoError(t, call("10.0.0.2"), "buckets are per client")

	now = now.Add(time.Second)
	require.NoError(t, call("10.0.0.1"), "a token refills after one second")

	now = now.Add(limiterIdleTTL + limiterSweepPeriod)
	require.NoError(t, call("10.0.0.3"))
	m.mu.Lock()
	assert.NotContains(t, m.clients, "10.0.0.1", "idle clients are swept")
	m.mu.Unlock()
}

func TestRateLimit_Disabled(t *testing.T) {
	m := NewRateLimitMiddleware(&config.Config{Auth: &config.AuthConfig{}})
	e := echo.New()

	for range 10 {
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), httptest.NewRecorder())
		require.NoError(t, m.Limit(func(c echo.Context) error { return nil })(c))
	}
}
