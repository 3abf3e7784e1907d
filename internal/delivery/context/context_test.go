package context

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	assert.Empty(t, GetRequestIDFromContext(context.Background()))
	assert.Same(t, base, GetLoggerOrDefault(context.Background(), base))

	ctx, logger := Scope(context.Background(), base, "req-1")
	assert.Equal(t, "req-1", GetRequestIDFromContext(ctx))
	assert.Same(t, logger, GetLoggerOrDefault(ctx, base))

	logger.Info("hello")
	assert.Contains(t, buf.String(), "request_id=req-1")
}

func TestGetRequestID(t *testing.T) {
	e := echo.New()
	newContext := func() echo.Context {
		return e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	}

	c := newContext()
	SetRequestID(c, "from-echo")
	assert.Equal(t, "from-echo", GetRequestID(c))

	c = newContext()
	ctx, _ := Scope(c.Request().Context(), slog.Default(), "from-request")
	c.SetRequest(c.Request().WithContext(ctx))
	assert.Equal(t, "from-request", GetRequestID(c))

	_, err := uuid.Parse(GetRequestID(newContext()))
	assert.NoError(t, err)
}

func TestPrincipal(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := GetPrincipal(c)
	assert.False(t, ok)

	principal := &entity.Principal{UserID: uuid.New(), Email: "ana@example.com", Roles: entity.Roles{entity.RoleUser}}
	SetPrincipal(c, principal)

	got, ok := GetPrincipal(c)
	require.True(t, ok)
	assert.Same(t, principal, got)

	fromCtx, ok := GetPrincipalFromContext(c.Request().Context())
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", fromCtx.Email)
}
