package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewRequestIDMiddleware(logger)
	e := echo.New()

	run := func(header string) (string, string) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(deliverycontext.HeaderXRequestID, header)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		var fromCtx string
		require.NoError(t, m.Process(func(c echo.Context) error {
			fromCtx = deliverycontext.GetRequestIDFromContext(c.Request().Context())
			assert.NotNil(t, deliverycontext.GetLogger(c.Request().Context()))

			return nil
		})(c))

		return fromCtx, rec.Header().Get(deliverycontext.HeaderXRequestID)
	}

	fromCtx, echoed := run("trace-123")
	assert.Equal(t, "trace-123", fromCtx)
	assert.Equal(t, "trace-123", echoed)

	fromCtx, echoed = run("")
	assert.Len(t, fromCtx, 36)
	assert.Equal(t, fromCtx, echoed)

	fromCtx, _ = run("bad id with spaces")
	assert.NotEqual(t, "bad id with spaces", fromCtx)

	fromCtx, _ = run(strings.Repeat("a", maxRequestIDLength+1))
	assert.Len(t, fromCtx, 36)
}

type recordingObserver struct {
	inFlight int
	method   string
	route    string
	status   int
}

func (o *recordingObserver) TrackInFlight() func() {
	o.inFlight++

	return func() { o.inFlight-- }
}

func (o *recordingObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	o.method, o.route, o.status = method, route, status
}

func TestMetricsMiddleware(t *testing.T) {
	e := echo.New()
	observer := &recordingObserver{}
	e.Use(NewMetricsMiddleware(observer).Handle)
	e.GET("/api/lojas/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lojas/42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, http.MethodGet, observer.method)
	assert.Equal(t, "/api/lojas/:id", observer.route)
	assert.Equal(t, http.StatusTeapot, observer.status)
	assert.Zero(t, observer.inFlight)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusOf(echo.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusOf(io.EOF))
}
