package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

// HTTPObserver receives one observation per finished request.
type HTTPObserver interface {
	TrackInFlight() func()
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// MetricsMiddleware reports request counts and latencies by route template.
type MetricsMiddleware struct {
	observer HTTPObserver
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(observer HTTPObserver) *MetricsMiddleware {
	return &MetricsMiddleware{observer: observer}
}

// Handle records the request after the handler and error handler ran.
func (m *MetricsMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		done := m.observer.TrackInFlight()
		defer done()

		start := time.Now()
		err := next(c)
		if err != nil {
			// Let the error handler write the status before it is observed.
			c.Error(err)
		}

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		m.observer.ObserveHTTP(c.Request().Method, route, c.Response().Status, time.Since(start))

		return nil
	}
}
