package middleware

import (
	"sync"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL     = 10 * time.Minute
	limiterSweepPeriod = time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware throttles requests per client IP with a token bucket.
type RateLimitMiddleware struct {
	enabled bool
	limit   rate.Limit
	burst   int
	now     func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

// NewRateLimitMiddleware creates the limiter for credential endpoints.
func NewRateLimitMiddleware(cfg *config.Config) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		limit:   rate.Limit(1),
		burst:   5,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
	if cfg != nil && cfg.Auth != nil {
		m.enabled = cfg.Auth.RateLimit.Enabled
		if cfg.Auth.RateLimit.RequestsPerSecond > 0 {
			m.limit = rate.Limit(cfg.Auth.RateLimit.RequestsPerSecond)
		}
		if cfg.Auth.RateLimit.Burst > 0 {
			m.burst = cfg.Auth.RateLimit.Burst
		}
	}

	return m
}

// Limit answers 429 once a client exhausts its bucket.
func (m *RateLimitMiddleware) Limit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !m.enabled {
			return next(c)
		}

		if !m.allow(c.RealIP()) {
			return errors.WithStack(domainerrors.ErrTooManyRequests)
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) allow(ip string) bool {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= limiterSweepPeriod {
		for key, client := range m.clients {
			if now.Sub(client.lastSeen) >= limiterIdleTTL {
				delete(m.clients, key)
			}
		}
		m.lastSweep = now
	}

	client, ok := m.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.clients[ip] = client
	}
	client.lastSeen = now

	return client.limiter.AllowN(now, 1)
}
