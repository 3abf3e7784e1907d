package context

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// KeyPrincipal is the key for the authenticated principal.
const KeyPrincipal ContextKey = "principal"

// WithPrincipal returns a new context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, principal *entity.Principal) context.Context {
	return context.WithValue(ctx, KeyPrincipal, principal)
}

// GetPrincipalFromContext returns the principal stored in ctx, if any.
func GetPrincipalFromContext(ctx context.Context) (*entity.Principal, bool) {
	principal, ok := ctx.Value(KeyPrincipal).(*entity.Principal)

	return principal, ok && principal != nil
}

// SetPrincipal stores the principal on both the echo context and its request context.
func SetPrincipal(c echo.Context, principal *entity.Principal) {
	c.Set(string(KeyPrincipal), principal)
	req := c.Request()
	c.SetRequest(req.WithContext(WithPrincipal(req.Context(), principal)))
}

// GetPrincipal returns the principal of the current request, if authenticated.
func GetPrincipal(c echo.Context) (*entity.Principal, bool) {
	if principal, ok := c.Get(string(KeyPrincipal)).(*entity.Principal); ok && principal != nil {
		return principal, true
	}

	return GetPrincipalFromContext(c.Request().Context())
}
