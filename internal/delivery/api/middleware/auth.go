package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	bearerPrefix    = "Bearer "
	tokenQueryParam = "token"
	apiPrefix       = "/api/"
)

// tokenCookies are checked in order after the header and query parameter.
var tokenCookies = []string{"token", "jwtToken"}

type accessLevel int

const (
	accessPublic accessLevel = iota
	accessAuthenticated
	accessRoles
)

// accessRule grants access to requests matching methods and pattern.
// A pattern ending in "/**" matches the prefix and everything below it.
// Empty methods match any method.
type accessRule struct {
	methods  []string
	patterns []string
	level    accessLevel
	roles    entity.Roles
}

func (r accessRule) matches(method, path string) bool {
	if len(r.methods) > 0 && !slices.Contains(r.methods, method) {
		return false
	}

	for _, pattern := range r.patterns {
		if base, ok := strings.CutSuffix(pattern, "/**"); ok {
			if path == base || strings.HasPrefix(path, base+"/") {
				return true
			}

			continue
		}
		if path == pattern {
			return true
		}
	}

	return false
}

var readOnly = []string{http.MethodGet, http.MethodHead}

// accessTable is consulted top to bottom; the first match wins.
var accessTable = []accessRule{
	{patterns: []string{"/api/auth/**"}, level: accessPublic},
	{patterns: []string{"/api/busca/**"}, level: accessPublic},
	{patterns: []string{"/api/public/**"}, level: accessPublic},
	{patterns: []string{"/api/admin/**"}, level: accessRoles, roles: entity.Roles{entity.RoleAdmin}},
	{patterns: []string{"/api/vendedor/**"}, level: accessRoles, roles: entity.Roles{entity.RoleSeller, entity.RoleAdmin}},
	{patterns: []string{"/api/lojas/minhas-lojas"}, level: accessAuthenticated},
	{
		methods: readOnly,
		patterns: []string{
			"/api/lojas",
			"/api/lojas/recomendadas",
			"/api/lojas/buscar",
			"/api/lojas/:id",
			"/api/lojas/:id/produtos",
			"/api/lojas/:id/foto",
			"/api/lojas/:id/qrcode",
		},
		level: accessPublic,
	},
	{methods: readOnly, patterns: []string{"/api/produtos/**"}, level: accessPublic},
	{patterns: []string{"/api/carrinho/**"}, level: accessAuthenticated},
	{methods: readOnly, patterns: []string{"/health", "/metrics"}, level: accessPublic},
}

// resolveAccess returns the rule that applies to a request. Unmatched API
// paths require authentication; everything else is public.
func resolveAccess(method, path string) accessRule {
	for _, rule := range accessTable {
		if rule.matches(method, path) {
			return rule
		}
	}

	if strings.HasPrefix(path, apiPrefix) {
		return accessRule{level: accessAuthenticated}
	}

	return accessRule{level: accessPublic}
}

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	AuthUC usecase.AuthUsecase
	Config *config.Config
	Logger *slog.Logger
}

// AuthMiddleware authenticates requests by token and enforces the access table.
type AuthMiddleware struct {
	authUC         usecase.AuthUsecase
	bypassPrefixes []string
	logger         *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	m := &AuthMiddleware{
		authUC: params.AuthUC,
		logger: params.Logger,
	}
	if params.Config != nil && params.Config.Auth != nil {
		m.bypassPrefixes = params.Config.Auth.BypassPrefixes
	}

	return m
}

// Authenticate attaches the principal of a valid access token to the request.
// It never rejects a request; Authorize decides what anonymous callers may reach.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.bypassed(c.Request().URL.Path) {
			return next(c)
		}
		if _, ok := deliverycontext.GetPrincipal(c); ok {
			return next(c)
		}

		token := ExtractToken(c)
		if token == "" {
			return next(c)
		}

		principal, err := m.authUC.Authenticate(c.Request().Context(), token)
		if err != nil {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
				Debug("Ignoring unusable token", slog.Any("error", err), slog.String("path", c.Request().URL.Path))

			return next(c)
		}

		deliverycontext.SetPrincipal(c, principal)

		return next(c)
	}
}

// Authorize rejects requests the access table does not allow.
func (m *AuthMiddleware) Authorize(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Path()
		if path == "" {
			path = c.Request().URL.Path
		}

		rule := resolveAccess(c.Request().Method, path)
		if rule.level == accessPublic {
			return next(c)
		}

		principal, ok := deliverycontext.GetPrincipal(c)
		if !ok {
			return errors.WithStack(domainerrors.ErrUnauthorized)
		}
		if rule.level == accessRoles && !principal.Roles.ContainsAny(rule.roles...) {
			return errors.WithStack(domainerrors.ErrForbidden)
		}

		return next(c)
	}
}

func (m *AuthMiddleware) bypassed(path string) bool {
	for _, prefix := range m.bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// ExtractToken finds the raw token of a request: the Bearer header first,
// then the token query parameter, then the token cookies.
func ExtractToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, bearerPrefix); ok && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token)
	}

	if token := strings.TrimSpace(c.QueryParam(tokenQueryParam)); token != "" {
		return token
	}

	for _, name := range tokenCookies {
		cookie, err := c.Cookie(name)
		if err == nil && strings.TrimSpace(cookie.Value) != "" {
			return strings.TrimSpace(cookie.Value)
		}
	}

	return ""
}

// RequirePrincipal returns the authenticated principal or ErrUnauthorized.
func RequirePrincipal(c echo.Context) (*entity.Principal, error) {
	principal, ok := deliverycontext.GetPrincipal(c)
	if !ok {
		return nil, errors.WithStack(domainerrors.ErrUnauthorized)
	}

	return principal, nil
}
