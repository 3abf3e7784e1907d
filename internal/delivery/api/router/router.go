// Package router contains routing and server setup for the API delivery.
package router

import (
	"net/http"
	"strconv"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/middleware"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/router/handler"
	"github.com/brunoeugeniodev/NaLojaTem/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
)

// Routes that accept photo uploads and get the upload body limit instead of the default one.
var uploadRoutes = map[string]string{
	"/api/lojas":          http.MethodPost,
	"/api/lojas/:id":      http.MethodPut,
	"/api/lojas/:id/foto": http.MethodPut,
}

// IsUploadRoute reports whether the request targets a photo upload route.
func IsUploadRoute(c echo.Context) bool {
	method, ok := uploadRoutes[c.Path()]

	return ok && method == c.Request().Method
}

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	StoreHandler   *handler.StoreHandler
	ProductHandler *handler.ProductHandler
	CartHandler    *handler.CartHandler
	AddressHandler *handler.AddressHandler
	SearchHandler  *handler.SearchHandler
	RateLimiter    *middleware.RateLimitMiddleware
	Metrics        *metrics.Metrics `optional:"true"`
	Config         *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	userHandler    *handler.UserHandler
	storeHandler   *handler.StoreHandler
	productHandler *handler.ProductHandler
	cartHandler    *handler.CartHandler
	addressHandler *handler.AddressHandler
	searchHandler  *handler.SearchHandler
	rateLimiter    *middleware.RateLimitMiddleware
	metrics        *metrics.Metrics
	config         *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		userHandler:    params.UserHandler,
		storeHandler:   params.StoreHandler,
		productHandler: params.ProductHandler,
		cartHandler:    params.CartHandler,
		addressHandler: params.AddressHandler,
		searchHandler:  params.SearchHandler,
		rateLimiter:    params.RateLimiter,
		metrics:        params.Metrics,
		config:         params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
// Access control is applied by the Authorize middleware, not per group.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	if r.metrics != nil && r.config.Metrics != nil && r.config.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(r.metrics.Handler()))
	}

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", r.authHandler.Login, r.rateLimiter.Limit)
		authGroup.POST("/registro", r.authHandler.Register, r.rateLimiter.Limit)
		authGroup.POST("/refresh", r.authHandler.RefreshToken)
		authGroup.POST("/logout", r.authHandler.Logout)
		authGroup.GET("/check-auth", r.authHandler.CheckAuth)
	}

	usersGroup := api.Group("/usuarios")
	{
		usersGroup.GET("/me", r.userHandler.GetProfile)
		usersGroup.PUT("/me", r.userHandler.UpdateProfile)
	}

	adminGroup := api.Group("/admin")
	{
		adminGroup.GET("/usuarios", r.userHandler.ListUsers)
		adminGroup.GET("/usuarios/:id", r.userHandler.GetUser)
		adminGroup.DELETE("/usuarios/:id", r.userHandler.DeleteUser)
	}

	uploadLimit := echomiddleware.BodyLimit(strconv.FormatInt(r.uploadLimit(), 10))
	storesGroup := api.Group("/lojas")
	{
		storesGroup.GET("", r.storeHandler.List)
		storesGroup.POST("", r.storeHandler.Create, uploadLimit)
		storesGroup.GET("/minhas-lojas", r.storeHandler.ListMine)
		storesGroup.GET("/recomendadas", r.storeHandler.ListRecommended)
		storesGroup.GET("/buscar", r.storeHandler.SearchByName)
		storesGroup.GET("/:id", r.storeHandler.Get)
		storesGroup.PUT("/:id", r.storeHandler.Update, uploadLimit)
		storesGroup.DELETE("/:id", r.storeHandler.Delete)
		storesGroup.GET("/:id/produtos", r.storeHandler.ListProducts)
		storesGroup.GET("/:id/foto", r.storeHandler.GetPhoto)
		storesGroup.PUT("/:id/foto", r.storeHandler.UpdatePhoto, uploadLimit)
		storesGroup.PUT("/:id/desativar", r.storeHandler.Deactivate)
		storesGroup.GET("/:id/qrcode", r.storeHandler.QRCode)
	}

	productsGroup := api.Group("/produtos")
	{
		productsGroup.GET("", r.productHandler.List)
		productsGroup.POST("", r.productHandler.Create)
		productsGroup.GET("/destaques", r.productHandler.Featured)
		productsGroup.GET("/loja/:lojaId", r.productHandler.ListByStore)
		productsGroup.GET("/:id", r.productHandler.Get)
		productsGroup.PUT("/:id", r.productHandler.Update)
		productsGroup.DELETE("/:id", r.productHandler.Delete)
	}

	cartGroup := api.Group("/carrinho")
	{
		cartGroup.GET("", r.cartHandler.Get)
		cartGroup.DELETE("", r.cartHandler.Clear)
		cartGroup.GET("/quantidade", r.cartHandler.Count)
		cartGroup.POST("/itens", r.cartHandler.AddItem)
		cartGroup.PUT("/itens/:id", r.cartHandler.UpdateQuantity)
		cartGroup.DELETE("/itens/:id", r.cartHandler.RemoveItem)
		cartGroup.POST("/limpar", r.cartHandler.Clear)
		cartGroup.DELETE("/limpar", r.cartHandler.Clear)
		cartGroup.POST("/checkout", r.cartHandler.Checkout)
	}

	addressesGroup := api.Group("/enderecos")
	{
		addressesGroup.GET("", r.addressHandler.List)
		addressesGroup.POST("", r.addressHandler.Create)
		addressesGroup.GET("/:id", r.addressHandler.Get)
		addressesGroup.PUT("/:id", r.addressHandler.Update)
		addressesGroup.DELETE("/:id", r.addressHandler.Delete)
	}

	api.GET("/busca", r.searchHandler.Search)
}

// uploadLimit leaves room for the multipart envelope around the photo.
func (r *router) uploadLimit() int64 {
	const envelope = 64 << 10

	limit := int64(5 << 20)
	if r.config.Blob != nil && r.config.Blob.MaxUploadSize > 0 {
		limit = r.config.Blob.MaxUploadSize
	}

	return limit + envelope
}
