package handler

import (
	"log/slog"
	"net/http"

	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/middleware"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/response"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// ProductHandlerParams holds dependencies for ProductHandler, injected by Fx.
type ProductHandlerParams struct {
	fx.In

	ProductUC usecase.ProductUsecase
	Logger    *slog.Logger
}

// ProductHandler serves the product ("produto") endpoints.
type ProductHandler struct {
	productUC usecase.ProductUsecase
	logger    *slog.Logger
}

// NewProductHandler is the constructor for ProductHandler
func NewProductHandler(params ProductHandlerParams) *ProductHandler {
	return &ProductHandler{
		productUC: params.ProductUC,
		logger:    params.Logger,
	}
}

// ProductRequest represents the product body. LojaID is ignored on update.
type ProductRequest struct {
	LojaID     uuid.UUID       `json:"lojaId"`
	Nome       string          `json:"nome" validate:"required,max=100"`
	Descricao  string          `json:"descricao" validate:"max=1000"`
	Preco      decimal.Decimal `json:"preco"`
	Quantidade int             `json:"quantidade" validate:"gte=0"`
	FotoURL    string          `json:"fotoUrl" validate:"omitempty,max=500"`
	Ativo      *bool           `json:"ativo"`
}

func (r *ProductRequest) toInput() *usecase.ProductInput {
	return &usecase.ProductInput{
		StoreID:     r.LojaID,
		Name:        r.Nome,
		Description: r.Descricao,
		Price:       r.Preco,
		Quantity:    r.Quantidade,
		PhotoURL:    r.FotoURL,
		Active:      r.Ativo,
	}
}

// Create adds a product to a store of the caller.
func (h *ProductHandler) Create(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}

	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	product, err := h.productUC.Create(c.Request().Context(), principal, req.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newProductResponse(product))
}

func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.productUC.ListActive(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProductResponses(products))
}

// Featured serves GET /api/produtos/destaques.
func (h *ProductHandler) Featured(c echo.Context) error {
	products, err := h.productUC.Featured(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProductResponses(products))
}

func (h *ProductHandler) ListByStore(c echo.Context) error {
	storeID, err := parseIDParam(c, "lojaId")
	if err != nil {
		return err
	}

	products, err := h.productUC.ListByStore(c.Request().Context(), storeID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProductResponses(products))
}

func (h *ProductHandler) Get(c echo.Context) error {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	product, err := h.productUC.Get(c.Request().Context(), productID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProductResponse(product))
}

func (h *ProductHandler) Update(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	product, err := h.productUC.Update(c.Request().Context(), principal, productID, req.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProductResponse(product))
}

func (h *ProductHandler) Delete(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.productUC.Delete(c.Request().Context(), principal, productID); err != nil {
		return errors.WithStack(err)
	}

	return response.NoContent(c)
}
