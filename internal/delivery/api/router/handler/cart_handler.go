package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/middleware"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/response"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const quantityParam = "quantidade"

// CartHandlerParams holds dependencies for CartHandler, injected by Fx.
type CartHandlerParams struct {
	fx.In

	CartUC usecase.CartUsecase
	Logger *slog.Logger
}

// CartHandler serves the cart ("carrinho") of the signed-in user.
type CartHandler struct {
	cartUC usecase.CartUsecase
	logger *slog.Logger
}

// NewCartHandler is the constructor for CartHandler
func NewCartHandler(params CartHandlerParams) *CartHandler {
	return &CartHandler{
		cartUC: params.CartUC,
		logger: params.Logger,
	}
}

// AddItemRequest represents the request body for adding a product to the cart
type AddItemRequest struct {
	ProdutoID  uuid.UUID `json:"produtoId" validate:"required"`
	Quantidade int       `json:"quantidade"`
}

// UpdateQuantityRequest carries the new absolute quantity of a line.
type UpdateQuantityRequest struct {
	Quantidade *int `json:"quantidade"`
}

// CountResponse is the body of GET /api/carrinho/quantidade.
type CountResponse struct {
	Quantidade int `json:"quantidade"`
}

// CheckoutResponse summarises a finished checkout.
type CheckoutResponse struct {
	Message  string      `json:"message"`
	PedidoID uuid.UUID   `json:"pedidoId"`
	Total    json.Number `json:"total"`
	Itens    int         `json:"totalItens"`
}

func (h *CartHandler) Get(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}

	details, err := h.cartUC.GetOrCreateCart(c.Request().Context(), principal.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCartResponse(details))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}

	var req AddItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	details, err := h.cartUC.AddItem(c.Request().Context(), principal.UserID, req.ProdutoID, req.Quantidade)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCartResponse(details))
}

// UpdateQuantity reads quantidade from the query string or the JSON body.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	qty, err := readQuantity(c)
	if err != nil {
		return err
	}

	details, err := h.cartUC.UpdateQuantity(c.Request().Context(), principal.UserID, itemID, qty)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCartResponse(details))
}

func readQuantity(c echo.Context) (int, error) {
	if raw := c.QueryParam(quantityParam); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return 0, errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Quantidade inválida"))
		}

		return qty, nil
	}

	var req UpdateQuantityRequest
	if err := c.Bind(&req); err != nil || req.Quantidade == nil {
		return 0, errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Quantidade é obrigatória"))
	}

	return *req.Quantidade, nil
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	details, err := h.cartUC.RemoveItem(c.Request().Context(), principal.UserID, itemID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCartResponse(details))
}

// Clear empties the cart; the cart itself is kept.
func (h *CartHandler) Clear(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}

	details, err := h.cartUC.Clear(c.Request().Context(), principal.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCartResponse(details))
}

func (h *CartHandler) Count(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}

	count, err := h.cartUC.Count(c.Request().Context(), principal.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, &CountResponse{Quantidade: count})
}

func (h *CartHandler) Checkout(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}

	output, err := h.cartUC.Checkout(c.Request().Context(), principal.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	units := 0
	for _, item := range output.Event.Items {
		units += item.Quantity
	}

	return response.Success(c, http.StatusOK, &CheckoutResponse{
		Message:  "Compra finalizada com sucesso",
		PedidoID: output.Event.CheckoutID,
		Total:    money(output.Event.Total),
		Itens:    units,
	})
}
