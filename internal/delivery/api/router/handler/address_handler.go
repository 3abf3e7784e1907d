package handler

import (
	"log/slog"
	"net/http"

	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/middleware"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/response"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AddressHandlerParams holds dependencies for AddressHandler, injected by Fx.
type AddressHandlerParams struct {
	fx.In

	AddressUC usecase.AddressUsecase
	Logger    *slog.Logger
}

// AddressHandler serves the addresses ("enderecos") of the signed-in user.
type AddressHandler struct {
	addressUC usecase.AddressUsecase
	logger    *slog.Logger
}

// NewAddressHandler is the constructor for AddressHandler
func NewAddressHandler(params AddressHandlerParams) *AddressHandler {
	return &AddressHandler{
		addressUC: params.AddressUC,
		logger:    params.Logger,
	}
}

func (h *AddressHandler) List(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}

	addresses, err := h.addressUC.List(c.Request().Context(), principal.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	out := make([]*AddressResponse, 0, len(addresses))
	for _, address := range addresses {
		out = append(out, newAddressResponse(address))
	}

	return response.Success(c, http.StatusOK, out)
}

func (h *AddressHandler) Get(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}
	addressID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	address, err := h.addressUC.Get(c.Request().Context(), principal.UserID, addressID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newAddressResponse(address))
}

func (h *AddressHandler) Create(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}

	var req AddressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	address, err := h.addressUC.Create(c.Request().Context(), principal.UserID, req.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newAddressResponse(address))
}

func (h *AddressHandler) Update(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}
	addressID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req AddressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	address, err := h.addressUC.Update(c.Request().Context(), principal.UserID, addressID, req.toInput())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newAddressResponse(address))
}

func (h *AddressHandler) Delete(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}
	addressID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.addressUC.Delete(c.Request().Context(), principal.UserID, addressID); err != nil {
		return errors.WithStack(err)
	}

	return response.NoContent(c)
}
