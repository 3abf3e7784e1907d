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

// UserHandlerParams holds dependencies for UserHandler, injected by Fx.
type UserHandlerParams struct {
	fx.In

	UserUC usecase.UserUsecase
	Logger *slog.Logger
}

// UserHandler serves the profile and the admin account endpoints.
type UserHandler struct {
	userUC usecase.UserUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler
func NewUserHandler(params UserHandlerParams) *UserHandler {
	return &UserHandler{
		userUC: params.UserUC,
		logger: params.Logger,
	}
}

// UpdateProfileRequest holds the profile fields to change. Omitted fields are kept.
type UpdateProfileRequest struct {
	Nome  *string `json:"nome" validate:"omitempty,max=100"`
	Email *string `json:"email" validate:"omitempty,email"`
	Senha *string `json:"senha"`
}

// GetProfile returns the signed-in account.
func (h *UserHandler) GetProfile(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.userUC.GetProfile(c.Request().Context(), principal.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newUserResponse(user))
}

// UpdateProfile changes the signed-in account.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	principal, err := middleware.RequirePrincipal(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userUC.UpdateProfile(c.Request().Context(), principal.UserID, &usecase.UpdateProfileInput{
		Name:     req.Nome,
		Email:    req.Email,
		Password: req.Senha,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newUserResponse(user))
}

// ListUsers returns every account.
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userUC.ListUsers(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	out := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, newUserResponse(user))
	}

	return response.Success(c, http.StatusOK, out)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	user, err := h.userUC.GetUser(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newUserResponse(user))
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.userUC.DeleteUser(c.Request().Context(), userID); err != nil {
		return errors.WithStack(err)
	}

	return response.NoContent(c)
}
