package handler

import (
	"log/slog"
	"net/http"

	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/middleware"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/response"
	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const tokenTypeBearer = "Bearer"

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC usecase.AuthUsecase
	Logger *slog.Logger
}

// AuthHandler serves registration, login and session endpoints.
type AuthHandler struct {
	authUC usecase.AuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		authUC: params.AuthUC,
		logger: params.Logger,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Senha string `json:"senha" validate:"required"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Nome  string `json:"nome" validate:"required,max=100"`
	CPF   string `json:"cpf" validate:"required,max=14"`
	Email string `json:"email" validate:"required,email"`
	Senha string `json:"senha" validate:"required"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutRequest optionally carries the refresh token to end.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse is returned by login and refresh.
type LoginResponse struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	Type         string   `json:"type"`
	Username     string   `json:"username"`
	Authorities  []string `json:"authorities"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Message   string    `json:"message"`
	UsuarioID uuid.UUID `json:"usuarioId"`
	Email     string    `json:"email"`
}

// CheckAuthResponse reports whether the request carried a usable token.
type CheckAuthResponse struct {
	Authenticated bool     `json:"authenticated"`
	Username      string   `json:"username,omitempty"`
	Authorities   []string `json:"authorities,omitempty"`
}

func newLoginResponse(output *usecase.LoginOutput) *LoginResponse {
	return &LoginResponse{
		Token:        output.AccessToken,
		RefreshToken: output.RefreshToken,
		Type:         tokenTypeBearer,
		Username:     output.User.Email,
		Authorities:  output.User.Roles.ToStrings(),
	}
}

// Login handles the user login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.authUC.Login(c.Request().Context(), &usecase.LoginInput{
		Email:    req.Email,
		Password: req.Senha,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newLoginResponse(output))
}

// Register handles the account registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.authUC.Register(c.Request().Context(), &usecase.RegisterInput{
		Name:     req.Nome,
		Email:    req.Email,
		CPF:      req.CPF,
		Password: req.Senha,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, &RegisterResponse{
		Message:   "Usuário registrado com sucesso",
		UsuarioID: output.User.ID,
		Email:     output.User.Email,
	})
}

// RefreshToken handles the token refresh request.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	output, err := h.authUC.RefreshToken(c.Request().Context(), &usecase.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newLoginResponse(output))
}

// Logout revokes the presented access token and ends the refresh session, if given.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Debug("Ignoring unreadable logout body", slog.Any("error", err))
	}

	if err := h.authUC.Logout(c.Request().Context(), &usecase.LogoutInput{
		AccessToken:  middleware.ExtractToken(c),
		RefreshToken: req.RefreshToken,
	}); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusOK, "Logout realizado com sucesso")
}

// CheckAuth reports the principal of the request without requiring one.
func (h *AuthHandler) CheckAuth(c echo.Context) error {
	principal, ok := deliverycontext.GetPrincipal(c)
	if !ok {
		return response.Success(c, http.StatusOK, &CheckAuthResponse{Authenticated: false})
	}

	return response.Success(c, http.StatusOK, &CheckAuthResponse{
		Authenticated: true,
		Username:      principal.Email,
		Authorities:   principal.Roles.ToStrings(),
	})
}
