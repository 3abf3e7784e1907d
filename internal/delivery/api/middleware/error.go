// Package middleware contains the echo middleware of the API delivery.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/response"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/validator"
	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrorMiddleware handles errors in the HTTP pipeline
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	logger := deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger)

	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		_ = response.BadRequestWithDetails(c, domainerrors.ErrValidationFailed.ErrorCode(), validationErr.Message(), validationErr.Fields)

		return
	}

	// Attempt to parse as AppError
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode() >= http.StatusInternalServerError {
			logger.Error("Request failed", slog.Any("error", err), slog.String("path", c.Request().URL.Path))
		} else if appErr.HTTPCode() == http.StatusUnauthorized || appErr.HTTPCode() == http.StatusForbidden {
			// Token parse failures end up here; keep them out of the body.
			logger.Debug("Request rejected", slog.Any("error", err), slog.String("path", c.Request().URL.Path))
		}

		_ = response.HandleAppError(c, appErr)

		return
	}

	// Check if it is an Echo HTTPError
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		switch httpErr.Code {
		case http.StatusNotFound:
			message = domainerrors.ErrNotFound.Message()
		case http.StatusRequestEntityTooLarge:
			message = "Requisição muito grande"
		default:
			if msg, ok := httpErr.Message.(string); ok {
				message = msg
			}
		}

		_ = response.Error(c, httpErr.Code, "HTTP_ERROR", message, nil)

		return
	}

	// Default to internal error, log the error but return a generic message (do not expose internal details)
	logger.Error("Unhandled error",
		slog.Any("error", err),
		slog.String("path", c.Request().URL.Path),
		slog.String("method", c.Request().Method),
	)

	_ = response.InternalServerError(c, domainerrors.ErrInternalError.ErrorCode(), domainerrors.ErrInternalError.Message())
}
