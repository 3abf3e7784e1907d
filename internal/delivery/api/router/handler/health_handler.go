package handler

import (
	"net/http"

	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/response"

	"github.com/labstack/echo/v4"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, &HealthResponse{Status: "ok"})
}
