package handler

import (
	"log/slog"
	"net/http"

	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/api/response"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// SearchHandlerParams holds dependencies for SearchHandler, injected by Fx.
type SearchHandlerParams struct {
	fx.In

	SearchUC usecase.SearchUsecase
	Logger   *slog.Logger
}

// SearchHandler serves the keyword search ("busca").
type SearchHandler struct {
	searchUC usecase.SearchUsecase
	logger   *slog.Logger
}

// NewSearchHandler is the constructor for SearchHandler
func NewSearchHandler(params SearchHandlerParams) *SearchHandler {
	return &SearchHandler{
		searchUC: params.SearchUC,
		logger:   params.Logger,
	}
}

// SearchResponse lists the stores and products matching the query.
type SearchResponse struct {
	Lojas    []*StoreResponse   `json:"lojas"`
	Produtos []*ProductResponse `json:"produtos"`
}

// Search serves GET /api/busca?q=.
func (h *SearchHandler) Search(c echo.Context) error {
	result, err := h.searchUC.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return errors.WithStack(err)
	}

	stores := make([]*StoreResponse, 0, len(result.Stores))
	for _, store := range result.Stores {
		stores = append(stores, newStoreResponse(&usecase.StoreDetails{Store: store}))
	}

	return response.Success(c, http.StatusOK, &SearchResponse{
		Lojas:    stores,
		Produtos: newProductResponses(result.Products),
	})
}
