package usecase

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
)

// SearchResult holds the matches of a keyword search.
type SearchResult struct {
	Stores   []*entity.Store
	Products []*entity.Product
}

// SearchUsecase runs the keyword search ("busca") over stores and products.
type SearchUsecase interface {
	// Search matches query as a case-insensitive substring of store and product names.
	Search(ctx context.Context, query string) (*SearchResult, error)
}
