package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// ProductSearchResult is one page of full-text matches.
type ProductSearchResult struct {
	Total    int64
	Products []*domain.Product
}

// ProductSearcher runs full-text queries against the catalog projection.
// The projection is fed by product events and may lag behind the store.
type ProductSearcher interface {
	Search(ctx context.Context, query string, from, size int) (*ProductSearchResult, error)
}
