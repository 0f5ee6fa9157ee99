package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// ProductRepository defines persistence operations for products.
// Read methods populate Product.Owner with the creator's id and email.
// Missing rows are reported as domain.ErrProductNotFound.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}
