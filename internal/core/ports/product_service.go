package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// CreateProductInput carries the data needed to create a product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
}

// ProductService defines the catalog use cases. It carries no authorization
// policy; role checks happen at the route layer.
type ProductService interface {
	Create(ctx context.Context, in CreateProductInput, ownerID string) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}
