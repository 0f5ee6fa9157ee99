package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

// ProductService implements the catalog use cases.
type ProductService struct {
	repo   ports.ProductRepository
	users  ports.UserRepository
	events ports.ProductEventPublisher
	logger zerolog.Logger
	now    func() time.Time
}

// NewProductService returns a ProductService. A nil publisher drops events.
func NewProductService(
	repo ports.ProductRepository,
	users ports.UserRepository,
	events ports.ProductEventPublisher,
	logger zerolog.Logger,
) *ProductService {
	if events == nil {
		events = nopPublisher{}
	}
	return &ProductService{
		repo:   repo,
		users:  users,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// Create persists a product owned by ownerID. The owner must exist.
func (s *ProductService) Create(ctx context.Context, in ports.CreateProductInput, ownerID string) (*domain.Product, error) {
	p := &domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		UserID:      ownerID,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create product")
		return nil, fmt.Errorf("create product: %w", err)
	}
	if created.Owner == nil {
		created.Owner = &domain.ProductOwner{ID: owner.ID, Email: owner.Email}
	}

	s.logger.Info().Str("product_id", created.ID).Str("user_id", ownerID).Msg("product created")
	s.events.Publish(ctx, domain.NewProductEvent(domain.ProductCreated, created, s.now()))
	return created, nil
}

func (s *ProductService) List(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Update applies patch to an existing product. A missing product is reported
// before the patch is validated, and nothing is written in that case.
func (s *ProductService) Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return existing, nil
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	if updated.Owner == nil {
		updated.Owner = existing.Owner
	}

	s.logger.Info().Str("product_id", id).Msg("product updated")
	s.events.Publish(ctx, domain.NewProductEvent(domain.ProductUpdated, updated, s.now()))
	return updated, nil
}

// Delete removes a product permanently.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.Info().Str("product_id", id).Msg("product deleted")
	s.events.Publish(ctx, domain.NewProductEvent(domain.ProductDeleted, existing, s.now()))
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.ProductEvent) {}
