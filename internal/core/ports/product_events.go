package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// ProductEventPublisher accepts events from the product service. Publish must
// not block on the downstream broker.
type ProductEventPublisher interface {
	Publish(ctx context.Context, event domain.ProductEvent)
}

// ProductEventSink delivers a single event to its destination.
type ProductEventSink interface {
	Write(ctx context.Context, event domain.ProductEvent) error
}
