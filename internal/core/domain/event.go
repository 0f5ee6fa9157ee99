package domain

import "time"

// ProductEventType names a catalog mutation.
type ProductEventType string

const (
	ProductCreated ProductEventType = "product_created"
	ProductUpdated ProductEventType = "product_updated"
	ProductDeleted ProductEventType = "product_deleted"
)

// ProductEvent is emitted after a product mutation has been persisted.
type ProductEvent struct {
	Type        ProductEventType `json:"type"`
	ProductID   string           `json:"productId"`
	Name        string           `json:"name,omitempty"`
	Description string           `json:"description,omitempty"`
	Price       float64          `json:"price,omitempty"`
	UserID      string           `json:"userId,omitempty"`
	OccurredAt  time.Time        `json:"occurredAt"`
}

// NewProductEvent builds an event snapshot of p.
func NewProductEvent(t ProductEventType, p *Product, at time.Time) ProductEvent {
	return ProductEvent{
		Type:        t,
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		UserID:      p.UserID,
		OccurredAt:  at.UTC(),
	}
}
