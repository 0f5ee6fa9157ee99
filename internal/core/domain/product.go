package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

// ProductOwner is the public projection of the user that created a product.
type ProductOwner struct {
	ID    string
	Email string
}

// Product is an item offered in the catalog.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	UserID      string
	// Owner is populated by read paths; nil when the store did not join it.
	Owner     *ProductOwner
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the invariants every stored product must satisfy.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.Price <= 0 {
		return fmt.Errorf("%w: price must be greater than 0", ErrValidation)
	}
	return nil
}

// ProductPatch is a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
}

// Empty reports whether the patch carries no field at all.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil
}

// Validate checks only the fields present in the patch.
func (p ProductPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if p.Price != nil && *p.Price <= 0 {
		return fmt.Errorf("%w: price must be greater than 0", ErrValidation)
	}
	return nil
}

// Apply returns a copy of prod with the patch fields written over it.
func (p ProductPatch) Apply(prod Product) Product {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	return prod
}
