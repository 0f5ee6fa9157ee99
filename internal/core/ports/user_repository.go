package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// UserRepository defines the persistence operations for users.
// Implementations return domain.ErrUserNotFound when no user matches and
// domain.ErrUserExists when the unique email constraint is violated.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
