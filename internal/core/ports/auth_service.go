package ports

import (
	"context"

	"github.com/99minutos/storefront/internal/core/domain"
)

// RegisterInput carries the registration form. Role may be empty.
type RegisterInput struct {
	Email    string
	Password string
	Role     string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.TokenPair, error)
	Login(ctx context.Context, email, password string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}
