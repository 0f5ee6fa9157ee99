package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

// AuthService implements registration, login and refresh-token rotation.
type AuthService struct {
	users            ports.UserRepository
	hasher           ports.PasswordHasher
	tokens           ports.TokenManager
	revoked          ports.TokenRevocationStore
	allowAdminSignup bool
	logger           zerolog.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithRevocationStore enables refresh-token revocation on logout and rotation.
func WithRevocationStore(store ports.TokenRevocationStore) AuthOption {
	return func(s *AuthService) { s.revoked = store }
}

// WithAdminSignup controls whether callers may self-register as ADMIN.
func WithAdminSignup(allowed bool) AuthOption {
	return func(s *AuthService) { s.allowAdminSignup = allowed }
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenManager,
	logger zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:            users,
		hasher:           hasher,
		tokens:           tokens,
		allowAdminSignup: true,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.TokenPair, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleAdmin && !s.allowAdminSignup {
		return nil, fmt.Errorf("%w: admin self-registration is disabled", domain.ErrForbidden)
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrUserExists
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, &domain.User{
		Email:        in.Email,
		PasswordHash: digest,
		Role:         role,
	})
	if err != nil {
		// a concurrent registration may win the unique index after our lookup
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return s.issuePair(user)
}

// Login never tells the caller whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// keep the unknown-email path as slow as a real comparison
			_, _ = s.hasher.Verify(password, s.dummyHash())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("stored password hash is unusable")
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Debug().Str("user_id", user.ID).Msg("user logged in")
	return s.issuePair(user)
}

// Refresh rotates a refresh token. The old token is revoked and a new pair is
// issued with the user's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.verifyRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: subject no longer exists", domain.ErrInvalidToken)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if s.revoked != nil {
		spent, err := s.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("refresh: revoke previous token: %w", err)
		}
		if spent {
			s.logger.Warn().Str("user_id", claims.UserID).Msg("refresh token replayed during rotation")
			return nil, fmt.Errorf("%w: token revoked", domain.ErrInvalidToken)
		}
	}
	return s.issuePair(user)
}

// Logout revokes the given refresh token until it would have expired anyway.
// Without a revocation store it only checks the token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.verifyRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if s.revoked == nil {
		s.logger.Warn().Str("user_id", claims.UserID).Msg("logout without revocation store; token stays valid until expiry")
		return nil
	}
	if _, err := s.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Info().Str("user_id", claims.UserID).Msg("refresh token revoked")
	return nil
}

func (s *AuthService) verifyRefresh(ctx context.Context, token string) (*domain.RefreshClaims, error) {
	claims, err := s.tokens.VerifyRefreshToken(token)
	if err != nil {
		return nil, err
	}
	if s.revoked == nil {
		return claims, nil
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", domain.ErrInvalidToken)
	}
	return claims, nil
}

func (s *AuthService) issuePair(user *domain.User) (*domain.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) dummyHash() string {
	s.dummyOnce.Do(func() {
		d, err := s.hasher.Hash("timing-equaliser")
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to prepare dummy hash")
			return
		}
		s.dummyDigest = d
	})
	return s.dummyDigest
}
