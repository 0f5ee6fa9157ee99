package ports

import (
	"context"
	"time"

	"github.com/99minutos/storefront/internal/core/domain"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Verify returns false with a nil error on mismatch. A non-nil error means
	// the digest itself is unusable.
	Verify(plain, digest string) (bool, error)
}

// AccessTokenVerifier is the subset of TokenManager the access gate needs.
type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (*domain.AccessClaims, error)
}

// TokenManager issues and verifies access and refresh tokens.
type TokenManager interface {
	AccessTokenVerifier
	IssueAccessToken(userID string, role domain.Role) (string, error)
	IssueRefreshToken(userID string) (string, error)
	VerifyRefreshToken(token string) (*domain.RefreshClaims, error)
}

// TokenRevocationStore remembers revoked refresh tokens until they expire.
// Revoke is an atomic claim: it reports true when tokenID was already revoked,
// so only one caller can ever spend a given refresh token.
type TokenRevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) (alreadyRevoked bool, err error)
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
