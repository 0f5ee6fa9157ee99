package security

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/storefront/internal/core/domain"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var errSecrets = errors.New("jwt: access and refresh secrets must be non-empty and distinct")

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager implements ports.TokenManager. Access and refresh tokens are
// HS256-signed with separate secrets so one class cannot be forged from the other.
type JWTManager struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// Option customises a JWTManager.
type Option func(*JWTManager)

// WithClock overrides the time source used for iat/exp and for validation.
func WithClock(now func() time.Time) Option {
	return func(m *JWTManager) { m.now = now }
}

func NewJWTManager(accessSecret, refreshSecret []byte, opts ...Option) (*JWTManager, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 || bytes.Equal(accessSecret, refreshSecret) {
		return nil, errSecrets
	}
	m := &JWTManager{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *JWTManager) IssueAccessToken(userID string, role domain.Role) (string, error) {
	claims := accessClaims{
		Role:             string(role),
		RegisteredClaims: m.registered(userID, AccessTokenTTL),
	}
	return m.sign(claims, m.accessSecret)
}

func (m *JWTManager) IssueRefreshToken(userID string) (string, error) {
	return m.sign(m.registered(userID, RefreshTokenTTL), m.refreshSecret)
}

func (m *JWTManager) VerifyAccessToken(token string) (*domain.AccessClaims, error) {
	var claims accessClaims
	if err := m.parse(token, &claims, m.accessSecret); err != nil {
		return nil, err
	}
	role := domain.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return nil, fmt.Errorf("%w: incomplete claims", domain.ErrInvalidToken)
	}
	return &domain.AccessClaims{
		UserID:    claims.Subject,
		Role:      role,
		IssuedAt:  timeOf(claims.IssuedAt),
		ExpiresAt: timeOf(claims.ExpiresAt),
	}, nil
}

func (m *JWTManager) VerifyRefreshToken(token string) (*domain.RefreshClaims, error) {
	var claims jwt.RegisteredClaims
	if err := m.parse(token, &claims, m.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: incomplete claims", domain.ErrInvalidToken)
	}
	return &domain.RefreshClaims{
		UserID:    claims.Subject,
		TokenID:   claims.ID,
		IssuedAt:  timeOf(claims.IssuedAt),
		ExpiresAt: timeOf(claims.ExpiresAt),
	}, nil
}

// registered builds the standard claims. Every token gets its own jti so two
// tokens issued in the same second never collide.
func (m *JWTManager) registered(userID string, ttl time.Duration) jwt.RegisteredClaims {
	now := m.now()
	return jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (m *JWTManager) sign(claims jwt.Claims, secret []byte) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *JWTManager) parse(token string, claims jwt.Claims, secret []byte) error {
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return domain.ErrInvalidToken
	}
	return nil
}

func timeOf(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time.UTC()
}
