package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/storefront/internal/api/metrics"
	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
)

// Echo context keys set by Auth.
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
)

// Auth verifies the bearer access token and attaches the caller's identity to
// both the echo context and the request context.
func Auth(verifier ports.AccessTokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header").
					SetInternal(domain.ErrUnauthenticated)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header").
					SetInternal(domain.ErrUnauthenticated)
			}

			claims, err := verifier.VerifyAccessToken(strings.TrimSpace(parts[1]))
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrInvalidToken.Error()).
					SetInternal(err)
			}
			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()

			c.Set(ContextKeyUserID, claims.UserID)
			c.Set(ContextKeyRole, string(claims.Role))

			req := c.Request()
			c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), domain.Identity{
				UserID: claims.UserID,
				Role:   claims.Role,
			})))

			return next(c)
		}
	}
}
