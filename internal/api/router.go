package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/storefront/internal/api/handler"
	"github.com/99minutos/storefront/internal/api/middleware"
	"github.com/99minutos/storefront/internal/core/domain"
	"github.com/99minutos/storefront/internal/core/ports"
	"github.com/99minutos/storefront/internal/infrastructure/http/handlers"
)

const defaultPrefix = "/api/v1"

// Dependencies is everything the router wires into handlers and middleware.
type Dependencies struct {
	AuthService    ports.AuthService
	ProductService ports.ProductService
	Tokens         ports.AccessTokenVerifier
	// Search enables GET /products/search when set.
	Search ports.ProductSearcher
	// Limiter throttles register and login; nil disables throttling.
	Limiter     middleware.Limiter
	Probes      map[string]handlers.Pinger
	Logger      zerolog.Logger
	Prefix      string
	CORSOrigins []string
	// Registry receives the HTTP request metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	promMW, err := echoprometheus.MiddlewareConfig{
		Namespace:  "storefront",
		Subsystem:  "http",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
		},
	}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomiddleware.BodyLimit("1M"))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: corsOrigins(deps.CORSOrigins),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(promMW)

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	productHandler := handler.NewProductHandler(deps.ProductService)
	requireAuth := middleware.Auth(deps.Tokens)
	requireAdmin := middleware.RBAC(domain.RoleAdmin)
	rateLimit := middleware.RateLimit(deps.Limiter, deps.Logger)

	prefix := deps.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	v1 := e.Group(strings.TrimSuffix(prefix, "/"))

	// --- Auth routes ---
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register, rateLimit)
	auth.POST("/login", authHandler.Login, rateLimit)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, requireAuth)

	// --- Product routes: reads are public, mutations are admin-only ---
	products := v1.Group("/products")
	products.GET("", productHandler.List)
	if deps.Search != nil {
		products.GET("/search", handler.NewSearchHandler(deps.Search).Search)
	}
	products.GET("/:id", productHandler.Get)
	products.POST("", productHandler.Create, requireAuth, requireAdmin)
	products.PUT("/:id", productHandler.Update, requireAuth, requireAdmin)
	products.DELETE("/:id", productHandler.Delete, requireAuth, requireAdmin)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Probes, deps.Logger)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Metrics: request metrics plus the application and runtime collectors ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{reg, prometheus.DefaultGatherer},
	}))

	return e, nil
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
