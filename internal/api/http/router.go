package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/healthfirst/provider-auth/internal/api/http/handlers"
	"github.com/healthfirst/provider-auth/internal/auth"
	"github.com/healthfirst/provider-auth/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tokens         *handlers.TokenHandler
	Providers      *handlers.ProvidersHandler
	AuthMiddleware *auth.AuthMiddleware

	// StrictAuthMiddleware loads providers past any cache. It guards
	// routes that depend on the current verification status and falls
	// back to AuthMiddleware when nil.
	StrictAuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	strict := cfg.StrictAuthMiddleware
	if strict == nil {
		strict = cfg.AuthMiddleware
	}
	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleProvider)}

	tokenGroup := app.Group("/auth/provider/token")
	tokenGroup.Post("/validate", cfg.Tokens.Validate)
	tokenGroup.Post("/reissue",
		strict.Handle,
		auth.RequireRole(domain.RoleProvider),
		auth.RequireVerificationStatus(domain.VerificationStatusPending, domain.VerificationStatusVerified),
		cfg.Tokens.Reissue,
	)

	providers := app.Group("/providers", authenticated...)
	providers.Get("/me", cfg.Providers.Me)
}
