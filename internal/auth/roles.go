package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/healthfirst/provider-auth/internal/domain"
)

// RequireRole ensures the token carries one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Claims == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Claims.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireVerificationStatus ensures the provider's status is allowed.
// It checks the record loaded by the auth middleware, not the claim, so
// the result is only as fresh as that middleware's provider repository.
func RequireVerificationStatus(allowed ...domain.VerificationStatus) fiber.Handler {
	allowedSet := make(map[domain.VerificationStatus]struct{}, len(allowed))
	for _, status := range allowed {
		allowedSet[status] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Provider == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if _, exists := allowedSet[principal.Provider.VerificationStatus]; !exists {
			return fiber.NewError(http.StatusForbidden, "verification status not permitted")
		}
		return c.Next()
	}
}
