package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/healthfirst/provider-auth/internal/api/dto"
	"github.com/healthfirst/provider-auth/internal/auth"
	apperrors "github.com/healthfirst/provider-auth/pkg/util"
)

// ProvidersHandler serves the authenticated provider's profile.
type ProvidersHandler struct{}

// NewProvidersHandler constructs handler.
func NewProvidersHandler() *ProvidersHandler {
	return &ProvidersHandler{}
}

// Me handles GET /providers/me.
func (h *ProvidersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.NewProviderResponse(principal.Provider)})
}
