package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/healthfirst/provider-auth/internal/api/dto"
	"github.com/healthfirst/provider-auth/internal/auth"
	"github.com/healthfirst/provider-auth/internal/service"
	apperrors "github.com/healthfirst/provider-auth/pkg/util"
)

// TokenHandler exposes provider token endpoints.
type TokenHandler struct {
	auth *service.ProviderAuthService
}

// NewTokenHandler constructs handler.
func NewTokenHandler(authService *service.ProviderAuthService) *TokenHandler {
	return &TokenHandler{auth: authService}
}

// Validate handles POST /auth/provider/token/validate.
func (h *TokenHandler) Validate(c *fiber.Ctx) error {
	var req dto.TokenValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		return apperrors.NewValidationError("token required", map[string]any{"field": "token"})
	}

	result, err := h.auth.Introspect(req.Token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTokenValidateResponse(result)})
}

// Reissue handles POST /auth/provider/token/reissue.
func (h *TokenHandler) Reissue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	provider, issued, err := h.auth.Reissue(c.UserContext(), principal.Provider.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"provider": dto.NewProviderResponse(provider),
			"auth":     dto.NewAuthResponse(issued),
		},
	})
}
