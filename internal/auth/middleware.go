package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/healthfirst/provider-auth/internal/domain"
	"github.com/healthfirst/provider-auth/internal/observability"
	"github.com/healthfirst/provider-auth/internal/repository"
	apperrors "github.com/healthfirst/provider-auth/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated provider.
type Principal struct {
	Provider *domain.Provider
	Claims   *Claims
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens    *TokenService
	providers repository.ProviderRepository
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenService, providers repository.ProviderRepository, logger *zap.Logger, metrics *observability.Metrics) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, providers: providers, logger: logger, metrics: metrics}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return m.reject(c, "missing_header", apperrors.NewUnauthorized("missing authorization header"))
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return m.reject(c, "invalid_header", apperrors.NewUnauthorized("invalid authorization header"))
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, ErrTokenExpired) {
			msg = "token expired"
		}
		m.logger.Debug("bearer token rejected", zap.String("reason", FailureReason(err)), zap.Error(err))
		return m.reject(c, FailureReason(err), apperrors.NewUnauthorized(msg))
	}

	if claims.Role != domain.RoleProvider {
		return m.reject(c, "wrong_role", apperrors.NewForbidden("provider role required"))
	}

	providerID, err := uuid.Parse(claims.ProviderID)
	if err != nil {
		return m.reject(c, FailureReason(ErrInvalidToken), apperrors.NewUnauthorized("invalid token"))
	}

	provider, err := m.providers.GetByID(c.UserContext(), providerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return m.reject(c, "unknown_provider", apperrors.NewUnauthorized("provider not found"))
		}
		return apperrors.MapError(err)
	}
	if !provider.Active {
		return m.reject(c, "inactive_provider", apperrors.NewForbidden("provider account inactive"))
	}

	c.Locals(principalKey, &Principal{Provider: provider, Claims: claims})
	return c.Next()
}

func (m *AuthMiddleware) reject(c *fiber.Ctx, reason string, err error) error {
	m.metrics.RecordAuthFailure(reason)
	m.logger.Debug("request unauthenticated",
		zap.String("path", c.Path()),
		zap.String("reason", reason),
	)
	return err
}

// PrincipalFromContext retrieves the authenticated provider.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
