package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/healthfirst/provider-auth/internal/auth"
	"github.com/healthfirst/provider-auth/internal/domain"
	"github.com/healthfirst/provider-auth/internal/repository"
	apperrors "github.com/healthfirst/provider-auth/pkg/util"
)

// TokenIntrospection is the outcome of inspecting a bearer token.
type TokenIntrospection struct {
	Valid   bool
	Expired bool
	Claims  *IntrospectedClaims
}

// IntrospectedClaims holds the claims read from a valid token.
type IntrospectedClaims struct {
	ProviderID         uuid.UUID
	Email              string
	Role               domain.Role
	Specialization     string
	VerificationStatus domain.VerificationStatus
	ExpiresAt          time.Time
}

// IssuedToken is a freshly signed token.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
	ExpiresIn time.Duration
}

// ProviderAuthService coordinates token use-cases for providers.
type ProviderAuthService struct {
	providers repository.ProviderRepository
	tokens    *auth.TokenService
	logger    *zap.Logger
}

// NewProviderAuthService builds the service.
func NewProviderAuthService(providers repository.ProviderRepository, tokens *auth.TokenService, logger *zap.Logger) *ProviderAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderAuthService{providers: providers, tokens: tokens, logger: logger}
}

// Introspect reports validity of token and, when valid, its claims.
// Validation never fails the call; only an unreadable valid token does.
// A token that expires while its claims are read is reported as expired.
func (s *ProviderAuthService) Introspect(token string) (*TokenIntrospection, error) {
	result := &TokenIntrospection{
		Valid:   s.tokens.Validate(token),
		Expired: s.tokens.IsTokenExpired(token),
	}
	if !result.Valid {
		return result, nil
	}

	claims, err := s.readClaims(token)
	if errors.Is(err, auth.ErrTokenExpired) {
		return &TokenIntrospection{Valid: false, Expired: true}, nil
	}
	if err != nil {
		return nil, err
	}
	result.Claims = claims
	return result, nil
}

func (s *ProviderAuthService) readClaims(token string) (*IntrospectedClaims, error) {
	var (
		c   IntrospectedClaims
		err error
	)
	if c.ProviderID, err = s.tokens.ExtractProviderID(token); err != nil {
		return nil, err
	}
	if c.Email, err = s.tokens.ExtractEmail(token); err != nil {
		return nil, err
	}
	if c.Role, err = s.tokens.ExtractRole(token); err != nil {
		return nil, err
	}
	if c.Specialization, err = s.tokens.ExtractSpecialization(token); err != nil {
		return nil, err
	}
	if c.VerificationStatus, err = s.tokens.ExtractVerificationStatus(token); err != nil {
		return nil, err
	}
	if c.ExpiresAt, err = s.tokens.ExtractExpiration(token); err != nil {
		return nil, err
	}
	return &c, nil
}

// Reissue signs a new token from the provider's record as read from the
// repository given to NewProviderAuthService, which should be uncached.
func (s *ProviderAuthService) Reissue(ctx context.Context, providerID uuid.UUID) (*domain.Provider, *IssuedToken, error) {
	provider, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("provider", map[string]any{"provider_id": providerID.String()})
		}
		return nil, nil, err
	}

	issued, err := s.IssueFor(provider)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("provider token reissued",
		zap.Stringer("provider_id", provider.ID),
		zap.String("verification_status", provider.VerificationStatus.String()),
	)
	return provider, issued, nil
}

// IssueFor signs a token for an already loaded provider.
func (s *ProviderAuthService) IssueFor(provider *domain.Provider) (*IssuedToken, error) {
	token, expiresAt, err := s.tokens.IssueWithExpiry(provider)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidProvider) {
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return &IssuedToken{Token: token, ExpiresAt: expiresAt, ExpiresIn: s.tokens.ExpirationTime()}, nil
}
