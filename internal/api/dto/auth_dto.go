package dto

import (
	"time"

	"github.com/healthfirst/provider-auth/internal/domain"
	"github.com/healthfirst/provider-auth/internal/service"
)

// TokenValidateRequest payload for token introspection.
type TokenValidateRequest struct {
	Token string `json:"token"`
}

// TokenValidateResponse reports token validity and claims.
type TokenValidateResponse struct {
	Valid   bool         `json:"valid"`
	Expired bool         `json:"expired"`
	Claims  *TokenClaims `json:"claims,omitempty"`
}

// TokenClaims mirrors the claims of a valid token.
type TokenClaims struct {
	ProviderID         string    `json:"provider_id"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	Specialization     string    `json:"specialization"`
	VerificationStatus string    `json:"verification_status"`
	ExpiresAt          time.Time `json:"expires_at"`
}

// AuthResponse standard response for token issuing endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"`
}

// NewTokenValidateResponse converts a service introspection.
func NewTokenValidateResponse(in *service.TokenIntrospection) TokenValidateResponse {
	out := TokenValidateResponse{Valid: in.Valid, Expired: in.Expired}
	if in.Claims != nil {
		out.Claims = &TokenClaims{
			ProviderID:         in.Claims.ProviderID.String(),
			Email:              in.Claims.Email,
			Role:               string(in.Claims.Role),
			Specialization:     in.Claims.Specialization,
			VerificationStatus: in.Claims.VerificationStatus.String(),
			ExpiresAt:          in.Claims.ExpiresAt.UTC(),
		}
	}
	return out
}

// NewAuthResponse converts an issued token.
func NewAuthResponse(in *service.IssuedToken) AuthResponse {
	return AuthResponse{
		Token:     in.Token,
		TokenType: "Bearer",
		ExpiresAt: in.ExpiresAt.UTC(),
		ExpiresIn: int64(in.ExpiresIn.Seconds()),
	}
}

// ProviderResponse is the public view of a provider.
type ProviderResponse struct {
	ID                 string    `json:"id"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	FullName           string    `json:"full_name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone,omitempty"`
	Specialization     string    `json:"specialization"`
	LicenseNumber      string    `json:"license_number,omitempty"`
	YearsOfExperience  int       `json:"years_of_experience"`
	VerificationStatus string    `json:"verification_status"`
	Active             bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewProviderResponse converts a domain provider.
func NewProviderResponse(p *domain.Provider) ProviderResponse {
	return ProviderResponse{
		ID:                 p.ID.String(),
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		FullName:           p.FullName(),
		Email:              p.Email,
		Phone:              p.Phone,
		Specialization:     p.Specialization,
		LicenseNumber:      p.LicenseNumber,
		YearsOfExperience:  p.YearsOfExperience,
		VerificationStatus: p.VerificationStatus.String(),
		Active:             p.Active,
		CreatedAt:          p.CreatedAt,
	}
}
