package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/healthfirst/provider-auth/internal/config"
	"github.com/healthfirst/provider-auth/internal/domain"
)

// Token failure kinds. Errors returned by TokenService wrap exactly one of these.
var (
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidToken   = errors.New("invalid token")

	ErrInvalidProvider = errors.New("invalid provider")
)

// Claims describes the JWT payload issued to providers.
type Claims struct {
	ProviderID         string                    `json:"provider_id"`
	Email              string                    `json:"email"`
	Role               domain.Role               `json:"role"`
	Specialization     string                    `json:"specialization"`
	VerificationStatus domain.VerificationStatus `json:"verification_status"`
	jwt.RegisteredClaims
}

// Validate is run by the jwt parser after the registered claims checks.
func (c *Claims) Validate() error {
	if c.IssuedAt == nil {
		return errors.New("iat is required")
	}
	if c.ExpiresAt == nil {
		return nil
	}
	if !c.ExpiresAt.After(c.IssuedAt.Time) {
		return errors.New("exp must be after iat")
	}
	return nil
}

// TokenService issues and verifies provider session tokens.
// It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option customizes a TokenService.
type Option func(*TokenService)

// WithClock replaces the wall clock used for iat, exp and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// NewTokenService builds a service from the JWT settings.
func NewTokenService(cfg config.JWTConfig, opts ...Option) (*TokenService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ts := &TokenService{
		key:    signingKey(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.Expiration(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts, nil
}

// signingKey derives the HMAC key from the configured secret.
func signingKey(secret string) []byte {
	return []byte(secret)
}

// ExpirationTime returns the configured token lifetime.
func (ts *TokenService) ExpirationTime() time.Duration {
	return ts.ttl
}

// Issue builds and signs a token for the provider.
func (ts *TokenService) Issue(provider *domain.Provider) (string, error) {
	token, _, err := ts.IssueWithExpiry(provider)
	return token, err
}

// IssueWithExpiry behaves like Issue and also returns the expiry time.
func (ts *TokenService) IssueWithExpiry(provider *domain.Provider) (string, time.Time, error) {
	if err := checkProvider(provider); err != nil {
		return "", time.Time{}, err
	}

	issuedAt := ts.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ts.ttl)
	claims := &Claims{
		ProviderID:         provider.ID.String(),
		Email:              provider.Email,
		Role:               domain.RoleProvider,
		Specialization:     provider.Specialization,
		VerificationStatus: provider.VerificationStatus,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   provider.Email,
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ts.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

func checkProvider(p *domain.Provider) error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: nil provider", ErrInvalidProvider)
	case p.ID == uuid.Nil:
		return fmt.Errorf("%w: missing id", ErrInvalidProvider)
	case p.Email == "":
		return fmt.Errorf("%w: missing email", ErrInvalidProvider)
	case p.Specialization == "":
		return fmt.Errorf("%w: missing specialization", ErrInvalidProvider)
	case !p.VerificationStatus.Valid():
		return fmt.Errorf("%w: unknown verification status %q", ErrInvalidProvider, p.VerificationStatus)
	}
	return nil
}

// ParseToken verifies signature and expiry and returns the claims.
func (ts *TokenService) ParseToken(tokenStr string) (*Claims, error) {
	return ts.parse(tokenStr, jwt.WithExpirationRequired())
}

// parseSignatureOnly verifies structure and signature but skips time checks.
func (ts *TokenService) parseSignatureOnly(tokenStr string) (*Claims, error) {
	return ts.parse(tokenStr, jwt.WithoutClaimsValidation())
}

func (ts *TokenService) parse(tokenStr string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
	)

	claims := &Claims{}
	parsed, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return ts.key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// classify maps jwt library errors onto the token failure kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
}

// Validate reports whether the token is well formed, authentic and unexpired.
func (ts *TokenService) Validate(tokenStr string) bool {
	_, err := ts.ParseToken(tokenStr)
	return err == nil
}

// ExtractEmail returns the token subject.
func (ts *TokenService) ExtractEmail(tokenStr string) (string, error) {
	claims, err := ts.ParseToken(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractProviderID returns the provider_id claim.
func (ts *TokenService) ExtractProviderID(tokenStr string) (uuid.UUID, error) {
	claims, err := ts.ParseToken(tokenStr)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.ProviderID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: provider_id: %w", ErrInvalidToken, err)
	}
	return id, nil
}

// ExtractRole returns the role claim.
func (ts *TokenService) ExtractRole(tokenStr string) (domain.Role, error) {
	claims, err := ts.ParseToken(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}

// ExtractSpecialization returns the specialization claim.
func (ts *TokenService) ExtractSpecialization(tokenStr string) (string, error) {
	claims, err := ts.ParseToken(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Specialization, nil
}

// ExtractVerificationStatus returns the verification_status claim.
func (ts *TokenService) ExtractVerificationStatus(tokenStr string) (domain.VerificationStatus, error) {
	claims, err := ts.ParseToken(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.VerificationStatus, nil
}

// ExtractExpiration returns the exp claim of an authentic token, even one
// that has already expired.
func (ts *TokenService) ExtractExpiration(tokenStr string) (time.Time, error) {
	claims, err := ts.parseSignatureOnly(tokenStr)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	return claims.ExpiresAt.Time, nil
}

// IsTokenExpired reports whether the token is past its expiry. Tokens that
// cannot be read count as expired.
func (ts *TokenService) IsTokenExpired(tokenStr string) bool {
	exp, err := ts.ExtractExpiration(tokenStr)
	if err != nil {
		return true
	}
	return !ts.now().Before(exp)
}

// FailureReason names the failure kind of a token error for logs and metrics.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	default:
		return "invalid"
	}
}
