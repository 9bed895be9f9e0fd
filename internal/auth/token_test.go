package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfirst/provider-auth/internal/config"
	"github.com/healthfirst/provider-auth/internal/domain"
)

const (
	testSecret  = "test-secret-with-at-least-32-bytes!!"
	otherSecret = "another-secret-with-at-least-32-bytes"
	testIssuer  = "healthfirst-test"
)

func newTestService(t *testing.T, secret string, lifetime int64) *TokenService {
	t.Helper()
	ts, err := NewTokenService(config.JWTConfig{
		Secret:            secret,
		Issuer:            testIssuer,
		ExpirationSeconds: lifetime,
	})
	require.NoError(t, err)
	return ts
}

func testProvider() *domain.Provider {
	return &domain.Provider{
		ID:                 uuid.New(),
		FirstName:          "Ada",
		LastName:           "Lovelace",
		Email:              "dr@x.com",
		Specialization:     "Cardiology",
		VerificationStatus: domain.VerificationStatusVerified,
		Active:             true,
	}
}

func decodeSegment(t *testing.T, segment string) map[string]any {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestNewTokenServiceRejectsBadConfig(t *testing.T) {
	_, err := NewTokenService(config.JWTConfig{Secret: "short", ExpirationSeconds: 60})
	assert.Error(t, err)

	_, err = NewTokenService(config.JWTConfig{Secret: testSecret, ExpirationSeconds: 0})
	assert.Error(t, err)
}

func TestIssueProducesCompactToken(t *testing.T) {
	ts := newTestService(t, testSecret, 3600)
	p := testProvider()

	token, err := ts.Issue(p)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	header := decodeSegment(t, parts[0])
	assert.Equal(t, "HS256", header["alg"])
	assert.Equal(t, "JWT", header["typ"])

	claims := decodeSegment(t, parts[1])
	assert.Equal(t, "PROVIDER", claims["role"])
	assert.Equal(t, "Cardiology", claims["specialization"])
	assert.Equal(t, "VERIFIED", claims["verification_status"])
	assert.Equal(t, "dr@x.com", claims["sub"])
	assert.Equal(t, "dr@x.com", claims["email"])
	assert.Equal(t, p.ID.String(), claims["provider_id"])
	assert.Equal(t, testIssuer, claims["iss"])

	iat, ok := claims["iat"].(float64)
	require.True(t, ok)
	exp, ok := claims["exp"].(float64)
	require.True(t, ok)
	assert.Equal(t, float64(3600), exp-iat)
}

func TestIssueRejectsIncompleteProvider(t *testing.T) {
	ts := newTestService(t, testSecret, 3600)

	tests := []struct {
		name   string
		mutate func(p *domain.Provider)
	}{
		{"missing id", func(p *domain.Provider) { p.ID = uuid.Nil }},
		{"missing email", func(p *domain.Provider) { p.Email = "" }},
		{"missing specialization", func(p *domain.Provider) { p.Specialization = "" }},
		{"unknown status", func(p *domain.Provider) { p.VerificationStatus = "ARCHIVED" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := testProvider()
			tc.mutate(p)
			_, err := ts.Issue(p)
			assert.ErrorIs(t, err, ErrInvalidProvider)
		})
	}

	_, err := ts.Issue(nil)
	assert.ErrorIs(t, err, ErrInvalidProvider)
}

func TestRoundTripClaims(t *testing.T) {
	ts := newTestService(t, testSecret, 3600)

	statuses := []domain.VerificationStatus{
		domain.VerificationStatusPending,
		domain.VerificationStatusVerified,
		domain.VerificationStatusRejected,
	}
	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			p := testProvider()
			p.VerificationStatus = status

			before := time.Now()
			token, err := ts.Issue(p)
			require.NoError(t, err)

			assert.True(t, ts.Validate(token))
			assert.False(t, ts.IsTokenExpired(token))

			email, err := ts.ExtractEmail(token)
			require.NoError(t, err)
			assert.Equal(t, p.Email, email)

			id, err := ts.ExtractProviderID(token)
			require.NoError(t, err)
			assert.Equal(t, p.ID, id)

			role, err := ts.ExtractRole(token)
			require.NoError(t, err)
			assert.Equal(t, domain.RoleProvider, role)

			specialization, err := ts.ExtractSpecialization(token)
			require.NoError(t, err)
			assert.Equal(t, p.Specialization, specialization)

			got, err := ts.ExtractVerificationStatus(token)
			require.NoError(t, err)
			assert.Equal(t, status.String(), string(got))

			exp, err := ts.ExtractExpiration(token)
			require.NoError(t, err)
			assert.WithinDuration(t, before.Add(time.Hour), exp, time.Second)
		})
	}
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	issuer := newTestService(t, testSecret, 3600)
	verifier := newTestService(t, otherSecret, 3600)

	token, err := issuer.Issue(testProvider())
	require.NoError(t, err)

	assert.False(t, verifier.Validate(token))
	assert.True(t, verifier.IsTokenExpired(token))

	_, err = verifier.ExtractEmail(token)
	assert.ErrorIs(t, err, ErrBadSignature)
	_, err = verifier.ExtractExpiration(token)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestExpiredToken(t *testing.T) {
	ts := newTestService(t, testSecret, 3600)
	issuedAt := time.Now().Add(-2 * time.Hour)
	ts.now = func() time.Time { return issuedAt }

	token, err := ts.Issue(testProvider())
	require.NoError(t, err)

	ts.now = time.Now

	assert.False(t, ts.Validate(token))
	assert.True(t, ts.IsTokenExpired(token))

	exp, err := ts.ExtractExpiration(token)
	require.NoError(t, err)
	assert.WithinDuration(t, issuedAt.Add(time.Hour), exp, time.Second)
	assert.True(t, exp.Before(time.Now()))

	_, err = ts.ExtractEmail(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	_, err = ts.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestExpiryBoundary(t *testing.T) {
	ts := newTestService(t, testSecret, 60)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return start }

	token, err := ts.Issue(testProvider())
	require.NoError(t, err)

	ts.now = func() time.Time { return start.Add(59 * time.Second) }
	assert.True(t, ts.Validate(token))
	assert.False(t, ts.IsTokenExpired(token))

	ts.now = func() time.Time { return start.Add(60 * time.Second) }
	assert.False(t, ts.Validate(token))
	assert.True(t, ts.IsTokenExpired(token))
}

func TestMalformedInput(t *testing.T) {
	ts := newTestService(t, testSecret, 3600)

	for _, input := range []string{"", "not a token", "a.b", "a.b.c", "....."} {
		assert.NotPanics(t, func() {
			assert.False(t, ts.Validate(input))
		})
		assert.True(t, ts.IsTokenExpired(input))
	}

	_, err := ts.ExtractEmail("not a token")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedToken)

	_, err = ts.ExtractExpiration("not a token")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestTamperedClaims(t *testing.T) {
	ts := newTestService(t, testSecret, 3600)
	token, err := ts.Issue(testProvider())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	claims := decodeSegment(t, parts[1])
	claims["specialization"] = "Neurosurgery"
	raw, err := json.Marshal(claims)
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(raw)
	forged := strings.Join(parts, ".")

	assert.False(t, ts.Validate(forged))
	_, err = ts.ExtractSpecialization(forged)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestRejectsUnsignedAndForeignAlgorithms(t *testing.T) {
	ts := newTestService(t, testSecret, 3600)
	claims := jwt.MapClaims{
		"sub":  "dr@x.com",
		"role": "PROVIDER",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.False(t, ts.Validate(none))

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	assert.False(t, ts.Validate(hs512))
	_, err = ts.ParseToken(hs512)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestRejectsExpiryNotAfterIssuance(t *testing.T) {
	ts := newTestService(t, testSecret, 3600)
	now := time.Now()
	claims := &Claims{
		ProviderID: uuid.NewString(),
		Email:      "dr@x.com",
		Role:       domain.RoleProvider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "dr@x.com",
			IssuedAt:  jwt.NewNumericDate(now.Add(2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	assert.False(t, ts.Validate(token))
}

func TestRejectsTokenWithoutIssuedAt(t *testing.T) {
	ts := newTestService(t, testSecret, 3600)
	claims := &Claims{
		ProviderID: uuid.NewString(),
		Email:      "dr@x.com",
		Role:       domain.RoleProvider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "dr@x.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	assert.False(t, ts.Validate(token))
	_, err = ts.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ts.ExtractEmail(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRejectsTokenWithoutExpiry(t *testing.T) {
	ts := newTestService(t, testSecret, 3600)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "dr@x.com"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	assert.False(t, ts.Validate(token))
	assert.True(t, ts.IsTokenExpired(token))
	_, err = ts.ExtractExpiration(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSameSecretSameKey(t *testing.T) {
	a := newTestService(t, testSecret, 3600)
	b := newTestService(t, testSecret, 3600)

	token, err := a.Issue(testProvider())
	require.NoError(t, err)
	assert.True(t, b.Validate(token))
}

func TestConcurrentUse(t *testing.T) {
	ts := newTestService(t, testSecret, 3600)
	p := testProvider()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := ts.Issue(p)
			if !assert.NoError(t, err) {
				return
			}
			assert.True(t, ts.Validate(token))
		}()
	}
	wg.Wait()
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ts, err := NewTokenService(config.JWTConfig{
		Secret:            testSecret,
		Issuer:            testIssuer,
		ExpirationSeconds: 60,
	}, WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	_, expiresAt, err := ts.IssueWithExpiry(testProvider())
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(time.Minute), expiresAt)
}

func TestExpirationTime(t *testing.T) {
	ts := newTestService(t, testSecret, 900)
	assert.Equal(t, 15*time.Minute, ts.ExpirationTime())
}
