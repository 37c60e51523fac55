package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmate/core/internal/infrastructure/config"
	"github.com/taskmate/core/internal/ports"
)

var testAuth = config.AuthConfig{
	Secret:   "test-secret",
	Issuer:   "https://issuer.example.com",
	Audience: "taskmate",
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := NewJWTVerifier(testAuth)
	want := ports.Identity{
		ID:            "uid-123",
		Email:         "ann@example.com",
		EmailVerified: true,
		Name:          "Ann",
		Picture:       "https://example.com/ann.png",
	}

	token, err := v.Issue(want, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v := NewJWTVerifier(testAuth)
	identity := ports.Identity{ID: "uid-123", Email: "ann@example.com"}

	expired, err := v.Issue(identity, -time.Hour)
	require.NoError(t, err)

	otherIssuer, err := NewJWTVerifier(config.AuthConfig{Secret: testAuth.Secret, Issuer: "https://evil.example.com", Audience: testAuth.Audience}).Issue(identity, time.Hour)
	require.NoError(t, err)

	otherAudience, err := NewJWTVerifier(config.AuthConfig{Secret: testAuth.Secret, Issuer: testAuth.Issuer, Audience: "someone-else"}).Issue(identity, time.Hour)
	require.NoError(t, err)

	wrongKey, err := NewJWTVerifier(config.AuthConfig{Secret: "other", Issuer: testAuth.Issuer, Audience: testAuth.Audience}).Issue(identity, time.Hour)
	require.NoError(t, err)

	noSubject, err := v.Issue(ports.Identity{Email: "ann@example.com"}, time.Hour)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "uid-123"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":        "not-a-token",
		"expired":        expired,
		"wrong issuer":   otherIssuer,
		"wrong audience": otherAudience,
		"wrong key":      wrongKey,
		"no subject":     noSubject,
		"alg none":       unsigned,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTVerifier_OptionalIssuerAndAudience(t *testing.T) {
	v := NewJWTVerifier(config.AuthConfig{Secret: "test-secret"})
	issuer := NewJWTVerifier(testAuth)

	token, err := issuer.Issue(ports.Identity{ID: "uid-1"}, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", got.ID)
}
