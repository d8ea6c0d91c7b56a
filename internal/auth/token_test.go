package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkesici/greenhouse-manager/internal/models"
)

const testSecret = "test-secret-key-for-unit-tests-only"

func testUser() *models.User {
	return &models.User{
		ID:       42,
		TenantID: 7,
		Username: "alice",
		Role:     models.RoleUser,
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, int64(7), claims.TenantID)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestVerifyExpiredToken(t *testing.T) {
	// Negative expiry issues a token that is already past its deadline while
	// still carrying a valid signature.
	issuer := NewTokenIssuer(testSecret, -time.Minute)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	other := NewTokenIssuer("a-different-secret", time.Hour)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformedToken(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9.e30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyRejectsUnexpectedSigningMethod(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)

	// alg=none tokens must never verify, even with a well-formed payload.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1, TenantID: 1, Role: models.RoleAdmin})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueSetsExpiry(t *testing.T) {
	expiry := time.Hour
	issuer := NewTokenIssuer(testSecret, expiry)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)

	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, expiry-time.Minute)
	assert.LessOrEqual(t, remaining, expiry)
}
