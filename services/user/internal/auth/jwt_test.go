package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_AccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute, time.Hour)

	token, err := m.GenerateAccessToken("user-1", "jane@example.com", "customer")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, "user-service", claims.Issuer)
}

func TestJWTManager_ExpiredAccessTokenRejected(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute, time.Hour)

	token, err := m.GenerateAccessToken("user-1", "jane@example.com", "customer")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_WrongSecretRejected(t *testing.T) {
	m := NewJWTManager("secret-a", 15*time.Minute, time.Hour)
	other := NewJWTManager("secret-b", 15*time.Minute, time.Hour)

	token, err := m.GenerateAccessToken("user-1", "jane@example.com", "customer")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RefreshTokenNotValidAsAccessToken(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute, time.Hour)

	refresh, err := m.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(refresh)
	if err == nil {
		// Refresh tokens carry no email or role.
		assert.Empty(t, claims.Email)
		assert.Empty(t, claims.Role)
	}

	refreshClaims, err := m.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refreshClaims.UserID)
}
