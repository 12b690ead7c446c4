package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	token, err := GenerateToken("user-123", "eco_ellie", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "eco_ellie", claims.Username)
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	token, err := GenerateToken("user-123", "eco_ellie", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestTokenSignedWithDifferentSecretRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	token, err := GenerateToken("user-123", "eco_ellie", time.Hour)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "a-different-secret")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("supersecret1")
	require.NoError(t, err)
	assert.NotEqual(t, "supersecret1", hash)

	assert.True(t, CheckPassword(hash, "supersecret1"))
	assert.False(t, CheckPassword(hash, "wrongpassword"))
}
