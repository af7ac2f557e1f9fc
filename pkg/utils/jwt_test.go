package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManagerRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "seo-writer-api")

	token, err := m.GenerateToken("editor", []string{"pipeline"}, time.Hour)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "editor", claims.Subject)
	assert.True(t, claims.HasScope("pipeline"))
	assert.False(t, claims.HasScope("admin"))
}

func TestJWTManagerRejects(t *testing.T) {
	m := NewJWTManager("secret", "seo-writer-api")

	t.Run("expired", func(t *testing.T) {
		token, err := m.GenerateToken("editor", nil, -time.Minute)
		require.NoError(t, err)
		_, err = m.ParseToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTManager("other", "seo-writer-api").GenerateToken("editor", nil, time.Hour)
		require.NoError(t, err)
		_, err = m.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := NewJWTManager("secret", "someone-else").GenerateToken("editor", nil, time.Hour)
		require.NoError(t, err)
		_, err = m.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
