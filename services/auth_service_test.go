package services

import (
	"errors"
	"testing"

	"torchtally/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundtrip(t *testing.T) {
	token, err := GenerateToken("test-secret", 42, true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.PlayerID)
	assert.True(t, claims.IsCommissioner)
	assert.Equal(t, "42", claims.Subject)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("test-secret", 7, false)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	assert.True(t, errors.Is(err, models.ErrUnauthorized))
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("test-secret", "not-a-token")
	assert.True(t, errors.Is(err, models.ErrUnauthorized))
}
