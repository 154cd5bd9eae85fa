package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunko006/blindotesto/internal/config"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{JWTSecret: "test-secret"}
	m.Run()
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("abc12345", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	participantID, displayName, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "abc12345", participantID)
	assert.Equal(t, "Alice", displayName)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, _, err := ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("abc12345", "Alice")
	require.NoError(t, err)

	config.AppConfig.JWTSecret = "other-secret"
	defer func() { config.AppConfig.JWTSecret = "test-secret" }()

	_, _, err = ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
