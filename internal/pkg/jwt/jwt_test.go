package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestResetTokenRoundtrip(t *testing.T) {
	token, err := GenerateResetToken("user-42", "someone@example.com", testSecret, 30)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateResetToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, "someone@example.com", claims.Email)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "microfinance-solution", claims.Issuer)
}

func TestValidateResetTokenExpired(t *testing.T) {
	token, err := GenerateResetToken("user-42", "someone@example.com", testSecret, -1)
	require.NoError(t, err)

	_, err = ValidateResetToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateResetTokenWrongSecret(t *testing.T) {
	token, err := GenerateResetToken("user-42", "someone@example.com", testSecret, 30)
	require.NoError(t, err)

	_, err = ValidateResetToken(token, "another-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateResetTokenGarbage(t *testing.T) {
	_, err := ValidateResetToken("not.a.token", testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
