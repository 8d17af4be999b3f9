package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("super-secret-1")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, Verify("super-secret-1", hash))
	assert.False(t, Verify("super-secret-2", hash))
	assert.False(t, Verify("super-secret-1", "not-a-hash"))
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("super-secret-1")
	require.NoError(t, err)
	second, err := Hash("super-secret-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("12345678"))
	assert.True(t, ValidatePassword(strings.Repeat("a", 72)))

	assert.False(t, ValidatePassword("short"))
	assert.False(t, ValidatePassword(""))
	assert.False(t, ValidatePassword(strings.Repeat("a", 73)))
}
