package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("hunter22")
	require.NoError(t, err)
	assert.True(t, Verify("hunter22", hash))
	assert.False(t, Verify("hunter23", hash))
}

func TestValidatePassword(t *testing.T) {
	assert.False(t, ValidatePassword("12345"))
	assert.True(t, ValidatePassword("123456"))
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
