package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "evonft/pkg/domain-errors"
)

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.Len(t, a, 43, "32 bytes in unpadded base64url")
	assert.NotEqual(t, a, b)
}

func TestHashAndVerify(t *testing.T) {
	token, err := Generate()
	require.NoError(t, err)
	hash, err := Hash(token)
	require.NoError(t, err)
	assert.True(t, ValidHash(hash))

	t.Run("matching token", func(t *testing.T) {
		assert.NoError(t, Verify(token, hash))
	})

	t.Run("wrong token is unauthorized", func(t *testing.T) {
		err := Verify(token+"x", hash)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("empty token is unauthorized", func(t *testing.T) {
		err := Verify("", hash)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestHash_RejectsUnusableTokens(t *testing.T) {
	_, err := Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	// bcrypt only accepts 72 bytes of input.
	_, err = Hash(strings.Repeat("a", 73))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestValidHash(t *testing.T) {
	assert.False(t, ValidHash(""))
	assert.False(t, ValidHash("not-a-hash"))
}
