package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "evonft/pkg/domain-errors"
)

// TestParseOwnerID_Invariants validates the parsing invariant:
// "identities are non-empty, bounded, printable ASCII without whitespace"
//
// Justification: owner ids arrive from tokens and URL paths and are used as
// store keys, so the boundary check is the only place this is enforced.
func TestParseOwnerID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseOwnerID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects whitespace", func(t *testing.T) {
		_, err := ParseOwnerID("wallet 1")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-ASCII", func(t *testing.T) {
		_, err := ParseOwnerID("wället")
		require.Error(t, err)
	})

	t.Run("rejects oversized identities", func(t *testing.T) {
		_, err := ParseOwnerID(strings.Repeat("a", MaxOwnerIDLength+1))
		require.Error(t, err)
	})

	t.Run("accepts principal-style identities", func(t *testing.T) {
		owner, err := ParseOwnerID("ST1SJ3DTE5DN7X54YDH5D64R3BCB6A2AG2ZQ8YPD5")
		require.NoError(t, err)
		assert.Equal(t, "ST1SJ3DTE5DN7X54YDH5D64R3BCB6A2AG2ZQ8YPD5", owner.String())
	})
}

func TestParseAssetID_Invariants(t *testing.T) {
	for _, input := range []string{"", "0", "-1", "abc", "1.5", "18446744073709551616"} {
		t.Run("rejects "+input, func(t *testing.T) {
			_, err := ParseAssetID(input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}

	t.Run("accepts positive integers", func(t *testing.T) {
		id, err := ParseAssetID("42")
		require.NoError(t, err)
		assert.Equal(t, AssetID(42), id)
		assert.Equal(t, "42", id.String())
		assert.False(t, id.IsNil())
	})
}
