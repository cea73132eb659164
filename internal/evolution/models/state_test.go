package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Digest(t *testing.T) {
	a := State{
		Assets: []Asset{
			{ID: 2, Owner: "bob", Stage: StageFinal},
			{ID: 1, Owner: "alice", Stage: StageIntermediate, Activity: 3},
		},
		Balances: []RareBalance{{Owner: "carol", Balance: 0}, {Owner: "bob", Balance: 1}},
	}
	b := State{
		Assets: []Asset{
			{ID: 1, Owner: "alice", Stage: StageIntermediate, Activity: 3},
			{ID: 2, Owner: "bob", Stage: StageFinal},
		},
		Balances: []RareBalance{{Owner: "bob", Balance: 1}},
	}

	da, err := a.Digest()
	require.NoError(t, err)
	db, err := b.Digest()
	require.NoError(t, err)

	assert.Equal(t, da, db, "order and zero balances must not affect the digest")
	assert.Len(t, da, 64)
	assert.Len(t, a.Assets, 2, "Digest must not reorder the receiver's slices")
	assert.Equal(t, uint64(2), uint64(a.Assets[0].ID))

	b.Assets[0].Activity = 4
	dc, err := b.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, da, dc)
}

func TestState_CanonicalizeEmpty(t *testing.T) {
	var s State
	s.Canonicalize()
	assert.NotNil(t, s.Assets)
	assert.NotNil(t, s.Balances)
}
