package blockchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskchain/duskchain/internal/accountstate"
	"github.com/duskchain/duskchain/internal/duskcrypto"
	"github.com/duskchain/duskchain/internal/dusktypes"
)

// childBlock builds a syntactically valid, empty-content block on top of
// parent. nonce only needs to vary across siblings so hashes don't
// collide; these tests never run the PoW admission check themselves —
// that's the network worker's job (spec.md §4.5 step 3), Insert trusts
// its precondition.
func childBlock(parent duskcrypto.H256, nonce uint32) dusktypes.Block {
	content := dusktypes.Content{}
	header := dusktypes.Header{
		Parent:     parent,
		Nonce:      nonce,
		Difficulty: duskcrypto.BytesToH256(bytesRepeatedForTest(0x0A)),
		Timestamp:  0,
		MerkleRoot: content.MerkleRoot(),
	}
	return dusktypes.Block{Header: header, Content: content}
}

func bytesRepeatedForTest(b byte) []byte {
	out := make([]byte, duskcrypto.H256Size)
	for i := range out {
		out[i] = b
	}
	return out
}

func insert(t *testing.T, bc *Blockchain, block dusktypes.Block) {
	t.Helper()
	st := accountstate.NewBootstrapped()
	_, _, err := bc.Insert(block, st)
	require.NoError(t, err)
}

func TestGenesisOnly(t *testing.T) {
	bc := New()
	assert.Equal(t, bc.Genesis(), bc.Tip())
	assert.Equal(t, []duskcrypto.H256{bc.Genesis()}, bc.LongestChain())

	height, ok := bc.Height(bc.Genesis())
	assert.True(t, ok)
	assert.Equal(t, uint16(1), height)
}

func TestLinearExtension(t *testing.T) {
	bc := New()
	b1 := childBlock(bc.Genesis(), 1)
	insert(t, bc, b1)
	assert.Equal(t, b1.Hash(), bc.Tip())

	b2 := childBlock(b1.Hash(), 2)
	insert(t, bc, b2)
	assert.Equal(t, b2.Hash(), bc.Tip())
}

// TestForkAndResolution reproduces spec.md §8's scenario 3: a fork that
// falls behind never steals the tip, and the tip only moves once a
// competing branch is strictly taller.
func TestForkAndResolution(t *testing.T) {
	bc := New()
	b1 := childBlock(bc.Genesis(), 1)
	insert(t, bc, b1)

	b2 := childBlock(b1.Hash(), 2)
	insert(t, bc, b2)
	b3 := childBlock(b2.Hash(), 3)
	insert(t, bc, b3)
	require.Equal(t, b3.Hash(), bc.Tip())

	// Fork off of b1: b4 -> b5, still shorter than or equal to the b3 branch.
	b4 := childBlock(b1.Hash(), 4)
	insert(t, bc, b4)
	assert.Equal(t, b3.Hash(), bc.Tip(), "tip must not move to a shorter fork block")

	b5 := childBlock(b4.Hash(), 5)
	insert(t, bc, b5)
	assert.Equal(t, b3.Hash(), bc.Tip(), "tip must not move on a height tie")

	b6 := childBlock(b5.Hash(), 6)
	insert(t, bc, b6)
	assert.Equal(t, b6.Hash(), bc.Tip(), "strictly taller fork must become tip")

	want := []duskcrypto.H256{bc.Genesis(), b1.Hash(), b4.Hash(), b5.Hash(), b6.Hash()}
	assert.Equal(t, want, bc.LongestChain())
}

func TestInsertUnknownParent(t *testing.T) {
	bc := New()
	orphan := childBlock(duskcrypto.Sum256([]byte("nowhere")), 1)
	_, _, err := bc.Insert(orphan, accountstate.NewBootstrapped())
	assert.ErrorIs(t, err, ErrUnknownParent)
}

func TestGetAndContains(t *testing.T) {
	bc := New()
	assert.True(t, bc.Contains(bc.Genesis()))

	b1 := childBlock(bc.Genesis(), 1)
	assert.False(t, bc.Contains(b1.Hash()))
	insert(t, bc, b1)
	assert.True(t, bc.Contains(b1.Hash()))

	got, err := bc.Get(b1.Hash())
	require.NoError(t, err)
	assert.Equal(t, b1.Hash(), got.Hash())

	_, err = bc.Get(duskcrypto.Sum256([]byte("missing")))
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestStateSnapshotRetainedPerBlock(t *testing.T) {
	bc := New()
	genesisState, ok := bc.StateAt(bc.Genesis())
	require.True(t, ok)
	bal, _ := genesisState.Balance(accountstate.ICOAddresses()[0])
	assert.Equal(t, uint32(10000), bal)

	b1 := childBlock(bc.Genesis(), 1)
	customState := accountstate.NewBootstrapped()
	customState.Credit(accountstate.ICOAddresses()[0], 500)
	_, _, err := bc.Insert(b1, customState)
	require.NoError(t, err)

	st, ok := bc.StateAt(b1.Hash())
	require.True(t, ok)
	bal, _ = st.Balance(accountstate.ICOAddresses()[0])
	assert.Equal(t, uint32(10500), bal)

	// The genesis snapshot is untouched by the later insert.
	bal, _ = genesisState.Balance(accountstate.ICOAddresses()[0])
	assert.Equal(t, uint32(10000), bal)
}
