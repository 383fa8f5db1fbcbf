package dusktypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskchain/duskchain/internal/duskcrypto"
)

// TestNewGenesisBlockIsDeterministic checks that independent
// constructions of the genesis block produce the identical hash — the
// property that lets every peer re-bootstrap from nothing but this
// constant (spec.md §4.2/§6).
func TestNewGenesisBlockIsDeterministic(t *testing.T) {
	a := NewGenesisBlock()
	b := NewGenesisBlock()
	assert.Equal(t, a.Hash(), b.Hash())
	assert.True(t, a.ValidMerkleRoot())
	assert.Empty(t, a.Content.Data)
}

// TestBlockValidMerkleRoot pins invariant M: a block's header merkle_root
// must equal the Merkle root actually computed over its content.
func TestBlockValidMerkleRoot(t *testing.T) {
	kp, err := duskcrypto.GenerateKeyPair()
	require.NoError(t, err)
	tx := SignTransaction(Transaction{Recipient: recipient(0x05), Value: 1, AccountNonce: 1}, kp)
	content := Content{Data: []SignedTransaction{tx}}

	header := Header{
		Parent:     duskcrypto.Sum256([]byte("parent")),
		Nonce:      1,
		Difficulty: duskcrypto.Sum256([]byte("difficulty")),
		Timestamp:  1000,
		MerkleRoot: content.MerkleRoot(),
	}
	block := Block{Header: header, Content: content}
	assert.True(t, block.ValidMerkleRoot())

	block.Header.MerkleRoot[0] ^= 0xFF
	assert.False(t, block.ValidMerkleRoot())
}

// TestBlockHashIsHeaderHashOnly checks that the block hash only commits
// to the header, so two blocks with identical headers but different
// content hash identically (the content is only bound in via
// merkle_root).
func TestBlockHashIsHeaderHashOnly(t *testing.T) {
	header := Header{
		Parent:     duskcrypto.Sum256([]byte("p")),
		Nonce:      7,
		Difficulty: duskcrypto.Sum256([]byte("d")),
		Timestamp:  1,
		MerkleRoot: duskcrypto.Sum256([]byte("m")),
	}
	kp, err := duskcrypto.GenerateKeyPair()
	require.NoError(t, err)
	tx := SignTransaction(Transaction{Recipient: recipient(0x06), Value: 1, AccountNonce: 1}, kp)
	a := Block{Header: header, Content: Content{}}
	b := Block{Header: header, Content: Content{Data: []SignedTransaction{tx}}}
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, header.Hash(), a.Hash())
}
