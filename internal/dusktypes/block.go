package dusktypes

import (
	"github.com/duskchain/duskchain/internal/duskcrypto"
	"github.com/duskchain/duskchain/internal/wire"
)

// Header is the mined, hashed part of a block (spec.md §3). Timestamp is
// stored as a uint64 millisecond count but encoded over the wire as the
// full 128-bit width spec.md declares; see wire.Encoder.Uint128.
type Header struct {
	Parent      duskcrypto.H256
	Nonce       uint32
	Difficulty  duskcrypto.H256
	Timestamp   uint64
	MerkleRoot  duskcrypto.H256
}

// CanonicalEncoding returns the byte encoding the block hash is computed
// over. Only the header is hashed — the content is committed via
// MerkleRoot, not hashed directly into the block hash.
func (h Header) CanonicalEncoding() []byte {
	e := wire.NewEncoder()
	e.Fixed(h.Parent[:])
	e.Uint32(h.Nonce)
	e.Fixed(h.Difficulty[:])
	e.Uint128(h.Timestamp)
	e.Fixed(h.MerkleRoot[:])
	return e.Bytes()
}

// Hash is SHA-256 of the header's canonical encoding — the block hash.
func (h Header) Hash() duskcrypto.H256 {
	return duskcrypto.Sum256(h.CanonicalEncoding())
}

// Content is the ordered sequence of signed transactions a block commits
// to via its Merkle root.
type Content struct {
	Data []SignedTransaction
}

// MerkleRoot computes the Merkle root over Content's transactions, in
// order, per spec.md §3/§4.1. An empty Content (e.g. genesis) hashes to
// the Merkle root of zero leaves.
func (c Content) MerkleRoot() duskcrypto.H256 {
	return duskcrypto.NewMerkleTree(c.Data).Root()
}

// Block pairs a Header with its Content.
//
// Invariant M: Header.MerkleRoot == MerkleTree(Content.Data).Root().
type Block struct {
	Header  Header
	Content Content
}

// Hash is the block's hash, i.e. its header's hash (spec.md §3).
func (b Block) Hash() duskcrypto.H256 {
	return b.Header.Hash()
}

// ValidMerkleRoot checks invariant M.
func (b Block) ValidMerkleRoot() bool {
	return b.Header.MerkleRoot == b.Content.MerkleRoot()
}

// Encode returns the block's full wire encoding (header fields followed by
// the length-prefixed transaction sequence), used for Blocks(...) gossip
// payloads and for measuring accepted block size (spec.md §4.5).
func (b Block) Encode() []byte {
	e := wire.NewEncoder()
	e.Fixed(b.Header.Parent[:])
	e.Uint32(b.Header.Nonce)
	e.Fixed(b.Header.Difficulty[:])
	e.Uint128(b.Header.Timestamp)
	e.Fixed(b.Header.MerkleRoot[:])
	e.Len(len(b.Content.Data))
	for _, tx := range b.Content.Data {
		txBytes := tx.Encode()
		e.LenPrefixedBytes(txBytes)
	}
	return e.Bytes()
}

// genesisParentBytes and genesisDifficultyBytes are the reference
// implementation's hard-coded bootstrap constants (src/blockchain.rs):
// parent is 0x01 repeated across all 32 bytes, difficulty is 0x0A repeated
// across all 32 bytes.
var (
	genesisParentBytes     = bytesRepeated(0x01, duskcrypto.H256Size)
	genesisDifficultyBytes = bytesRepeated(0x0A, duskcrypto.H256Size)
)

func bytesRepeated(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

// NewGenesisBlock constructs the deterministic bootstrap block: fixed
// parent, fixed difficulty, timestamp 0, and empty content, per spec.md
// §4.2. Every node that constructs a genesis block independently arrives
// at the identical block (and hash), which is what lets peers re-bootstrap
// from nothing but this constant.
func NewGenesisBlock() Block {
	content := Content{Data: nil}
	header := Header{
		Parent:     duskcrypto.BytesToH256(genesisParentBytes),
		Nonce:      0,
		Difficulty: duskcrypto.BytesToH256(genesisDifficultyBytes),
		Timestamp:  0,
		MerkleRoot: content.MerkleRoot(),
	}
	return Block{Header: header, Content: content}
}
