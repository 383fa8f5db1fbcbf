// Package duskcrypto holds the node's cryptographic primitives: the two
// fixed-width digest types, SHA-256 hashing, Merkle commitment, and
// Ed25519 signing/verification.
package duskcrypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// H256Size is the width in bytes of a Digest-256 value.
const H256Size = 32

// H160Size is the width in bytes of a Digest-160 account address.
const H160Size = 20

// H256 is a 32-byte digest. It is totally ordered lexicographically, which
// is what the proof-of-work difficulty comparison (spec.md §4.3) relies on:
// a smaller H256 represents more accumulated work.
type H256 [H256Size]byte

// H160 is a 20-byte account address, derived as the last 20 bytes of
// SHA-256(public key).
type H160 [H160Size]byte

// Hashable is anything that can be reduced to a single H256, the leaf
// interface the Merkle tree builds over.
type Hashable interface {
	Hash() H256
}

// Sum256 hashes b with SHA-256 and returns it as an H256.
func Sum256(b []byte) H256 {
	return H256(sha256.Sum256(b))
}

// BytesToH256 converts a 32-byte slice into an H256. It panics if len(b) !=
// H256Size; callers decoding untrusted wire data must length-check first.
func BytesToH256(b []byte) H256 {
	if len(b) != H256Size {
		panic(fmt.Sprintf("duskcrypto: BytesToH256: want %d bytes, got %d", H256Size, len(b)))
	}
	var h H256
	copy(h[:], b)
	return h
}

// BytesToH160 converts a 20-byte slice into an H160.
func BytesToH160(b []byte) H160 {
	if len(b) != H160Size {
		panic(fmt.Sprintf("duskcrypto: BytesToH160: want %d bytes, got %d", H160Size, len(b)))
	}
	var h H160
	copy(h[:], b)
	return h
}

// Bytes returns h as a freshly allocated slice.
func (h H256) Bytes() []byte { b := make([]byte, H256Size); copy(b, h[:]); return b }

// Bytes returns h as a freshly allocated slice.
func (h H160) Bytes() []byte { b := make([]byte, H160Size); copy(b, h[:]); return b }

// String renders h as lowercase hex.
func (h H256) String() string { return hex.EncodeToString(h[:]) }

// String renders h as lowercase hex.
func (h H160) String() string { return hex.EncodeToString(h[:]) }

// Cmp performs the unsigned big-endian lexicographic comparison spec.md
// §4.3/§9 requires for difficulty checks: it must never be reinterpreted as
// a different integer width.
func (h H256) Cmp(other H256) int {
	return bytes.Compare(h[:], other[:])
}

// LessOrEqual reports whether h <= other under the unsigned lexicographic
// ordering — the proof-of-work admission test "block_hash <= difficulty".
func (h H256) LessOrEqual(other H256) bool {
	return h.Cmp(other) <= 0
}

// AddrFromPublicKey derives an H160 account address as the last 20 bytes of
// SHA-256(publicKey), per spec.md §3.
func AddrFromPublicKey(publicKey []byte) H160 {
	digest := sha256.Sum256(publicKey)
	return BytesToH160(digest[H256Size-H160Size:])
}
