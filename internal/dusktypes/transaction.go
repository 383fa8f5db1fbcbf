// Package dusktypes holds the node's wire-visible data model: unsigned and
// signed transactions, block headers and content, and the block itself
// (spec.md §3).
package dusktypes

import (
	"github.com/duskchain/duskchain/internal/duskcrypto"
	"github.com/duskchain/duskchain/internal/wire"
)

// Transaction is the unsigned transfer: move value from whichever account
// signs it to recipient, at the sender's next account nonce.
type Transaction struct {
	Recipient    duskcrypto.H160
	Value        uint32
	AccountNonce uint16
}

// CanonicalEncoding returns the byte encoding signed over and hashed:
// recipient(20B) || value(4B LE) || account_nonce(2B LE), per spec.md §6.
func (t Transaction) CanonicalEncoding() []byte {
	e := wire.NewEncoder()
	e.Fixed(t.Recipient[:])
	e.Uint32(t.Value)
	e.Uint16(t.AccountNonce)
	return e.Bytes()
}

// Hash reduces the unsigned transaction to an H256 over its canonical
// encoding (used only internally; the wire hash that matters for mempool
// and block content is SignedTransaction.Hash).
func (t Transaction) Hash() duskcrypto.H256 {
	return duskcrypto.Sum256(t.CanonicalEncoding())
}

// SignedTransaction is a Transaction together with the proof that its
// claimed sender authorized it.
//
// Invariant S: SenderAddr == last-20-bytes(SHA-256(PublicKey)).
// Invariant V: Ed25519-verify(PublicKey, tx.CanonicalEncoding(), Signature).
type SignedTransaction struct {
	Tx         Transaction
	PublicKey  []byte
	Signature  []byte
	SenderAddr duskcrypto.H160
}

// SignTransaction signs tx with kp and assembles a SignedTransaction whose
// SenderAddr is derived from kp's public key, satisfying invariant S by
// construction.
func SignTransaction(tx Transaction, kp duskcrypto.KeyPair) SignedTransaction {
	sig := kp.Sign(tx.CanonicalEncoding())
	pub := append([]byte(nil), kp.Public...)
	return SignedTransaction{
		Tx:         tx,
		PublicKey:  pub,
		Signature:  sig,
		SenderAddr: duskcrypto.AddrFromPublicKey(pub),
	}
}

// VerifySignature checks invariant V only: that Signature is a valid
// Ed25519 signature of Tx's canonical encoding under PublicKey.
func (st SignedTransaction) VerifySignature() bool {
	return duskcrypto.VerifySignature(st.PublicKey, st.Tx.CanonicalEncoding(), st.Signature)
}

// VerifySenderAddr checks invariant S: that SenderAddr matches the last 20
// bytes of SHA-256(PublicKey).
func (st SignedTransaction) VerifySenderAddr() bool {
	return duskcrypto.AddrFromPublicKey(st.PublicKey) == st.SenderAddr
}

// Valid checks both invariant S and invariant V.
func (st SignedTransaction) Valid() bool {
	return st.VerifySignature() && st.VerifySenderAddr()
}

// Encode returns the full canonical encoding of the signed transaction,
// the input to Hash.
func (st SignedTransaction) Encode() []byte {
	e := wire.NewEncoder()
	e.Fixed(st.Tx.Recipient[:])
	e.Uint32(st.Tx.Value)
	e.Uint16(st.Tx.AccountNonce)
	e.LenPrefixedBytes(st.PublicKey)
	e.LenPrefixedBytes(st.Signature)
	e.Fixed(st.SenderAddr[:])
	return e.Bytes()
}

// Hash reduces the signed transaction to an H256, the key used by the
// mempool and by inventory gossip.
func (st SignedTransaction) Hash() duskcrypto.H256 {
	return duskcrypto.Sum256(st.Encode())
}
