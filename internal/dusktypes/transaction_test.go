package dusktypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskchain/duskchain/internal/duskcrypto"
)

func recipient(b byte) duskcrypto.H160 {
	var raw [20]byte
	for i := range raw {
		raw[i] = b
	}
	return duskcrypto.BytesToH160(raw[:])
}

// TestSignTransactionSatisfiesInvariants checks invariant S (sender_addr
// derivation) and invariant V (signature verification) together, per
// spec.md §3.
func TestSignTransactionSatisfiesInvariants(t *testing.T) {
	kp, err := duskcrypto.GenerateKeyPair()
	require.NoError(t, err)

	tx := Transaction{Recipient: recipient(0x01), Value: 42, AccountNonce: 3}
	signed := SignTransaction(tx, kp)

	assert.True(t, signed.VerifySenderAddr())
	assert.True(t, signed.VerifySignature())
	assert.True(t, signed.Valid())
	assert.Equal(t, duskcrypto.AddrFromPublicKey(kp.Public), signed.SenderAddr)
}

// TestSignedTransactionRejectsTamperedSignature makes sure flipping a
// signature byte fails invariant V without panicking.
func TestSignedTransactionRejectsTamperedSignature(t *testing.T) {
	kp, err := duskcrypto.GenerateKeyPair()
	require.NoError(t, err)

	signed := SignTransaction(Transaction{Recipient: recipient(0x02), Value: 1, AccountNonce: 1}, kp)
	signed.Signature[0] ^= 0xFF

	assert.False(t, signed.VerifySignature())
	assert.False(t, signed.Valid())
}

// TestSignedTransactionRejectsForgedSenderAddr makes sure a sender_addr
// that doesn't match the public key fails invariant S even when the
// signature itself is valid.
func TestSignedTransactionRejectsForgedSenderAddr(t *testing.T) {
	kp, err := duskcrypto.GenerateKeyPair()
	require.NoError(t, err)

	signed := SignTransaction(Transaction{Recipient: recipient(0x03), Value: 1, AccountNonce: 1}, kp)
	signed.SenderAddr = recipient(0xEE)

	assert.True(t, signed.VerifySignature())
	assert.False(t, signed.VerifySenderAddr())
	assert.False(t, signed.Valid())
}

// TestCanonicalEncodingIsDeterministic checks the wire encoding two
// identical transactions produce is byte-identical, which the Merkle
// commitment and the signature both rely on.
func TestCanonicalEncodingIsDeterministic(t *testing.T) {
	a := Transaction{Recipient: recipient(0x04), Value: 7, AccountNonce: 9}
	b := Transaction{Recipient: recipient(0x04), Value: 7, AccountNonce: 9}
	assert.Equal(t, a.CanonicalEncoding(), b.CanonicalEncoding())
	assert.Equal(t, a.Hash(), b.Hash())
}
