package accountstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duskchain/duskchain/internal/duskcrypto"
)

func addr(b byte) duskcrypto.H160 {
	var raw [20]byte
	for i := range raw {
		raw[i] = b
	}
	return duskcrypto.BytesToH160(raw[:])
}

func TestBootstrapCreditsICOAddresses(t *testing.T) {
	s := NewBootstrapped()
	for _, a := range ICOAddresses() {
		bal, ok := s.Balance(a)
		assert.True(t, ok)
		assert.Equal(t, uint32(10000), bal)
	}
}

func TestTransferSufficientBalance(t *testing.T) {
	s := NewBootstrapped()
	sender := ICOAddresses()[0]
	recipient := addr(0xAB)

	ok := s.Transfer(sender, recipient, 1)
	assert.True(t, ok)

	senderBal, _ := s.Balance(sender)
	recipientBal, _ := s.Balance(recipient)
	assert.Equal(t, uint32(9999), senderBal)
	assert.Equal(t, uint32(1), recipientBal)
	assert.Equal(t, uint16(1), s.Account(sender).Nonce)
}

func TestTransferInsufficientBalanceSkipped(t *testing.T) {
	s := New()
	sender := addr(0x01)
	recipient := addr(0x02)

	ok := s.Transfer(sender, recipient, 5)
	assert.False(t, ok)

	senderBal, _ := s.Balance(sender)
	recipientBal, recipientSeen := s.Balance(recipient)
	assert.Equal(t, uint32(0), senderBal)
	assert.False(t, recipientSeen)
	assert.Equal(t, uint32(0), recipientBal)
}

// TestTransferNonceNotEnforced pins spec.md §9's open question: the
// reference never checks account_nonce against the sender's current
// nonce before applying a transfer, and this implementation preserves
// that. A transaction carrying a stale or out-of-order nonce still
// applies as long as the balance suffices.
func TestTransferNonceNotEnforced(t *testing.T) {
	s := NewBootstrapped()
	sender := ICOAddresses()[0]
	recipient := addr(0xCD)

	// sender's nonce is 0; a tx whose AccountNonce is wildly out of order
	// (not sender.Nonce+1) is still applied by Transfer, because Transfer
	// only inspects balance, not the caller-supplied account nonce.
	ok := s.Transfer(sender, recipient, 1)
	assert.True(t, ok)
	assert.Equal(t, uint16(1), s.Account(sender).Nonce)

	// A second transfer succeeds even though nothing checked that the
	// "next" tx's nonce equals 2 — the field is carried and signed over
	// by dusktypes.Transaction but never compared here.
	ok = s.Transfer(sender, recipient, 1)
	assert.True(t, ok)
	assert.Equal(t, uint16(2), s.Account(sender).Nonce)
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewBootstrapped()
	clone := s.Clone()

	clone.Credit(ICOAddresses()[0], 1000)

	originalBal, _ := s.Balance(ICOAddresses()[0])
	cloneBal, _ := clone.Balance(ICOAddresses()[0])
	assert.Equal(t, uint32(10000), originalBal)
	assert.Equal(t, uint32(11000), cloneBal)
}
