package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskchain/duskchain/internal/duskcrypto"
	"github.com/duskchain/duskchain/internal/dusktypes"
)

func signedTx(t *testing.T, recipientByte byte, nonce uint16) dusktypes.SignedTransaction {
	t.Helper()
	kp, err := duskcrypto.GenerateKeyPair()
	require.NoError(t, err)

	var recipient [20]byte
	for i := range recipient {
		recipient[i] = recipientByte
	}
	tx := dusktypes.Transaction{
		Recipient:    duskcrypto.BytesToH160(recipient[:]),
		Value:        1,
		AccountNonce: nonce,
	}
	return dusktypes.SignTransaction(tx, kp)
}

func TestAddAndGet(t *testing.T) {
	mp := New()
	tx := signedTx(t, 0x01, 1)

	require.NoError(t, mp.Add(tx))
	assert.Equal(t, 1, mp.Count())

	got, ok := mp.Get(tx.Hash())
	assert.True(t, ok)
	assert.Equal(t, tx.Hash(), got.Hash())
}

func TestAddDuplicateFails(t *testing.T) {
	mp := New()
	tx := signedTx(t, 0x01, 1)

	require.NoError(t, mp.Add(tx))
	assert.ErrorIs(t, mp.Add(tx), ErrTxExists)
	assert.Equal(t, 1, mp.Count())
}

func TestRemove(t *testing.T) {
	mp := New()
	tx := signedTx(t, 0x01, 1)
	require.NoError(t, mp.Add(tx))

	mp.Remove(tx.Hash())
	assert.False(t, mp.Contains(tx.Hash()))
	assert.Equal(t, 0, mp.Count())
}

func TestDrainRespectsLimit(t *testing.T) {
	mp := New()
	for i := byte(0); i < 5; i++ {
		require.NoError(t, mp.Add(signedTx(t, i, uint16(i))))
	}

	drained := mp.Drain(2)
	assert.Len(t, drained, 2)
	assert.Equal(t, 3, mp.Count())

	rest := mp.Drain(0)
	assert.Len(t, rest, 3)
	assert.Equal(t, 0, mp.Count())
}
