// Package mempool holds pending, signature-valid transactions waiting to
// be mined into a block.
package mempool

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/duskchain/duskchain/internal/duskcrypto"
	"github.com/duskchain/duskchain/internal/dusktypes"
)

// ErrTxExists is returned by Add when a transaction with the same hash is
// already pending.
var ErrTxExists = errors.New("mempool: transaction already exists")

// Mempool is the process-wide shared pool of pending transactions, keyed
// by transaction hash.
type Mempool struct {
	mu           sync.RWMutex
	transactions map[duskcrypto.H256]dusktypes.SignedTransaction
}

// New returns an empty Mempool.
func New() *Mempool {
	return &Mempool{transactions: make(map[duskcrypto.H256]dusktypes.SignedTransaction)}
}

// Add inserts tx, keyed by its hash. It is a no-op error, not a crash, if
// the transaction is already pending — callers that race to add the same
// gossiped transaction are expected to hit this.
func (mp *Mempool) Add(tx dusktypes.SignedTransaction) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	h := tx.Hash()
	if _, exists := mp.transactions[h]; exists {
		return errors.Wrapf(ErrTxExists, "hash %s", h)
	}
	mp.transactions[h] = tx
	logrus.WithField("mempool_size", len(mp.transactions)).Debug("mempool: transaction added")
	return nil
}

// Contains reports whether h is pending.
func (mp *Mempool) Contains(h duskcrypto.H256) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	_, ok := mp.transactions[h]
	return ok
}

// Get returns the pending transaction with hash h, if any.
func (mp *Mempool) Get(h duskcrypto.H256) (dusktypes.SignedTransaction, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	tx, ok := mp.transactions[h]
	return tx, ok
}

// Remove drops h from the pool — called once a block carrying it is
// accepted.
func (mp *Mempool) Remove(h duskcrypto.H256) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	delete(mp.transactions, h)
	logrus.WithField("mempool_size", len(mp.transactions)).Debug("mempool: transaction removed")
}

// Drain removes and returns up to limit pending transactions, in
// unspecified order. The miner does not use it: it selects with Peek and
// removes transactions only after a successful mine. A limit <= 0 or
// greater than the pool size drains everything available.
func (mp *Mempool) Drain(limit int) []dusktypes.SignedTransaction {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if limit <= 0 || limit > len(mp.transactions) {
		limit = len(mp.transactions)
	}

	selected := make([]dusktypes.SignedTransaction, 0, limit)
	for h, tx := range mp.transactions {
		if len(selected) >= limit {
			break
		}
		selected = append(selected, tx)
		delete(mp.transactions, h)
	}
	return selected
}

// Peek returns up to limit pending transactions without removing them,
// in unspecified order — the miner's per-block candidate selection
// (spec.md §4.3 step 2), which only removes a transaction once its block
// has actually satisfied proof-of-work.
func (mp *Mempool) Peek(limit int) []dusktypes.SignedTransaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if limit <= 0 || limit > len(mp.transactions) {
		limit = len(mp.transactions)
	}

	selected := make([]dusktypes.SignedTransaction, 0, limit)
	for _, tx := range mp.transactions {
		if len(selected) >= limit {
			break
		}
		selected = append(selected, tx)
	}
	return selected
}

// Count returns the number of pending transactions.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return len(mp.transactions)
}
