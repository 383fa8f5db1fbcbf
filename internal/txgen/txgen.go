// Package txgen implements the node's synthetic transaction workload: a
// single actor that, once per second, signs and gossips a fixed-value
// transfer from the first ICO account to the second (spec.md §4.4). The
// ICO accounts themselves are credited by accountstate.NewBootstrapped,
// not by this package;
// grounded on the reference generator's TransGen.rs loop.
package txgen

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/duskchain/duskchain/internal/accountstate"
	"github.com/duskchain/duskchain/internal/duskcrypto"
	"github.com/duskchain/duskchain/internal/dusktypes"
	"github.com/duskchain/duskchain/internal/mempool"
	"github.com/duskchain/duskchain/internal/netsync"
)

// tickInterval is the reference generator's fixed cadence (1 tx/sec,
// src/TransGen.rs).
const tickInterval = time.Second

// transferValue is the fixed per-transaction amount the reference
// generator moves (spec.md §4.4: "value = 1").
const transferValue = 1

// Generator is the transaction-generator actor: it owns its recent-queue
// of emitted transactions (retained for observability, not correctness —
// spec.md §4.4's "auxiliary ordered queue") and the monotonically
// increasing per-account nonce it assigns.
type Generator struct {
	server netsync.ServerHandle
	pool   *mempool.Mempool
	state  *accountstate.State

	keyPair   duskcrypto.KeyPair
	sender    duskcrypto.H160
	recipient duskcrypto.H160
	nextNonce uint16

	mu     sync.Mutex
	recent []dusktypes.SignedTransaction
}

// maxRecent caps the auxiliary queue so a long-running node's memory
// doesn't grow unbounded; only the newest entries are observability-relevant.
const maxRecent = 256

// New constructs a Generator sharing pool, state, and server with the
// rest of the node. Neither New nor Run credits the ICO accounts, because
// accountstate.NewBootstrapped already does it deterministically at
// Blockchain construction and a second credit would double the balance.
func New(server netsync.ServerHandle, pool *mempool.Mempool, state *accountstate.State) *Generator {
	kp := duskcrypto.HardcodedGeneratorKeyPair()
	addrs := accountstate.ICOAddresses()
	return &Generator{
		server:    server,
		pool:      pool,
		state:     state,
		keyPair:   kp,
		sender:    addrs[0],
		recipient: addrs[1],
		nextNonce: 1,
	}
}

// Run ticks once per second until stop is closed, producing and gossiping
// one signed transaction per tick. Callers run it in its own goroutine.
func (g *Generator) Run(stop <-chan struct{}) {
	logrus.Info("txgen: generator is ready to move")
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			logrus.Info("txgen: generator stopping")
			return
		case <-ticker.C:
			g.tick()
		}
	}
}

func (g *Generator) tick() {
	tx := dusktypes.Transaction{
		Recipient:    g.recipient,
		Value:        transferValue,
		AccountNonce: g.nextNonce,
	}
	signed := dusktypes.SignTransaction(tx, g.keyPair)
	g.nextNonce++

	if err := g.pool.Add(signed); err != nil {
		logrus.WithError(err).Warn("txgen: generated transaction already pending, skipping")
		return
	}

	g.mu.Lock()
	g.recent = append(g.recent, signed)
	if len(g.recent) > maxRecent {
		g.recent = g.recent[len(g.recent)-maxRecent:]
	}
	g.mu.Unlock()

	senderBal, _ := g.state.Balance(g.sender)
	logrus.WithFields(logrus.Fields{
		"mempool_size":   g.pool.Count(),
		"sender_balance": senderBal,
	}).Debug("txgen: transaction generated")
	g.server.Broadcast(netsync.NewTransactionHashes([]duskcrypto.H256{signed.Hash()}))
}

// Recent returns a snapshot of the most recently generated transactions,
// newest last — retained purely for observability (spec.md §4.4).
func (g *Generator) Recent() []dusktypes.SignedTransaction {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]dusktypes.SignedTransaction, len(g.recent))
	copy(out, g.recent)
	return out
}
