// Package miner implements the node's proof-of-work mining actor: a
// control-channel-driven state machine that attempts one random-nonce
// block per outer loop iteration, exactly as the reference miner does
// (spec.md §4.3) rather than a tight nonce-increment search.
package miner

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/duskchain/duskchain/internal/accountstate"
	"github.com/duskchain/duskchain/internal/blockchain"
	"github.com/duskchain/duskchain/internal/duskcrypto"
	"github.com/duskchain/duskchain/internal/dusktypes"
	"github.com/duskchain/duskchain/internal/mempool"
	"github.com/duskchain/duskchain/internal/netsync"
)

// txsPerBlock caps how many mempool transactions one mined block carries
// (spec.md §4.3 step 2): K=2, matching the reference miner's txs_perBlock.
const txsPerBlock = 2

type signalKind int

const (
	signalStart signalKind = iota
	signalExit
)

type controlSignal struct {
	kind     signalKind
	interval time.Duration
}

type operatingState int

const (
	statePaused operatingState = iota
	stateRunning
	stateShuttingDown
)

// Handle is the caller-facing collaborator for driving the miner's state
// machine: Start arms continuous mining at the given interval, Exit winds
// it down. Both are safe to call from any goroutine.
type Handle struct {
	control chan controlSignal
}

// Start arms the miner to mine continuously, sleeping interval between
// attempts (0 means mine as fast as possible).
func (h *Handle) Start(interval time.Duration) {
	h.control <- controlSignal{kind: signalStart, interval: interval}
}

// Exit signals the miner to shut down after its current iteration.
func (h *Handle) Exit() {
	h.control <- controlSignal{kind: signalExit}
}

// Miner holds the shared resources one mining actor mutates: the
// blockchain, mempool, and outbound gossip handle. It starts Paused and
// only attempts blocks once Handle.Start is called.
type Miner struct {
	control chan controlSignal
	state   operatingState
	interval time.Duration

	server netsync.ServerHandle
	chain  *blockchain.Blockchain
	pool   *mempool.Mempool

	rng *rand.Rand

	blocksMined int
}

// New constructs a Miner sharing chain, pool, and server with the rest of
// the node, and the Handle used to drive it. The miner starts Paused.
func New(server netsync.ServerHandle, chain *blockchain.Blockchain, pool *mempool.Mempool) (*Miner, *Handle) {
	control := make(chan controlSignal, 16)
	m := &Miner{
		control: control,
		state:   statePaused,
		server:  server,
		chain:   chain,
		pool:    pool,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	return m, &Handle{control: control}
}

// Run blocks, executing the mining loop until a Handle.Exit is processed.
// Callers run it in its own goroutine.
func (m *Miner) Run() {
	logrus.Info("miner: initialized into paused mode")
	for {
		switch m.state {
		case statePaused:
			m.handleSignal(<-m.control)
			continue
		case stateShuttingDown:
			logrus.Info("miner: shut down")
			return
		default:
			select {
			case sig := <-m.control:
				m.handleSignal(sig)
			default:
			}
		}
		if m.state == stateShuttingDown {
			return
		}

		m.attempt()

		if m.state == stateRunning && m.interval > 0 {
			time.Sleep(m.interval)
		}
	}
}

func (m *Miner) handleSignal(sig controlSignal) {
	switch sig.kind {
	case signalExit:
		logrus.Info("miner: shutting down")
		m.state = stateShuttingDown
	case signalStart:
		logrus.WithField("interval", sig.interval).Info("miner: starting in continuous mode")
		m.state = stateRunning
		m.interval = sig.interval
	}
}

// attempt performs exactly one mining trial: pick a random nonce, fill in
// the tip's candidate header, try up to txsPerBlock pending transactions,
// and accept the block only if its hash satisfies the tip's difficulty.
// A trial with nothing pending in the mempool is skipped without
// mining an empty block, matching the reference behavior.
func (m *Miner) attempt() {
	tip := m.chain.TipBlock()
	parent := tip.Hash()
	difficulty := tip.Header.Difficulty

	candidates := m.pool.Peek(txsPerBlock)
	if len(candidates) == 0 {
		return
	}

	header := dusktypes.Header{
		Parent:     parent,
		Nonce:      m.rng.Uint32(),
		Difficulty: difficulty,
		Timestamp:  uint64(time.Now().UnixMilli()),
	}
	content := dusktypes.Content{Data: candidates}
	header.MerkleRoot = content.MerkleRoot()
	block := dusktypes.Block{Header: header, Content: content}

	hash := block.Hash()
	if !hash.LessOrEqual(difficulty) {
		return
	}

	nextState := m.applyBlock(parent, block)
	if _, _, err := m.chain.Insert(block, nextState); err != nil {
		logrus.WithError(err).Warn("miner: tip moved out from under a successful mine, dropping block")
		return
	}

	for _, tx := range candidates {
		m.pool.Remove(tx.Hash())
	}

	m.blocksMined++
	logrus.WithFields(logrus.Fields{
		"hash":        hash,
		"blocks_mined": m.blocksMined,
		"tx_count":    len(candidates),
	}).Info("miner: mined a new block")

	m.server.Broadcast(netsync.NewBlockHashes([]duskcrypto.H256{hash}))
}

// applyBlock derives the account-state snapshot block produces, starting
// from the parent's snapshot.
func (m *Miner) applyBlock(parent duskcrypto.H256, block dusktypes.Block) *accountstate.State {
	parentState, _ := m.chain.StateAt(parent)
	next := parentState.Clone()
	for _, tx := range block.Content.Data {
		next.Transfer(tx.SenderAddr, tx.Tx.Recipient, tx.Tx.Value)
	}
	return next
}
