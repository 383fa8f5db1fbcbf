// Package blockchain holds the fork-aware block store: every block ever
// accepted, a height index, a tip pointer, and a per-block account-state
// snapshot, so the worker and miner can answer "what's the longest chain"
// and "what does the ledger look like at this tip" without replaying
// history.
package blockchain

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/duskchain/duskchain/internal/accountstate"
	"github.com/duskchain/duskchain/internal/duskcrypto"
	"github.com/duskchain/duskchain/internal/dusktypes"
)

// ErrUnknownParent is returned by Insert when the block's declared parent
// has not itself been accepted.
var ErrUnknownParent = errors.New("blockchain: block's parent is not in the store")

// ErrUnknownBlock is returned by Get for a hash not present in the store.
var ErrUnknownBlock = errors.New("blockchain: unknown block hash")

// Blockchain is the process-wide shared block graph. All access is
// synchronized by mu; callers outside this package never see partial
// updates — the tip is never published before the state snapshot backing
// it is stored.
type Blockchain struct {
	mu sync.RWMutex

	blocks     map[duskcrypto.H256]dusktypes.Block
	height     map[duskcrypto.H256]uint16
	chainState map[duskcrypto.H256]*accountstate.State

	genesis duskcrypto.H256
	tip     duskcrypto.H256
}

// New constructs a Blockchain containing only the deterministic genesis
// block: height 1, tip pointing at it, and a chain_state entry
// snapshotting the bootstrap account state.
func New() *Blockchain {
	genesisBlock := dusktypes.NewGenesisBlock()
	hash := genesisBlock.Hash()

	return &Blockchain{
		blocks:     map[duskcrypto.H256]dusktypes.Block{hash: genesisBlock},
		height:     map[duskcrypto.H256]uint16{hash: 1},
		chainState: map[duskcrypto.H256]*accountstate.State{hash: accountstate.NewBootstrapped()},
		genesis:    hash,
		tip:        hash,
	}
}

// Genesis returns the hash of the genesis block.
func (bc *Blockchain) Genesis() duskcrypto.H256 {
	return bc.genesis
}

// Tip returns the hash of the current tip: the block of greatest known
// height, first-observed wins on ties (no re-org on equal height).
func (bc *Blockchain) Tip() duskcrypto.H256 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tip
}

// Contains reports whether h has been accepted into the store.
func (bc *Blockchain) Contains(h duskcrypto.H256) bool {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	_, ok := bc.blocks[h]
	return ok
}

// Get returns the accepted block with hash h.
func (bc *Blockchain) Get(h duskcrypto.H256) (dusktypes.Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	b, ok := bc.blocks[h]
	if !ok {
		return dusktypes.Block{}, errors.Wrapf(ErrUnknownBlock, "hash %s", h)
	}
	return b, nil
}

// Height returns the 1-based height recorded for h.
func (bc *Blockchain) Height(h duskcrypto.H256) (uint16, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	height, ok := bc.height[h]
	return height, ok
}

// StateAt returns the account-state snapshot recorded immediately after h
// was accepted.
func (bc *Blockchain) StateAt(h duskcrypto.H256) (*accountstate.State, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	st, ok := bc.chainState[h]
	return st, ok
}

// TipBlock returns the block currently at the tip.
func (bc *Blockchain) TipBlock() dusktypes.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.blocks[bc.tip]
}

// TipState returns the account-state snapshot at the current tip.
func (bc *Blockchain) TipState() *accountstate.State {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.chainState[bc.tip]
}

// Insert records block as accepted, with nextState the account-state
// snapshot to associate with it (already computed by the caller before
// the call; Insert takes the lock only to record the block, its height,
// its snapshot and the tip together). block.header.parent must already be known; Insert
// returns ErrUnknownParent otherwise. Returns the new block's height and
// whether it became the new tip.
func (bc *Blockchain) Insert(block dusktypes.Block, nextState *accountstate.State) (height uint16, becameTip bool, err error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	parentHeight, ok := bc.height[block.Header.Parent]
	if !ok {
		return 0, false, errors.Wrapf(ErrUnknownParent, "parent %s", block.Header.Parent)
	}

	hash := block.Hash()
	height = parentHeight + 1

	bc.blocks[hash] = block
	bc.height[hash] = height
	bc.chainState[hash] = nextState

	if height > bc.height[bc.tip] {
		bc.tip = hash
		becameTip = true
		logrus.WithFields(logrus.Fields{
			"hash":   hash,
			"height": height,
		}).Debug("blockchain: new tip")
	}
	return height, becameTip, nil
}

// LongestChain walks parent pointers from the tip back to genesis and
// returns the path genesis-first.
func (bc *Blockchain) LongestChain() []duskcrypto.H256 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	var reversed []duskcrypto.H256
	genesisParent := bc.blocks[bc.genesis].Header.Parent
	pointer := bc.tip
	for pointer != genesisParent {
		reversed = append(reversed, pointer)
		pointer = bc.blocks[pointer].Header.Parent
	}

	chain := make([]duskcrypto.H256, len(reversed))
	for i, h := range reversed {
		chain[len(reversed)-1-i] = h
	}
	return chain
}
