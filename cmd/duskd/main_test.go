package main

import (
	"testing"
	"time"
)

// TestNewNodeStartsAndStops exercises the wiring in newNode: the shared
// resources construct cleanly, the actors start without panicking, and
// shutdown (miner Exit + generator stop) returns promptly.
func TestNewNodeStartsAndStops(t *testing.T) {
	n := newNode(2, 16)

	// Let the actor goroutines start before tearing down, to catch any
	// immediate panic in them. 50ms is shorter than the generator's
	// one-second tick, so no transaction is generated here.
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		n.shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("node did not shut down")
	}
}

// TestNewNodeMiningProducesBlocks arms the miner at a fast interval and
// waits for it to extend the chain past genesis, using the genesis
// block's easy fixed difficulty (0x0A repeated) so a random nonce clears
// it quickly in practice.
func TestNewNodeMiningProducesBlocks(t *testing.T) {
	n := newNode(2, 16)
	defer n.shutdown()

	n.minerHandle.Start(0)

	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			if n.chain.Tip() != n.chain.Genesis() {
				return
			}
		case <-deadline:
			t.Fatal("miner did not extend the chain past genesis in time")
		}
	}
}
