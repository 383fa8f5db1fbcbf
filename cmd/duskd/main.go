// Command duskd wires the node's three shared resources (blockchain,
// mempool, per-tip account state) and its four actors (miner, transaction
// generator, and a pool of network workers) into a single running process.
//
// The real peer transport — TCP listener, dial/accept loop, per-peer
// framing — is out of scope for the core (spec.md §1) and is not
// implemented here either; duskd runs as a single node whose gossip
// network is an in-memory netsync.SimNetwork loopback. A future transport
// package only needs to satisfy netsync.ServerHandle/PeerHandle to plug
// into the same miner, generator, and worker pool unchanged.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/duskchain/duskchain/internal/blockchain"
	"github.com/duskchain/duskchain/internal/mempool"
	"github.com/duskchain/duskchain/internal/miner"
	"github.com/duskchain/duskchain/internal/netsync"
	"github.com/duskchain/duskchain/internal/txgen"
)

// node bundles the constructed actors and shared resources so main can
// start and later stop them in one place.
type node struct {
	chain *blockchain.Blockchain
	pool  *mempool.Mempool
	net   *netsync.SimNetwork

	minerHandle *miner.Handle
	genStop     chan struct{}
}

// newNode constructs the shared resources and every actor, but does not
// start the miner mining — that is gated on the --mine flag so a node can
// come up in listen-only mode, mirroring the reference miner's
// Paused-until-Start default (spec.md §4.3).
func newNode(workers int, inboundBuffer int) *node {
	chain := blockchain.New()
	pool := mempool.New()

	inbound := make(chan netsync.Inbound, inboundBuffer)
	net := netsync.NewSimNetwork("duskd", inbound)

	for i := 0; i < workers; i++ {
		w := netsync.NewWorker(i, inbound, net, chain, pool)
		go w.Run()
	}

	m, minerHandle := miner.New(net, chain, pool)
	go m.Run()

	gen := txgen.New(net, pool, chain.TipState())
	genStop := make(chan struct{})
	go gen.Run(genStop)

	return &node{
		chain:       chain,
		pool:        pool,
		net:         net,
		minerHandle: minerHandle,
		genStop:     genStop,
	}
}

// shutdown winds down the actors this process owns. The worker pool isn't
// stopped explicitly: in the real deployment its lifetime is tied to the
// inbound channel the (out-of-scope) peer server closes on disconnect
// (spec.md §7); a single-process run just exits the process instead.
func (n *node) shutdown() {
	n.minerHandle.Exit()
	close(n.genStop)
}

func run(c *cli.Context) error {
	logrus.SetLevel(logLevel(c.String("log-level")))

	workers := c.Int("workers")
	n := newNode(workers, c.Int("inbound-buffer"))

	logrus.WithFields(logrus.Fields{
		"genesis": n.chain.Genesis(),
		"workers": workers,
	}).Info("duskd: node started")

	if c.Bool("mine") {
		n.minerHandle.Start(c.Duration("mine-interval"))
		logrus.WithField("interval", c.Duration("mine-interval")).Info("duskd: miner armed")
	}

	<-c.Done()
	logrus.Info("duskd: shutting down")
	n.shutdown()
	return nil
}

func logLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func main() {
	app := &cli.App{
		Name:  "duskd",
		Usage: "a proof-of-work, account-model blockchain node",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "workers", Value: 4, Usage: "number of concurrent network-worker goroutines"},
			&cli.IntFlag{Name: "inbound-buffer", Value: 256, Usage: "capacity of the shared inbound message channel"},
			&cli.BoolFlag{Name: "mine", Value: false, Usage: "start the miner immediately in continuous mode"},
			&cli.DurationFlag{Name: "mine-interval", Value: 0, Usage: "sleep between mining attempts (0 = as fast as possible)"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "logrus level: debug, info, warn, error"},
		},
		Action: run,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("duskd: exited with error")
	}
}
