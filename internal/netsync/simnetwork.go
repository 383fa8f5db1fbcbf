package netsync

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrSelfConnect is returned when a node attempts to connect to itself.
var ErrSelfConnect = errors.New("netsync: cannot connect to self")

// SimNetwork is an in-memory ServerHandle suitable for single-process
// tests and local multi-node simulation; it stands in for the TCP
// listener/dial loop a real transport would provide (spec.md §1 keeps
// that out of scope for this core).
//
// Each SimNetwork owns one node's inbound channel. Connecting two
// SimNetworks registers each as the other's peer, so a Broadcast on one
// delivers an Inbound, addressed back to the sender, onto the other's
// inbound channel — and replies written through that Inbound's PeerHandle
// travel the same way in reverse.
type SimNetwork struct {
	nodeID  string
	inbound chan<- Inbound

	mu    sync.RWMutex
	peers map[string]*SimNetwork
}

// NewSimNetwork constructs a SimNetwork for nodeID, delivering inbound
// messages onto inbound — typically the channel a pool of Workers reads
// from.
func NewSimNetwork(nodeID string, inbound chan<- Inbound) *SimNetwork {
	if nodeID == "" {
		nodeID = "node"
	}
	return &SimNetwork{nodeID: nodeID, inbound: inbound, peers: make(map[string]*SimNetwork)}
}

// Connect links sn and other bidirectionally: each becomes reachable from
// the other's Broadcast and direct replies.
func Connect(sn, other *SimNetwork) error {
	if sn.nodeID == other.nodeID {
		return ErrSelfConnect
	}
	sn.mu.Lock()
	sn.peers[other.nodeID] = other
	sn.mu.Unlock()

	other.mu.Lock()
	other.peers[sn.nodeID] = sn
	other.mu.Unlock()

	logrus.WithFields(logrus.Fields{"a": sn.nodeID, "b": other.nodeID}).Info("netsync: connected simulated peers")
	return nil
}

// Disconnect removes the link between sn and peerID in both directions.
func (sn *SimNetwork) Disconnect(peerID string) {
	sn.mu.Lock()
	peer, ok := sn.peers[peerID]
	delete(sn.peers, peerID)
	sn.mu.Unlock()
	if !ok {
		return
	}

	peer.mu.Lock()
	delete(peer.peers, sn.nodeID)
	peer.mu.Unlock()

	logrus.WithFields(logrus.Fields{"a": sn.nodeID, "b": peerID}).Info("netsync: disconnected simulated peers")
}

// Broadcast implements ServerHandle: it fans msg out to every connected
// peer's inbound channel, addressed so that a reply written through the
// delivered PeerHandle comes straight back to sn.
func (sn *SimNetwork) Broadcast(msg Message) {
	sn.mu.RLock()
	targets := make([]*SimNetwork, 0, len(sn.peers))
	for _, p := range sn.peers {
		targets = append(targets, p)
	}
	sn.mu.RUnlock()

	payload := msg.Encode()
	for _, peer := range targets {
		sn.deliverTo(peer, payload)
	}
}

// deliverTo writes payload onto target's inbound channel, with the
// accompanying PeerHandle routed back to sn, dropping (with a log)
// rather than blocking if target's channel is full.
func (sn *SimNetwork) deliverTo(target *SimNetwork, payload []byte) {
	select {
	case target.inbound <- Inbound{Payload: payload, Peer: &simReplyHandle{from: target, to: sn}}:
	default:
		logrus.WithFields(logrus.Fields{"from": sn.nodeID, "to": target.nodeID}).Warn("netsync: simulated peer inbox full, message dropped")
	}
}

// PeerCount reports how many peers are currently connected.
func (sn *SimNetwork) PeerCount() int {
	sn.mu.RLock()
	defer sn.mu.RUnlock()
	return len(sn.peers)
}

// simReplyHandle is the PeerHandle a worker uses to reply to one inbound
// message; writing through it sends from the receiving node (from) back
// to the original sender (to), itself carrying a PeerHandle for any
// further reply in the same direction.
type simReplyHandle struct {
	from *SimNetwork
	to   *SimNetwork
}

func (h *simReplyHandle) Write(msg Message) {
	h.from.deliverTo(h.to, msg.Encode())
}
