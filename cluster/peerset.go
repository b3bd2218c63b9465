// Package cluster tracks group membership for one replication group.
package cluster

import (
	"fmt"
	"sync"
	"time"
)

// Peer is one member of a replication group other than the local node.
// Generalized from node_registry.go's *Node (ID/Address/AddedAt) into a
// consensus peer record: no hash-ring placement, but a measured send
// rate feeding the dispatcher's rate limiter.
type Peer struct {
	ID      string
	Address string
	AddedAt time.Time

	Enabled bool

	mu           sync.Mutex
	sendRateEWMA float64 // bytes/sec, exponential moving average
}

const sendRateAlpha = 0.2

// SendRateEWMA returns the peer's current measured throughput estimate.
func (p *Peer) SendRateEWMA() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sendRateEWMA
}

// Observe folds one measurement (bytes sent over elapsed duration) into
// the moving average the dispatcher reads back via SendRateEWMA to
// re-target the peer's rate limiter.
func (p *Peer) Observe(bytesSent int, elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	rate := float64(bytesSent) / elapsed.Seconds()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendRateEWMA == 0 {
		p.sendRateEWMA = rate
		return
	}
	p.sendRateEWMA = sendRateAlpha*rate + (1-sendRateAlpha)*p.sendRateEWMA
}

// PeerSet is the flat membership directory for one replication group.
// Stable during an election (spec: "peer set stable during an
// election; mutated only by membership ops"); adapted from
// node_registry.go's NodeRegistry with the hash ring removed, since
// routing a key to a raft group is out of scope for a single group's
// member.
type PeerSet struct {
	mu    sync.RWMutex
	peers map[string]*Peer
}

// NewPeerSet builds a set from id -> address pairs, all enabled.
func NewPeerSet(addresses map[string]string) *PeerSet {
	ps := &PeerSet{peers: make(map[string]*Peer, len(addresses))}
	for id, addr := range addresses {
		ps.peers[id] = &Peer{ID: id, Address: addr, AddedAt: time.Now(), Enabled: true}
	}
	return ps
}

func (ps *PeerSet) Add(id, address string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, exists := ps.peers[id]; exists {
		return fmt.Errorf("peer %s already registered", id)
	}
	ps.peers[id] = &Peer{ID: id, Address: address, AddedAt: time.Now(), Enabled: true}
	return nil
}

func (ps *PeerSet) Remove(id string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, exists := ps.peers[id]; !exists {
		return fmt.Errorf("peer %s not found", id)
	}
	delete(ps.peers, id)
	return nil
}

func (ps *PeerSet) Get(id string) (*Peer, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.peers[id]
	return p, ok
}

// Contains reports whether id is a known peer, used by
// processElectionRequest's RESPONSE_NODE_IS_NOT_IN_GROUP check.
func (ps *PeerSet) Contains(id string) bool {
	_, ok := ps.Get(id)
	return ok
}

// All returns every peer, enabled or not.
func (ps *PeerSet) All() []*Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make([]*Peer, 0, len(ps.peers))
	for _, p := range ps.peers {
		out = append(out, p)
	}
	return out
}

// Enabled returns only peers currently eligible for dispatch.
func (ps *PeerSet) Enabled() []*Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make([]*Peer, 0, len(ps.peers))
	for _, p := range ps.peers {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the number of known peers (not counting self).
func (ps *PeerSet) Count() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.peers)
}

// Quorum returns the majority size floor(N/2)+1 where N = Count()+1
// (self included), per the glossary's definition. Integer division
// alone ((n+1)/2) undercounts for even N (a 4-node group needs 3, not
// 2), so the "+1" is applied after the halving, not before it.
func (ps *PeerSet) Quorum() int {
	n := ps.Count() + 1
	return n/2 + 1
}

// Addresses returns id -> address for every known peer.
func (ps *PeerSet) Addresses() map[string]string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make(map[string]string, len(ps.peers))
	for id, p := range ps.peers {
		out[id] = p.Address
	}
	return out
}
