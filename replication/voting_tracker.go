// Package replication owns the per-entry quorum bookkeeping and
// catch-up machinery that sit between the log dispatcher and the
// member's commit index.
package replication

import (
	"sync"
)

// VotingLog is an uncommitted entry plus the acks required to commit
// it. Generalizes replicator.go's stateless ReplicaResponse/QuorumReached
// pair into a stateful, mutable record: the acks set is the
// authoritative mutable state (Data Model: "the Voting Tracker owns the
// authoritative mutable ack-set").
type VotingLog struct {
	Index uint64
	Term  uint64

	quorumSize int

	mu          sync.Mutex
	ackedBy     map[string]struct{}
	weakAckedBy map[string]struct{}
	terminated  bool
	committed   bool
}

// NewVotingLog creates a VotingLog for an entry the leader just
// appended locally. quorumSize is fixed at creation per the data
// model ("quorum-size set once at creation").
func NewVotingLog(index, term uint64, quorumSize int, selfID string) *VotingLog {
	vl := &VotingLog{
		Index:       index,
		Term:        term,
		quorumSize:  quorumSize,
		ackedBy:     make(map[string]struct{}, quorumSize),
		weakAckedBy: make(map[string]struct{}),
	}
	vl.ackedBy[selfID] = struct{}{}
	return vl
}

// Ack records a strong acceptance from peerID. Returns true the first
// time the quorum is reached (callers use this to trigger exactly one
// commit-advancement attempt).
func (vl *VotingLog) Ack(peerID string) (reachedQuorum bool) {
	vl.mu.Lock()
	defer vl.mu.Unlock()
	if vl.terminated {
		return false
	}
	if _, ok := vl.ackedBy[peerID]; ok {
		return false
	}
	vl.ackedBy[peerID] = struct{}{}
	if !vl.committed && len(vl.ackedBy) >= vl.quorumSize {
		vl.committed = true
		return true
	}
	return false
}

// WeakAck records a soft acceptance (entry received, not yet durable).
// Per spec.md 4.5, weak acks never drive commit. AppendEntryResult's
// wire shape carries no weak-ack bit (it's definitional per spec
// section 6), so nothing on the RPC reply path currently calls this -
// it's exercised by tests and is the landing spot for a future
// provisional-ack reply once the wire message grows one.
func (vl *VotingLog) WeakAck(peerID string) {
	vl.mu.Lock()
	defer vl.mu.Unlock()
	if vl.terminated {
		return
	}
	vl.weakAckedBy[peerID] = struct{}{}
}

// WeaklyAcceptedCount reports how many peers have at least weakly
// accepted this entry. Only tests read it; no provisional client
// notification is sent, whether or not EnableWeakAcceptance is on.
func (vl *VotingLog) WeaklyAcceptedCount() int {
	vl.mu.Lock()
	defer vl.mu.Unlock()
	return len(vl.weakAckedBy) + len(vl.ackedBy)
}

// Terminate marks the VotingLog dead (committed via a different path,
// or the term changed under it). Per the data model, "terminated ⇒ no
// further state change".
func (vl *VotingLog) Terminate() {
	vl.mu.Lock()
	defer vl.mu.Unlock()
	vl.terminated = true
}

func (vl *VotingLog) Terminated() bool {
	vl.mu.Lock()
	defer vl.mu.Unlock()
	return vl.terminated
}

func (vl *VotingLog) AckCount() int {
	vl.mu.Lock()
	defer vl.mu.Unlock()
	return len(vl.ackedBy)
}

// VotingTracker owns every in-flight VotingLog for the current leader
// term and advances the commit index. Generalizes replicator.go's
// free-function QuorumReached into stateful per-entry tracking with the
// current-term commit restriction (spec.md 4.5): committing by index
// alone is unsafe across term changes, so only entries whose Term
// equals the tracker's currentTerm count toward advancing commitIndex.
type VotingTracker struct {
	mu          sync.Mutex
	currentTerm uint64
	logs        map[uint64]*VotingLog // index -> VotingLog, pending only
	commitIndex uint64
}

func NewVotingTracker() *VotingTracker {
	return &VotingTracker{logs: make(map[uint64]*VotingLog)}
}

// Reset is called on every term change: prior-term VotingLogs are
// terminated (they can never safely drive commit once the leader steps
// down) and the pending set is cleared.
func (t *VotingTracker) Reset(newTerm uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, vl := range t.logs {
		vl.Terminate()
	}
	t.logs = make(map[uint64]*VotingLog)
	t.currentTerm = newTerm
}

// Track registers a freshly appended entry's VotingLog.
func (t *VotingTracker) Track(vl *VotingLog) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs[vl.Index] = vl
}

// Get looks up the VotingLog for an in-flight index. Only tests call
// it; the dispatcher acks through the VotingLog carried on each
// dispatch item.
func (t *VotingTracker) Get(index uint64) (*VotingLog, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	vl, ok := t.logs[index]
	return vl, ok
}

// AdvanceCommit recomputes the highest index whose VotingLog has
// reached quorum and whose Term equals the tracker's currentTerm,
// scanning upward from commitIndex+1 so advancement is monotonic and
// contiguous. Returns the new commit index and whether it moved.
func (t *VotingTracker) AdvanceCommit() (newCommitIndex uint64, advanced bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.commitIndex + 1
	highest := t.commitIndex
	for {
		vl, ok := t.logs[next]
		if !ok {
			break
		}
		if vl.Term != t.currentTerm || vl.AckCount() < vl.quorumSize {
			break
		}
		highest = next
		next++
	}

	if highest > t.commitIndex {
		t.commitIndex = highest
		// VotingLogs at or below the new commit index are done; drop
		// them from the pending set (they keep living as shared
		// references wherever a handler still holds one, per the
		// cyclic-ownership design note).
		for idx := range t.logs {
			if idx <= highest {
				delete(t.logs, idx)
			}
		}
		return highest, true
	}
	return t.commitIndex, false
}

func (t *VotingTracker) CommitIndex() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commitIndex
}

// Pending returns the number of VotingLogs still awaiting quorum,
// mostly useful for metrics and tests.
func (t *VotingTracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.logs)
}
