// raft/election.go
package raft

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"raftengine/raftpb"
	"raftengine/replication"

	"go.uber.org/zap"
)

// electionContext drives one election attempt in currTerm+1. Rebuilt
// per spec.md 4.2 from the teacher's single blocking startElection
// (votesReceived/votesNeeded int pair, no soft-rejection handling):
// requiredVoteNum and failingVoteCounter are independent atomic
// counters so either hitting zero is a standalone terminal signal,
// with a sync.Cond-guarded "terminated monitor" every response
// handler acquires before waking the waiter (Design Note 9: always
// acquire the monitor before Broadcast()).
type electionContext struct {
	term       uint64
	electionID string

	requiredVoteNum    atomic.Int64
	failingVoteCounter atomic.Int64

	mu          sync.Mutex // the terminated monitor
	cond        *sync.Cond
	terminated  bool
	electionValid bool

	steppedDownTo uint64 // set when a response reveals a higher term
}

func newElectionContext(term uint64, quorum, peerCount int) *electionContext {
	ec := &electionContext{term: term, electionID: newCorrelationID()}
	ec.cond = sync.NewCond(&ec.mu)
	ec.requiredVoteNum.Store(int64(quorum - 1)) // self-vote pre-counted
	// failingVoteCounter must reach 0 only once a quorum is
	// mathematically unreachable: with `required` peer votes still
	// needed and `peerCount` peers able to supply them, up to
	// peerCount-required failures are tolerable before the
	// (peerCount-required+1)th failure rules out a majority.
	ec.failingVoteCounter.Store(int64(peerCount-quorum+1) + 1)
	// A single-node group (or one where the self-vote alone already
	// satisfies quorum) wins immediately; nothing will ever call
	// handleElectionResponse to notice.
	if ec.requiredVoteNum.Load() <= 0 {
		ec.terminate(true)
	}
	return ec
}

// terminate marks the election over and wakes any waiter, always
// acquiring the monitor first (spec.md 9, Open Question resolution in
// DESIGN.md).
func (ec *electionContext) terminate(valid bool) {
	ec.mu.Lock()
	if ec.terminated {
		ec.mu.Unlock()
		return
	}
	ec.terminated = true
	ec.electionValid = valid
	ec.mu.Unlock()
	ec.cond.Broadcast()
}

func (ec *electionContext) isTerminated() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.terminated
}

// await blocks until terminated or timeout elapses.
func (ec *electionContext) await(timeout time.Duration) (valid bool) {
	done := make(chan struct{})
	go func() {
		ec.mu.Lock()
		for !ec.terminated {
			ec.cond.Wait()
		}
		valid = ec.electionValid
		ec.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return valid
	case <-time.After(timeout):
		return false
	}
}

// startElection begins a new attempt in currTerm+1, generalizing the
// teacher's startElection goroutine-per-peer fan-out into the six-case
// response table of spec.md 4.2.
func (m *Member) startElection() {
	m.mu.Lock()
	oldRole := m.role
	m.role = Candidate
	m.currentTerm++
	m.votedFor = m.id
	currentTerm := m.currentTerm
	if err := m.logManager.SetTermAndVote(currentTerm, m.id); err != nil {
		m.logger.Error("persisting candidacy failed", zap.Error(err))
	}
	lastLogIndex := m.logManager.LastIndex()
	lastLogTerm := m.logManager.LastTerm()
	m.mu.Unlock()

	m.logger.LogStateChange(oldRole, Candidate, currentTerm)
	m.logger.LogElectionStart(currentTerm)
	m.resetElectionTimer()

	quorum := m.peers.Quorum()
	peerList := m.peers.All()
	ec := newElectionContext(currentTerm, quorum, len(peerList))

	m.mu.Lock()
	m.election = ec
	m.mu.Unlock()

	req := &raftpb.ElectionRequest{
		Term:         int64(currentTerm),
		GroupId:      m.groupID(),
		Elector:      m.id,
		LastLogIndex: int64(lastLogIndex),
		LastLogTerm:  int64(lastLogTerm),
	}

	for _, p := range peerList {
		go m.issueVoteRequest(ec, p.ID, p.Address, req)
	}

	won := ec.await(m.cfg.electionTimeout())
	if won {
		m.logger.LogElectionWon(currentTerm, int64(quorum-1)-ec.requiredVoteNum.Load()+int64(quorum-1), int64(quorum-1))
		m.becomeLeader(currentTerm)
	} else if !ec.isTerminated() {
		m.logger.LogElectionLost(currentTerm, "timed out waiting for quorum")
	}
}

// issueVoteRequest is one goroutine's lifetime: send the RPC, then
// apply spec.md 4.2's six-case table to the outcome.
func (m *Member) issueVoteRequest(ec *electionContext, peerID, address string, req *raftpb.ElectionRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.electionTimeout())
	defer cancel()

	resp, err := m.rpcClient.StartElection(ctx, address, req)
	if err != nil {
		ec.onTransportError()
		return
	}
	m.handleElectionResponse(ec, peerID, resp.Code)
}

func (ec *electionContext) onTransportError() {
	if ec.isTerminated() {
		return
	}
	if ec.failingVoteCounter.Add(-1) <= 0 {
		ec.terminate(false)
	}
}

// handleElectionResponse applies spec.md 4.2's six cases.
func (m *Member) handleElectionResponse(ec *electionContext, peerID string, code int64) {
	if ec.isTerminated() {
		return
	}

	switch {
	case code == raftpb.ResponseAgree:
		if ec.requiredVoteNum.Add(-1) <= 0 {
			ec.terminate(true)
		}
	case code == raftpb.ResponseLeaderStillOnline:
		if ec.failingVoteCounter.Add(-1) <= 0 {
			ec.terminate(false)
		}
	case code == raftpb.ResponseNodeNotInGroup:
		if ec.failingVoteCounter.Add(-1) <= 0 {
			ec.terminate(false)
		}
	case code < int64(ec.term):
		if ec.failingVoteCounter.Add(-1) <= 0 {
			ec.terminate(false)
		}
	case code > int64(ec.term):
		ec.terminate(false)
		m.stepDown(uint64(code), "")
	default:
		// code == ec.term: treated as a hard rejection, same as stale.
		if ec.failingVoteCounter.Add(-1) <= 0 {
			ec.terminate(false)
		}
	}
}

// becomeLeader transitions to LEADER, resetting the voting tracker
// and starting the heartbeat timer, only if the term and role are
// unchanged since the election was won.
func (m *Member) becomeLeader(term uint64) {
	m.mu.Lock()
	if m.currentTerm != term || m.role != Candidate {
		m.mu.Unlock()
		return
	}
	oldRole := m.role
	m.role = Leader
	m.leaderID = m.id
	m.election = nil
	m.mu.Unlock()

	m.logger.LogStateChange(oldRole, Leader, term)
	m.tracker.Reset(term)

	m.stopElectionTimer()
	m.resetHeartbeatTimer()

	go m.sendHeartbeats()
}

// stepDown converts to FOLLOWER on observing a larger term. Other
// handlers (heartbeat, appendEntries, startElection) also set the role
// directly under m.mu.
func (m *Member) stepDown(term uint64, leaderHint string) {
	m.mu.Lock()
	if term <= m.currentTerm {
		m.mu.Unlock()
		return
	}
	oldTerm := m.currentTerm
	oldRole := m.role
	m.adoptTermLocked(term)
	m.role = Follower
	if leaderHint != "" {
		m.leaderID = leaderHint
	}
	ec := m.election
	m.election = nil
	m.mu.Unlock()

	m.logger.LogStepDown(oldTerm, term)
	if oldRole != Follower {
		m.logger.LogStateChange(oldRole, Follower, term)
	}
	if ec != nil {
		ec.terminate(false)
	}
	m.stopHeartbeatTimer()
	m.resetElectionTimer()
}

// sendHeartbeats sends a Heartbeat RPC to every peer; any response
// carrying a larger term triggers stepdown.
func (m *Member) sendHeartbeats() {
	term, role := m.currentTermAndRole()
	if role != Leader {
		return
	}
	commitIdx := m.commitIndex()
	commitTerm, _ := m.logManager.TermAt(commitIdx)
	peers := m.peers.All()

	m.logger.LogHeartbeatSent(term, len(peers))

	req := &raftpb.HeartBeatRequest{
		Term:           int64(term),
		CommitLogIndex: int64(commitIdx),
		CommitLogTerm:  int64(commitTerm),
		Leader:         m.id,
		GroupId:        m.groupID(),
	}

	for _, p := range peers {
		go func(address string) {
			ctx, cancel := context.WithTimeout(context.Background(), m.cfg.heartbeatInterval()*4)
			defer cancel()
			resp, err := m.rpcClient.Heartbeat(ctx, address, req)
			if err != nil {
				return
			}
			if uint64(resp.Term) > term {
				m.stepDown(uint64(resp.Term), "")
			}
		}(p.Address)
	}
}

// appendLocal is the leader-side half of Execute/executeForwardedRequest:
// persist the entry, create its VotingLog, offer it to the dispatcher.
func (m *Member) appendLocal(payload []byte, term uint64) (*replication.VotingLog, error) {
	m.mu.Lock()
	index := m.logManager.LastIndex() + 1
	entry := &Entry{Index: index, Term: term, Payload: payload}
	m.mu.Unlock()

	if err := m.logManager.Append([]*Entry{entry}); err != nil {
		m.logger.Error("local append failed, stepping down", zap.Error(err))
		m.stepDown(term+1, "")
		return nil, err
	}

	vl := replication.NewVotingLog(index, term, m.peers.Quorum(), m.id)
	m.tracker.Track(vl)
	m.dispatch.offer(entry, vl)
	return vl, nil
}

// awaitCommit blocks (bounded by ctx) until vl reaches quorum or is
// terminated by a term change.
func (m *Member) awaitCommit(ctx context.Context, vl *replication.VotingLog) bool {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		if vl.Terminated() {
			return m.commitIndex() >= vl.Index
		}
		if m.commitIndex() >= vl.Index {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// newFollowerVotingLog builds a synthetic, already-self-acked
// VotingLog used when a follower advances its own commit index off a
// leader's LeaderCommit field rather than local quorum counting.
func newFollowerVotingLog(index, term uint64) *replication.VotingLog {
	return replication.NewVotingLog(index, term, 1, "follower")
}
