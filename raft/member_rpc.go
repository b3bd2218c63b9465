// raft/member_rpc.go
package raft

import (
	"context"
	"time"

	"raftengine/raftpb"

	"go.uber.org/zap"
)

// processHeartbeatRequest implements spec.md 4.1: stale terms are
// rejected with the current term; otherwise the term is adopted, the
// election timer resets, and the sender is recorded as leader.
func (m *Member) processHeartbeatRequest(req *raftpb.HeartBeatRequest) *raftpb.HeartBeatResponse {
	m.mu.Lock()

	if uint64(req.Term) < m.currentTerm {
		term := m.currentTerm
		m.mu.Unlock()
		return &raftpb.HeartBeatResponse{
			Term:         int64(term),
			LastLogIndex: int64(m.logManager.LastIndex()),
			LastLogTerm:  int64(m.logManager.LastTerm()),
		}
	}

	if uint64(req.Term) > m.currentTerm {
		m.adoptTermLocked(uint64(req.Term))
	}
	oldRole := m.role
	m.role = Follower
	m.leaderID = req.Leader
	m.lastHeartbeatSeen = time.Now()
	currentTerm := m.currentTerm
	m.mu.Unlock()

	if oldRole != Follower {
		m.logger.LogStateChange(oldRole, Follower, currentTerm)
	}
	m.logger.LogHeartbeatReceived(req.Leader, uint64(req.Term))
	m.resetElectionTimer()

	return &raftpb.HeartBeatResponse{
		Term:         int64(currentTerm),
		LastLogIndex: int64(m.logManager.LastIndex()),
		LastLogTerm:  int64(m.logManager.LastTerm()),
	}
}

// processElectionRequest implements spec.md 4.1's four-way outcome:
// RESPONSE_AGREE, RESPONSE_LEADER_STILL_ONLINE (leader-stickiness
// window, supplemented feature per SPEC_FULL.md 10), RESPONSE_NODE_IS_NOT_IN_GROUP,
// or a stale-request's currTerm.
func (m *Member) processElectionRequest(req *raftpb.ElectionRequest) int64 {
	if !m.peers.Contains(req.Elector) && req.Elector != m.id {
		m.logger.LogVoteDenied(req.Elector, uint64(req.Term), "not in group")
		return raftpb.ResponseNodeNotInGroup
	}

	m.mu.Lock()

	if uint64(req.Term) < m.currentTerm {
		term := m.currentTerm
		m.mu.Unlock()
		m.logger.LogVoteDenied(req.Elector, uint64(req.Term), "stale term")
		return int64(term)
	}

	if within := time.Since(m.lastHeartbeatSeen) < m.cfg.electionTimeout(); within && m.role != Candidate {
		m.mu.Unlock()
		m.logger.LogVoteDenied(req.Elector, uint64(req.Term), "leader still online")
		return raftpb.ResponseLeaderStillOnline
	}

	if uint64(req.Term) > m.currentTerm {
		m.adoptTermLocked(uint64(req.Term))
	}

	lastIndex := m.logManager.LastIndex()
	lastTerm := m.logManager.LastTerm()
	candidateUpToDate := uint64(req.LastLogTerm) > lastTerm ||
		(uint64(req.LastLogTerm) == lastTerm && uint64(req.LastLogIndex) >= lastIndex)

	granted := (m.votedFor == "" || m.votedFor == req.Elector) && candidateUpToDate
	if granted {
		m.votedFor = req.Elector
		if err := m.logManager.SetTermAndVote(m.currentTerm, m.votedFor); err != nil {
			m.logger.Error("persisting vote failed", zap.Error(err))
			granted = false
		}
	}
	m.mu.Unlock()

	if granted {
		m.logger.LogVoteGranted(req.Elector, uint64(req.Term))
		m.resetElectionTimer()
		return raftpb.ResponseAgree
	}
	m.logger.LogVoteDenied(req.Elector, uint64(req.Term), "already voted or log not up to date")
	return int64(m.currentTermSnapshot())
}

// appendEntries is standard Raft log-matching (spec.md 4.1), replacing
// the teacher's Week-7 "always succeed" placeholder: prevLogIndex/term
// are checked, conflicting suffixes are truncated, and the commit
// index advances to min(leaderCommit, lastLogIndex).
func (m *Member) appendEntries(req *raftpb.AppendEntriesRequest) *raftpb.AppendEntryResult {
	m.mu.Lock()

	if uint64(req.Term) < m.currentTerm {
		term := m.currentTerm
		m.mu.Unlock()
		return &raftpb.AppendEntryResult{Status: raftpb.AppendStatusStale, Term: int64(term), Receiver: m.id}
	}

	if uint64(req.Term) > m.currentTerm {
		m.adoptTermLocked(uint64(req.Term))
	}
	oldRole := m.role
	m.role = Follower
	m.leaderID = req.Leader
	m.lastHeartbeatSeen = time.Now()
	currentTerm := m.currentTerm
	m.mu.Unlock()

	if oldRole != Follower {
		m.logger.LogStateChange(oldRole, Follower, currentTerm)
	}
	m.resetElectionTimer()

	prevLogIndex := uint64(req.PrevLogIndex)
	prevLogTerm := uint64(req.PrevLogTerm)

	if prevLogIndex > 0 {
		actualTerm, ok := m.logManager.TermAt(prevLogIndex)
		if !ok || actualTerm != prevLogTerm {
			conflictTerm, conflictIndex := m.findConflict(prevLogIndex)
			return &raftpb.AppendEntryResult{
				Status:        raftpb.AppendStatusLogMismatch,
				Term:          int64(currentTerm),
				Receiver:      m.id,
				ConflictTerm:  int64(conflictTerm),
				ConflictIndex: int64(conflictIndex),
				LastLogIndex:  int64(m.logManager.LastIndex()),
			}
		}
	}

	if len(req.Entries) == 0 {
		m.logger.LogHeartbeatReceived(req.Leader, uint64(req.Term))
	} else {
		m.logger.LogAppendEntries(req.Leader, uint64(req.Term), prevLogIndex, len(req.Entries))
	}

	newEntries := make([]*Entry, 0, len(req.Entries))
	for i, payload := range req.Entries {
		idx := prevLogIndex + uint64(i) + 1
		if existingTerm, ok := m.logManager.TermAt(idx); ok {
			if existingTerm == uint64(req.Term) {
				continue // already present, re-delivery is a no-op
			}
			if err := m.logManager.TruncateSuffix(idx); err != nil {
				m.logger.Error("truncate suffix failed", zap.Error(err))
				m.stepDown(currentTerm, req.Leader)
				return &raftpb.AppendEntryResult{Status: raftpb.AppendStatusLogMismatch, Term: int64(currentTerm), Receiver: m.id}
			}
		}
		newEntries = append(newEntries, &Entry{Index: idx, Term: uint64(req.Term), Payload: payload})
	}

	if len(newEntries) > 0 {
		if err := m.logManager.Append(newEntries); err != nil {
			m.logger.Error("log append failed, stepping down", zap.Error(err))
			m.stepDown(currentTerm, req.Leader)
			return &raftpb.AppendEntryResult{Status: raftpb.AppendStatusLogMismatch, Term: int64(currentTerm), Receiver: m.id}
		}
	}

	lastLogIndex := m.logManager.LastIndex()
	leaderCommit := uint64(req.LeaderCommit)
	if leaderCommit > m.commitIndex() {
		newCommit := min(leaderCommit, lastLogIndex)
		m.tracker.Reset(currentTerm)
		for i := m.commitIndex() + 1; i <= newCommit; i++ {
			vl := newFollowerVotingLog(i, currentTerm)
			m.tracker.Track(vl)
			vl.Ack(m.id)
		}
		m.advanceCommit()
	}

	return &raftpb.AppendEntryResult{
		Status:       raftpb.AppendStatusOK,
		Term:         int64(currentTerm),
		Receiver:     m.id,
		LastLogIndex: int64(lastLogIndex),
		LastLogTerm:  int64(m.logManager.LastTerm()),
	}
}

// findConflict walks backward from prevLogIndex to the first index
// whose term differs from the entry immediately before it, following
// the standard "conflict term/first-index-of-that-term" optimization
// referenced (but never populated) by the teacher's
// AppendEntriesResponse.
func (m *Member) findConflict(prevLogIndex uint64) (term, index uint64) {
	entry, ok := m.logManager.EntryAt(prevLogIndex)
	if !ok {
		return 0, 1
	}
	conflictTerm := entry.Term
	idx := prevLogIndex
	for idx > 1 {
		prior, ok := m.logManager.EntryAt(idx - 1)
		if !ok || prior.Term != conflictTerm {
			break
		}
		idx--
	}
	return conflictTerm, idx
}

// installSnapshot atomically replaces state with the snapshot and
// discards the log prefix (spec.md 4.1: blocking).
func (m *Member) installSnapshot(req *raftpb.SendSnapshotRequest) int32 {
	if err := m.stateMachine.RestoreSnapshot(req.SnapshotBytes); err != nil {
		m.logger.Error("snapshot restore failed", zap.Error(err))
		return raftpb.StatusInternalError
	}
	if err := m.logManager.InstallSnapshot(uint64(req.LastIncludedIndex), uint64(req.LastIncludedTerm)); err != nil {
		m.logger.Error("snapshot install failed", zap.Error(err))
		return raftpb.StatusInternalError
	}
	m.mu.Lock()
	if m.lastAppliedIndex < uint64(req.LastIncludedIndex) {
		m.lastAppliedIndex = uint64(req.LastIncludedIndex)
	}
	m.mu.Unlock()
	return raftpb.StatusOK
}

// executeForwardedRequest implements spec.md 4.1: followers forward or
// fail UNKNOWN_LEADER; leaders append and await commit.
func (m *Member) executeForwardedRequest(ctx context.Context, req *raftpb.ExecuteRequest) *raftpb.ExecuteResponse {
	term, isLeader := m.GetState()
	if !isLeader {
		m.mu.RLock()
		leader := m.leaderID
		m.mu.RUnlock()
		if leader == "" {
			return &raftpb.ExecuteResponse{Status: raftpb.StatusUnknownLeader}
		}
		if peer, ok := m.peers.Get(leader); ok {
			resp, err := m.rpcClient.ExecuteRequest(ctx, peer.Address, req)
			if err != nil {
				return &raftpb.ExecuteResponse{Status: raftpb.StatusUnknownLeader, LeaderHint: leader}
			}
			return resp
		}
		return &raftpb.ExecuteResponse{Status: raftpb.StatusNotLeader, LeaderHint: leader}
	}

	vl, err := m.appendLocal(req.RequestBytes, term)
	if err != nil {
		return &raftpb.ExecuteResponse{Status: raftpb.StatusInternalError}
	}

	if !m.awaitCommit(ctx, vl) {
		return &raftpb.ExecuteResponse{Status: raftpb.StatusInternalError}
	}
	return &raftpb.ExecuteResponse{Status: raftpb.StatusOK}
}

// requestCommitIndex is an observational read; it never blocks on
// consensus (spec.md 4.1).
func (m *Member) requestCommitIndex() *raftpb.RequestCommitIndexResponse {
	term := m.currentTermSnapshot()
	return &raftpb.RequestCommitIndexResponse{
		Status:      raftpb.StatusOK,
		CommitIndex: int64(m.commitIndex()),
		CommitTerm:  int64(term),
	}
}

// matchLog reports whether the local log contains (index, term).
func (m *Member) matchLog(index, term uint64) bool {
	actual, ok := m.logManager.TermAt(index)
	return ok && actual == term
}

// adoptTermLocked moves to a new, larger term: votedFor clears and the
// term is persisted before any derived RPC reply is sent, per spec.md 6
// ("each must be durable before any derived RPC reply ... is sent").
// In-flight VotingLogs of the old term are terminated via tracker.Reset.
// Caller must hold m.mu.
func (m *Member) adoptTermLocked(term uint64) {
	m.currentTerm = term
	m.votedFor = ""
	m.tracker.Reset(term)
	if err := m.logManager.SetTermAndVote(term, ""); err != nil {
		m.logger.Error("persisting term failed", zap.Error(err))
	}
}
