// raft/snapshot.go
package raft

import (
	"context"
	"fmt"

	"raftengine/raftpb"

	"go.uber.org/zap"
)

// MaybeSnapshot asks the state machine for a snapshot and installs it as
// the new log prefix boundary when the distance between the last
// compacted index and the last applied index crosses threshold. Callers
// (typically a periodic ticker, see server's snapshotTicker) decide the
// cadence; this method only enforces the boundary math.
func (m *Member) MaybeSnapshot(threshold uint64) error {
	applied := m.lastApplied()
	if applied <= m.logManager.SnapshotLastIndex()+threshold {
		return nil
	}

	lastIncludedTerm, ok := m.logManager.TermAt(applied)
	if !ok {
		return fmt.Errorf("raft: no term recorded for applied index %d", applied)
	}

	bytes, err := m.stateMachine.CreateSnapshot()
	if err != nil {
		return fmt.Errorf("raft: create snapshot failed: %w", err)
	}

	if err := m.logManager.InstallSnapshot(applied, lastIncludedTerm); err != nil {
		return fmt.Errorf("raft: install snapshot failed: %w", err)
	}

	m.lastSnapshotBytes.Store(&bytes)
	m.logger.Info("snapshot taken", zap.Uint64("index", applied), zap.Uint64("term", lastIncludedTerm))
	return nil
}

// catchUpSender adapts a Member onto replication.Sender, the narrow
// surface the CatchUpManager needs to drive a snapshot-then-log replay
// for one lagging peer (spec.md 4.4), grounded on the same rpcClient the
// dispatcher uses but bypassing its rate limiter and per-peer queue.
type catchUpSender struct {
	m *Member
}

func (s *catchUpSender) StillLeader(term uint64) bool {
	current, role := s.m.currentTermAndRole()
	return role == Leader && current == term
}

func (s *catchUpSender) CurrentSnapshot() (lastIncludedIndex, lastIncludedTerm uint64, bytes []byte, ok bool) {
	lastIncludedIndex = s.m.logManager.SnapshotLastIndex()
	if lastIncludedIndex == 0 {
		return 0, 0, nil, false
	}
	lastIncludedTerm = s.m.logManager.SnapshotLastTerm()
	ptr := s.m.lastSnapshotBytes.Load()
	if ptr == nil {
		bytes, err := s.m.stateMachine.CreateSnapshot()
		if err != nil {
			return lastIncludedIndex, lastIncludedTerm, nil, false
		}
		return lastIncludedIndex, lastIncludedTerm, bytes, true
	}
	return lastIncludedIndex, lastIncludedTerm, *ptr, true
}

func (s *catchUpSender) LastLogIndex() uint64 {
	return s.m.logManager.LastIndex()
}

// SendSnapshot blocks until the peer's SendSnapshot RPC returns, outside
// any dispatcher queue (spec.md 4.4: snapshot sends bypass the normal
// per-peer rate limit, they're already the slow path).
func (s *catchUpSender) SendSnapshot(ctx context.Context, peerID string, lastIncludedIndex, lastIncludedTerm uint64, snapshot []byte) error {
	peer, ok := s.m.peers.Get(peerID)
	if !ok {
		return fmt.Errorf("raft: unknown peer %s", peerID)
	}

	req := &raftpb.SendSnapshotRequest{
		GroupId:           s.m.groupID(),
		SnapshotBytes:     snapshot,
		LastIncludedIndex: int64(lastIncludedIndex),
		LastIncludedTerm:  int64(lastIncludedTerm),
	}
	resp, err := s.m.rpcClient.SendSnapshot(ctx, peer.Address, req)
	if err != nil {
		return err
	}
	if resp.Status != raftpb.StatusOK {
		return fmt.Errorf("raft: peer %s rejected snapshot with status %d", peerID, resp.Status)
	}
	return nil
}

// SendLogRange replays entries [from, to] to peerID directly, chunked by
// frame size the same way the dispatcher chunks a drained batch, but
// sent synchronously and without consuming the peer's token bucket.
func (s *catchUpSender) SendLogRange(ctx context.Context, peerID string, from, to uint64) error {
	peer, ok := s.m.peers.Get(peerID)
	if !ok {
		return fmt.Errorf("raft: unknown peer %s", peerID)
	}

	entries := make([]*Entry, 0, to-from+1)
	for i := from; i <= to; i++ {
		e, ok := s.m.logManager.EntryAt(i)
		if !ok {
			break
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil
	}

	term, _ := s.m.currentTermAndRole()
	for _, chunk := range chunkEntries(entries, s.m.cfg.ThriftMaxFrameSize) {
		first := chunk[0]
		prevLogIndex := first.Index - 1
		prevLogTerm, _ := s.m.logManager.TermAt(prevLogIndex)

		payloads := make([][]byte, len(chunk))
		for i, e := range chunk {
			payloads[i] = e.Payload
		}

		req := &raftpb.AppendEntriesRequest{
			GroupId:      s.m.groupID(),
			Term:         int64(term),
			Leader:       s.m.selfID(),
			LeaderCommit: int64(s.m.commitIndex()),
			PrevLogIndex: int64(prevLogIndex),
			PrevLogTerm:  int64(prevLogTerm),
			Entries:      payloads,
		}

		resp, err := s.m.rpcClient.AppendEntries(ctx, peer.Address, req)
		if err != nil {
			return err
		}
		if resp.Status != raftpb.AppendStatusOK {
			return fmt.Errorf("raft: peer %s rejected log catch-up chunk with status %d", peerID, resp.Status)
		}
	}
	return nil
}
