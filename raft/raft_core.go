// raft/raft_core.go
package raft

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"raftengine/cluster"
	"raftengine/metrics"
	"raftengine/replication"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Member is one node's view of a replication group: term/role/log
// handle/peer set/identity, generalized from the teacher's RaftNode
// (same sync.RWMutex-guarded term/role fields, same run() event-loop
// shape) but with the real dispatch, catch-up and voting-tracker
// machinery wired in instead of Week-7/8 placeholders.
type Member struct {
	mu sync.RWMutex // guards currentTerm/role/votedFor/leader — the "object monitor"

	currentTerm      uint64
	votedFor         string
	role             Role
	leaderID         string
	lastAppliedIndex uint64

	lastHeartbeatSeen time.Time // leader-stickiness window, see member_rpc.go

	id        string
	groupIDVal string
	address   string
	peers     *cluster.PeerSet

	cfg *Config

	logManager   LogManager
	stateMachine StateMachine

	tracker  *replication.VotingTracker
	catchUp  *replication.CatchUpManager
	dispatch *logDispatcher

	rpcClient RPCClient
	rpcServer RPCServer

	logger *Logger
	mx     *metrics.Registry

	electionTimer  *time.Timer
	heartbeatTimer *time.Timer

	shutdownCh chan struct{}
	newEntryCh chan struct{}

	election *electionContext // current election attempt, nil when none in flight

	queueOrdered bool // immutable per Design Note, computed once below

	lastSnapshotBytes atomic.Pointer[[]byte] // cache of the most recent CreateSnapshot() result
}

// NewMember builds a Member from cfg. The caller must still call
// Start() to begin serving.
func NewMember(cfg *Config, logger *Logger, mx *metrics.Registry) *Member {
	m := &Member{
		id:           cfg.ID,
		groupIDVal:   cfg.GroupID,
		address:      cfg.Address,
		peers:        cluster.NewPeerSet(cfg.PeerAddresses),
		cfg:          cfg,
		logManager:   cfg.LogManager,
		stateMachine: cfg.StateMachine,
		tracker:      replication.NewVotingTracker(),
		logger:       logger,
		mx:           mx,
		shutdownCh:   make(chan struct{}),
		newEntryCh:   make(chan struct{}, 1),
		queueOrdered: cfg.queueOrdered(),
	}

	m.currentTerm = m.logManager.CurrentTerm()
	m.votedFor = m.logManager.VotedFor()
	m.role = Follower

	m.rpcClient = NewGRPCRaftClient()
	m.rpcServer = NewGRPCRaftServer(m)
	m.dispatch = newLogDispatcher(cfg, m, m.rpcClient, logger, mx)
	m.catchUp = replication.NewCatchUpManager(&catchUpSender{m: m}, 8, cfg.catchUpTimeout(), func(peer string, kind replication.TaskKind, err error) {
		logger.LogCatchUpDone(peer, kind.String(), err)
	})
	m.catchUp.OnStart(func(peer string, kind replication.TaskKind) {
		logger.LogCatchUpStart(peer, kind.String())
	})

	return m
}

// Start begins serving RPCs and the member's event loop.
func (m *Member) Start() error {
	m.logger.Info("starting member", zap.String("address", m.address))

	m.electionTimer = time.NewTimer(m.electionTimeoutWithJitter())
	m.heartbeatTimer = time.NewTimer(m.cfg.heartbeatInterval())
	m.heartbeatTimer.Stop()

	if err := m.rpcServer.Start(m.address); err != nil {
		return err
	}

	m.dispatch.start(m.peers.All())

	go m.run()
	return nil
}

// Shutdown stops timers, the dispatcher, and the RPC server.
func (m *Member) Shutdown() {
	close(m.shutdownCh)
	m.stopElectionTimer()
	m.stopHeartbeatTimer()
	m.dispatch.stop()
	m.rpcServer.Stop()
	m.rpcClient.Close()
}

func (m *Member) run() {
	for {
		// electionTimer/heartbeatTimer are replaced (not just reset) by
		// RPC-handler goroutines calling resetElectionTimer/
		// resetHeartbeatTimer concurrently with this loop, so the
		// pointers themselves must be read under m.mu rather than
		// dereferenced directly in the select below.
		m.mu.RLock()
		electionC := m.electionTimer.C
		heartbeatC := m.heartbeatTimer.C
		m.mu.RUnlock()

		select {
		case <-m.shutdownCh:
			return

		case <-electionC:
			m.logger.LogElectionTimeout()
			m.startElection()

		case <-heartbeatC:
			if m.getRole() == Leader {
				m.sendHeartbeats()
				m.resetHeartbeatTimer()
			}

		case <-m.newEntryCh:
			if m.getRole() == Leader {
				// Dispatcher workers drain their own queues; nothing
				// further to do here beyond waking the select loop.
			}
		}
	}
}

// GetState reports the current term and whether this node is leader.
func (m *Member) GetState() (uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTerm, m.role == Leader
}

func (m *Member) getRole() Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role
}

func (m *Member) currentTermAndRole() (uint64, Role) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTerm, m.role
}

// dispatchSink implementation --------------------------------------

func (m *Member) groupID() string { return m.groupIDVal }
func (m *Member) selfID() string  { return m.id }

func (m *Member) termAt(index uint64) (uint64, bool) {
	return m.logManager.TermAt(index)
}

func (m *Member) commitIndex() uint64 {
	return m.tracker.CommitIndex()
}

// advanceCommit asks the voting tracker to recompute the commit index
// and, if it moved, applies newly committed entries to the state
// machine in order.
func (m *Member) advanceCommit() {
	newIndex, advanced := m.tracker.AdvanceCommit()
	if !advanced {
		return
	}
	if m.mx != nil {
		m.mx.CommitIndex.Set(float64(newIndex))
	}
	m.applyCommitted(newIndex)
}

func (m *Member) applyCommitted(upTo uint64) {
	entries := m.logManager.EntriesFrom(m.lastApplied() + 1)
	for _, e := range entries {
		if e.Index > upTo {
			break
		}
		status, err := m.stateMachine.Apply(e.Payload)
		if err != nil {
			m.logger.Error("state machine apply failed", zap.Error(err))
			continue
		}
		m.logger.LogApply(e.Index, status)
		m.setLastApplied(e.Index)
	}
	m.logger.LogCommit(upTo, m.currentTermSnapshot())
}

// lastApplied/setLastApplied track application progress separately
// from the commit index (commit can race ahead of apply under a slow
// state machine).
func (m *Member) lastApplied() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAppliedIndex
}

func (m *Member) setLastApplied(idx uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastAppliedIndex = idx
}

func (m *Member) currentTermSnapshot() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTerm
}

func (m *Member) maybeTriggerCatchUp(peerID string, term uint64, rejectedIndex, rejectedTerm uint64) {
	if m.catchUp.Active(peerID) {
		return
	}
	_ = m.catchUp.RegisterTaskForIndex(context.Background(), peerID, term, rejectedIndex)
}

// electionTimeoutWithJitter derives a randomized timeout in
// [base, base+150ms), following the teacher's resetElectionTimer.
func (m *Member) electionTimeoutWithJitter() time.Duration {
	base := m.cfg.electionTimeout()
	return base + time.Duration(randomInt(0, 150))*time.Millisecond
}

func (m *Member) resetElectionTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.electionTimer != nil {
		m.electionTimer.Stop()
	}
	m.electionTimer = time.NewTimer(m.electionTimeoutWithJitter())
}

func (m *Member) resetHeartbeatTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.heartbeatTimer != nil {
		m.heartbeatTimer.Stop()
	}
	m.heartbeatTimer = time.NewTimer(m.cfg.heartbeatInterval())
}

// stopElectionTimer and stopHeartbeatTimer let callers outside run()
// (becomeLeader, stepDown) stop a timer without racing resetElectionTimer/
// resetHeartbeatTimer's own field writes.
func (m *Member) stopElectionTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.electionTimer != nil {
		m.electionTimer.Stop()
	}
}

func (m *Member) stopHeartbeatTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.heartbeatTimer != nil {
		m.heartbeatTimer.Stop()
	}
}

// newCorrelationID generates the id stored in electionContext.electionID
// for an election attempt; the id is not written to log lines, and
// catch-up tasks carry none. Grounded on
// other_examples/.../cuemby-warren pairing google/uuid with
// hashicorp/raft.
func newCorrelationID() string {
	return uuid.NewString()
}
