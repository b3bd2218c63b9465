// raft/election_test.go
package raft

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"raftengine/metrics"
	"raftengine/raftpb"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStateMachine is a no-op StateMachine, enough to exercise the
// commit/apply path without pulling in the LSM store.
type fakeStateMachine struct {
	mu      sync.Mutex
	applied [][]byte
}

func (f *fakeStateMachine) Apply(payload []byte) (ApplyStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, payload)
	return ApplyOK, nil
}

func (f *fakeStateMachine) CreateSnapshot() ([]byte, error)    { return nil, nil }
func (f *fakeStateMachine) RestoreSnapshot(snapshot []byte) error { return nil }

// fakeTransport routes RPCClient calls straight to an in-process Member
// by address, bypassing gRPC entirely so election/replication tests run
// deterministically without binding real sockets.
type fakeTransport struct {
	mu      sync.RWMutex
	members map[string]*Member
	down    map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{members: make(map[string]*Member), down: make(map[string]bool)}
}

func (ft *fakeTransport) register(address string, m *Member) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.members[address] = m
}

func (ft *fakeTransport) setDown(address string, down bool) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.down[address] = down
}

func (ft *fakeTransport) target(address string) (*Member, error) {
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	if ft.down[address] {
		return nil, fmt.Errorf("fake transport: %s is unreachable", address)
	}
	m, ok := ft.members[address]
	if !ok {
		return nil, fmt.Errorf("fake transport: no member at %s", address)
	}
	return m, nil
}

func (ft *fakeTransport) Heartbeat(ctx context.Context, address string, req *raftpb.HeartBeatRequest) (*raftpb.HeartBeatResponse, error) {
	m, err := ft.target(address)
	if err != nil {
		return nil, err
	}
	return m.processHeartbeatRequest(req), nil
}

func (ft *fakeTransport) StartElection(ctx context.Context, address string, req *raftpb.ElectionRequest) (*raftpb.ElectionResponse, error) {
	m, err := ft.target(address)
	if err != nil {
		return nil, err
	}
	return &raftpb.ElectionResponse{Code: m.processElectionRequest(req)}, nil
}

func (ft *fakeTransport) AppendEntries(ctx context.Context, address string, req *raftpb.AppendEntriesRequest) (*raftpb.AppendEntryResult, error) {
	m, err := ft.target(address)
	if err != nil {
		return nil, err
	}
	return m.appendEntries(req), nil
}

func (ft *fakeTransport) SendSnapshot(ctx context.Context, address string, req *raftpb.SendSnapshotRequest) (*raftpb.SendSnapshotResponse, error) {
	m, err := ft.target(address)
	if err != nil {
		return nil, err
	}
	return &raftpb.SendSnapshotResponse{Status: m.installSnapshot(req)}, nil
}

func (ft *fakeTransport) MatchTerm(ctx context.Context, address string, req *raftpb.MatchTermRequest) (*raftpb.MatchTermResponse, error) {
	m, err := ft.target(address)
	if err != nil {
		return nil, err
	}
	return &raftpb.MatchTermResponse{Matched: m.matchLog(uint64(req.Index), uint64(req.Term))}, nil
}

func (ft *fakeTransport) ExecuteRequest(ctx context.Context, address string, req *raftpb.ExecuteRequest) (*raftpb.ExecuteResponse, error) {
	m, err := ft.target(address)
	if err != nil {
		return nil, err
	}
	return m.executeForwardedRequest(ctx, req), nil
}

func (ft *fakeTransport) RequestCommitIndex(ctx context.Context, address string, req *raftpb.RequestCommitIndexRequest) (*raftpb.RequestCommitIndexResponse, error) {
	m, err := ft.target(address)
	if err != nil {
		return nil, err
	}
	return m.requestCommitIndex(), nil
}

func (ft *fakeTransport) Close() error { return nil }

// newTestMember builds a Member wired to the fake transport instead of a
// real gRPC client/server pair.
func newTestMember(t *testing.T, id string, peerAddrs map[string]string, transport *fakeTransport) *Member {
	t.Helper()

	lm, err := NewFileLogManager(t.TempDir())
	require.NoError(t, err)

	cfg := DefaultConfig(id, "inproc://"+id, nil, peerAddrs)
	cfg.ElectionTimeoutRangeMS = 40
	cfg.HeartbeatIntervalMS = 10
	cfg.StateMachine = &fakeStateMachine{}
	cfg.LogManager = lm

	logger := NewLogger(id, zap.NewNop())
	m := NewMember(cfg, logger, metrics.NewRegistry(id))
	m.rpcClient = transport
	m.dispatch = newLogDispatcher(cfg, m, transport, logger, nil)

	transport.register(cfg.Address, m)
	return m
}

// startInProcess begins the event loop and dispatcher without binding a
// real listener (the fake transport never dials out).
func startInProcess(m *Member) {
	m.electionTimer = time.NewTimer(m.electionTimeoutWithJitter())
	m.heartbeatTimer = time.NewTimer(m.cfg.heartbeatInterval())
	m.heartbeatTimer.Stop()
	m.dispatch.start(m.peers.All())
	go m.run()
}

func countLeaders(nodes []*Member) int {
	count := 0
	for _, n := range nodes {
		if _, isLeader := n.GetState(); isLeader {
			count++
		}
	}
	return count
}

func makeCluster(t *testing.T, n int, transport *fakeTransport) []*Member {
	t.Helper()
	ids := make([]string, n)
	addrs := make(map[string]string, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("node%d", i+1)
		addrs[ids[i]] = "inproc://" + ids[i]
	}

	nodes := make([]*Member, n)
	for i, id := range ids {
		peerAddrs := make(map[string]string, n-1)
		for _, other := range ids {
			if other != id {
				peerAddrs[other] = addrs[other]
			}
		}
		nodes[i] = newTestMember(t, id, peerAddrs, transport)
	}
	return nodes
}

func TestInitialStateIsFollower(t *testing.T) {
	m := newTestMember(t, "node1", map[string]string{"node2": "inproc://node2"}, newFakeTransport())
	defer m.Shutdown()

	term, isLeader := m.GetState()
	require.Equal(t, uint64(0), term)
	require.False(t, isLeader)
	require.Equal(t, Follower, m.getRole())
}

func TestSingleNodeElectsItselfImmediately(t *testing.T) {
	m := newTestMember(t, "node1", nil, newFakeTransport())
	defer m.Shutdown()

	startInProcess(m)
	require.Eventually(t, func() bool {
		_, isLeader := m.GetState()
		return isLeader
	}, time.Second, 5*time.Millisecond)
}

func TestThreeNodeClusterElectsOneLeader(t *testing.T) {
	transport := newFakeTransport()
	nodes := makeCluster(t, 3, transport)
	defer func() {
		for _, n := range nodes {
			n.Shutdown()
		}
	}()

	for _, n := range nodes {
		startInProcess(n)
	}

	require.Eventually(t, func() bool {
		return countLeaders(nodes) == 1
	}, 2*time.Second, 10*time.Millisecond)

	terms := make(map[uint64]int)
	for _, n := range nodes {
		term, _ := n.GetState()
		terms[term]++
	}
	require.Len(t, terms, 1, "all nodes should agree on the elected term")
}

func TestFourNodeClusterToleratesOneFailureForQuorum(t *testing.T) {
	// A 4-node group's quorum is 3: one peer being unreachable must not
	// prevent election, but two unreachable peers must.
	transport := newFakeTransport()
	nodes := makeCluster(t, 4, transport)
	defer func() {
		for _, n := range nodes {
			n.Shutdown()
		}
	}()

	transport.setDown(nodes[3].address, true)

	for _, n := range nodes[:3] {
		startInProcess(n)
	}

	require.Eventually(t, func() bool {
		return countLeaders(nodes[:3]) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReElectionAfterLeaderShutdown(t *testing.T) {
	transport := newFakeTransport()
	nodes := makeCluster(t, 3, transport)

	for _, n := range nodes {
		startInProcess(n)
	}

	require.Eventually(t, func() bool {
		return countLeaders(nodes) == 1
	}, 2*time.Second, 10*time.Millisecond)

	var leader *Member
	var remaining []*Member
	for _, n := range nodes {
		if _, isLeader := n.GetState(); isLeader {
			leader = n
		} else {
			remaining = append(remaining, n)
		}
	}
	require.NotNil(t, leader)
	oldTerm, _ := leader.GetState()

	transport.setDown(leader.address, true)
	leader.Shutdown()
	defer func() {
		for _, n := range remaining {
			n.Shutdown()
		}
	}()

	require.Eventually(t, func() bool {
		return countLeaders(remaining) == 1
	}, 2*time.Second, 10*time.Millisecond)

	newTerm, _ := remaining[0].GetState()
	require.Greater(t, newTerm, oldTerm)
}

func TestVoteRefusalForOutdatedCandidateLog(t *testing.T) {
	m := newTestMember(t, "node1", map[string]string{"node2": "inproc://node2"}, newFakeTransport())
	defer m.Shutdown()

	require.NoError(t, m.logManager.Append([]*Entry{{Index: 1, Term: 5, Payload: []byte("x")}}))
	require.NoError(t, m.logManager.SetTermAndVote(5, ""))
	m.currentTerm = 5
	m.lastHeartbeatSeen = time.Now().Add(-time.Hour)

	code := m.processElectionRequest(&raftpb.ElectionRequest{
		Term:         6,
		Elector:      "node2",
		LastLogIndex: 1,
		LastLogTerm:  3, // older term than node1's last entry
	})

	require.NotEqual(t, raftpb.ResponseAgree, code)
}

func TestOneVotePerTerm(t *testing.T) {
	m := newTestMember(t, "node1", map[string]string{"node2": "inproc://node2", "node3": "inproc://node3"}, newFakeTransport())
	defer m.Shutdown()
	m.lastHeartbeatSeen = time.Now().Add(-time.Hour)

	code1 := m.processElectionRequest(&raftpb.ElectionRequest{Term: 1, Elector: "node2"})
	require.Equal(t, raftpb.ResponseAgree, code1)

	code2 := m.processElectionRequest(&raftpb.ElectionRequest{Term: 1, Elector: "node3"})
	require.NotEqual(t, raftpb.ResponseAgree, code2)
}
