package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func addresses(ids ...string) map[string]string {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		out[id] = "inproc://" + id
	}
	return out
}

func TestQuorumAcrossClusterSizes(t *testing.T) {
	// Quorum() counts the local node in addition to its peers, so a
	// PeerSet holding N-1 peers represents an N-node group.
	cases := []struct {
		peerCount int
		want      int
	}{
		{0, 1},  // 1-node group: only self needed
		{1, 2},  // 2-node group: both required
		{2, 2},  // 3-node group: majority of 3 is 2
		{3, 3},  // 4-node group: majority of 4 is 3, not 2
		{4, 3},  // 5-node group: majority of 5 is 3
		{5, 4},  // 6-node group: majority of 6 is 4, not 3
		{6, 4},  // 7-node group: majority of 7 is 4
	}

	for _, tc := range cases {
		ids := make([]string, tc.peerCount)
		for i := range ids {
			ids[i] = string(rune('a' + i))
		}
		ps := NewPeerSet(addresses(ids...))
		require.Equal(t, tc.want, ps.Quorum(), "peerCount=%d", tc.peerCount)
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	ps := NewPeerSet(addresses("node1"))
	require.Error(t, ps.Add("node1", "inproc://node1-dup"))
	require.NoError(t, ps.Add("node2", "inproc://node2"))
	require.Equal(t, 2, ps.Count())
}

func TestRemoveUnknownPeerErrors(t *testing.T) {
	ps := NewPeerSet(addresses("node1"))
	require.Error(t, ps.Remove("ghost"))
	require.NoError(t, ps.Remove("node1"))
	require.Equal(t, 0, ps.Count())
}

func TestContainsAndGet(t *testing.T) {
	ps := NewPeerSet(addresses("node1", "node2"))
	require.True(t, ps.Contains("node1"))
	require.False(t, ps.Contains("node3"))

	p, ok := ps.Get("node2")
	require.True(t, ok)
	require.Equal(t, "inproc://node2", p.Address)
}

func TestEnabledExcludesDisabledPeers(t *testing.T) {
	ps := NewPeerSet(addresses("node1", "node2"))
	p, _ := ps.Get("node1")
	p.Enabled = false

	enabled := ps.Enabled()
	require.Len(t, enabled, 1)
	require.Equal(t, "node2", enabled[0].ID)
	require.Len(t, ps.All(), 2)
}

func TestPeerObserveBuildsMovingAverage(t *testing.T) {
	p := &Peer{ID: "node1"}
	require.Equal(t, float64(0), p.SendRateEWMA())

	p.Observe(1000, time.Second)
	first := p.SendRateEWMA()
	require.InDelta(t, 1000, first, 0.001)

	p.Observe(0, time.Second)
	second := p.SendRateEWMA()
	require.Less(t, second, first, "a zero-throughput sample should pull the average down")
	require.Greater(t, second, float64(0))
}

func TestPeerObserveIgnoresNonPositiveElapsed(t *testing.T) {
	p := &Peer{ID: "node1"}
	p.Observe(1000, 0)
	require.Equal(t, float64(0), p.SendRateEWMA())
}

func TestAddressesReflectsCurrentMembership(t *testing.T) {
	ps := NewPeerSet(addresses("node1", "node2"))
	require.Equal(t, map[string]string{
		"node1": "inproc://node1",
		"node2": "inproc://node2",
	}, ps.Addresses())

	require.NoError(t, ps.Remove("node1"))
	require.Equal(t, map[string]string{"node2": "inproc://node2"}, ps.Addresses())
}
