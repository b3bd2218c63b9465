package replication

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVotingLogAckReachesQuorumOnce(t *testing.T) {
	vl := NewVotingLog(1, 1, 2, "leader")

	require.False(t, vl.Ack("leader"), "self-ack was already counted at creation")
	require.True(t, vl.Ack("peer-a"), "second ack reaches the quorum of 2")
	require.Equal(t, 2, vl.AckCount())
}

func TestVotingLogLaterAcksAfterQuorumAreNoOps(t *testing.T) {
	vl := NewVotingLog(5, 2, 3, "leader")

	require.False(t, vl.Ack("peer-a"))
	require.True(t, vl.Ack("peer-b"), "second peer ack plus the self-ack crosses the quorum of 3")
	require.False(t, vl.Ack("peer-c"), "quorum already reached, later acks don't re-fire")
}

func TestVotingLogIgnoresDuplicateAck(t *testing.T) {
	vl := NewVotingLog(1, 1, 3, "leader")
	vl.Ack("peer-a")
	before := vl.AckCount()
	vl.Ack("peer-a")
	require.Equal(t, before, vl.AckCount())
}

func TestVotingLogTerminatedIgnoresFurtherAcks(t *testing.T) {
	vl := NewVotingLog(1, 1, 2, "leader")
	vl.Terminate()

	require.True(t, vl.Terminated())
	require.False(t, vl.Ack("peer-a"))
	require.Equal(t, 1, vl.AckCount())
}

func TestVotingLogWeakAcceptanceNeverCountsTowardQuorum(t *testing.T) {
	vl := NewVotingLog(1, 1, 2, "leader")
	vl.WeakAck("peer-a")
	vl.WeakAck("peer-b")

	require.Equal(t, 3, vl.WeaklyAcceptedCount()) // 2 weak + self strong
	require.Equal(t, 1, vl.AckCount())
}

func TestVotingTrackerAdvancesCommitOnlyForCurrentTerm(t *testing.T) {
	tracker := NewVotingTracker()
	tracker.Reset(2)

	staleTerm := NewVotingLog(1, 1, 1, "leader") // leftover from a prior term
	tracker.Track(staleTerm)
	staleTerm.Ack("peer-a")

	current := NewVotingLog(2, 2, 2, "leader")
	tracker.Track(current)
	current.Ack("peer-a")

	_, advanced := tracker.AdvanceCommit()
	require.False(t, advanced, "index 1 is stale-term, index 2 isn't contiguous from commitIndex 0 without index 1 first")
}

func TestVotingTrackerAdvancesContiguously(t *testing.T) {
	tracker := NewVotingTracker()
	tracker.Reset(1)

	vl1 := NewVotingLog(1, 1, 2, "leader")
	vl2 := NewVotingLog(2, 1, 2, "leader")
	tracker.Track(vl1)
	tracker.Track(vl2)

	vl2.Ack("peer-a") // index 2 reaches quorum first, but index 1 hasn't yet
	idx, advanced := tracker.AdvanceCommit()
	require.False(t, advanced)
	require.Equal(t, uint64(0), idx)

	vl1.Ack("peer-a")
	idx, advanced = tracker.AdvanceCommit()
	require.True(t, advanced)
	require.Equal(t, uint64(2), idx, "both 1 and 2 are now at quorum, commit jumps to 2")
	require.Equal(t, 0, tracker.Pending())
}

func TestVotingTrackerResetTerminatesPriorTermLogs(t *testing.T) {
	tracker := NewVotingTracker()
	tracker.Reset(1)
	vl := NewVotingLog(1, 1, 2, "leader")
	tracker.Track(vl)

	tracker.Reset(2)
	require.True(t, vl.Terminated())
	_, ok := tracker.Get(1)
	require.False(t, ok, "Reset clears the pending set")
}
