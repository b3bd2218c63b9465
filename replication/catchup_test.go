package replication

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSender is an in-memory replication.Sender recording every call,
// standing in for a Member during CatchUpManager tests.
type fakeSender struct {
	mu sync.Mutex

	stillLeader bool
	lastIndex   uint64

	snapshotIndex uint64
	snapshotTerm  uint64
	snapshotBytes []byte
	hasSnapshot   bool

	snapshotSent []string
	logRanges    [][2]uint64

	snapshotErr error
	logErr      error
}

func (f *fakeSender) StillLeader(term uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stillLeader
}

func (f *fakeSender) CurrentSnapshot() (uint64, uint64, []byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotIndex, f.snapshotTerm, f.snapshotBytes, f.hasSnapshot
}

func (f *fakeSender) LastLogIndex() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastIndex
}

func (f *fakeSender) SendSnapshot(ctx context.Context, peerID string, lastIncludedIndex, lastIncludedTerm uint64, snapshot []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshotSent = append(f.snapshotSent, peerID)
	return f.snapshotErr
}

func (f *fakeSender) SendLogRange(ctx context.Context, peerID string, from, to uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logRanges = append(f.logRanges, [2]uint64{from, to})
	return f.logErr
}

func TestCatchUpManagerRefusesDuplicateTask(t *testing.T) {
	sender := &fakeSender{stillLeader: true, lastIndex: 10}
	mgr := NewCatchUpManager(sender, 4, time.Second, nil)

	require.NoError(t, mgr.RegisterTaskForIndex(context.Background(), "peer1", 1, 5))
	err := mgr.RegisterTaskForIndex(context.Background(), "peer1", 1, 5)
	require.Error(t, err)
}

func TestCatchUpManagerRunsLogCatchUpWhenNoSnapshot(t *testing.T) {
	sender := &fakeSender{stillLeader: true, lastIndex: 10}
	done := make(chan error, 1)
	mgr := NewCatchUpManager(sender, 4, time.Second, func(peer string, kind TaskKind, err error) {
		done <- err
	})

	require.NoError(t, mgr.RegisterTaskForIndex(context.Background(), "peer1", 1, 5))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("catch-up task never completed")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Equal(t, [][2]uint64{{5, 10}}, sender.logRanges)
}

func TestCatchUpManagerPrefersSnapshotWhenBehindBoundary(t *testing.T) {
	sender := &fakeSender{
		stillLeader: true, lastIndex: 20,
		hasSnapshot: true, snapshotIndex: 15, snapshotTerm: 3, snapshotBytes: []byte("state"),
	}
	done := make(chan error, 1)
	mgr := NewCatchUpManager(sender, 4, time.Second, func(peer string, kind TaskKind, err error) {
		done <- err
	})

	require.NoError(t, mgr.RegisterTaskForIndex(context.Background(), "peer1", 1, 5))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("catch-up task never completed")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Equal(t, []string{"peer1"}, sender.snapshotSent)
	require.Equal(t, [][2]uint64{{16, 20}}, sender.logRanges)
}

func TestCatchUpManagerAbortsWhenNoLongerLeader(t *testing.T) {
	sender := &fakeSender{
		stillLeader: false, lastIndex: 20,
		hasSnapshot: true, snapshotIndex: 15, snapshotTerm: 3, snapshotBytes: []byte("state"),
	}
	done := make(chan error, 1)
	mgr := NewCatchUpManager(sender, 4, time.Second, func(peer string, kind TaskKind, err error) {
		done <- err
	})

	require.NoError(t, mgr.RegisterTaskForIndex(context.Background(), "peer1", 1, 5))

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrLeaderUnknown)
	case <-time.After(time.Second):
		t.Fatal("catch-up task never completed")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Empty(t, sender.snapshotSent)
}

func TestCatchUpManagerActiveReflectsInFlightTask(t *testing.T) {
	sender := &fakeSender{stillLeader: true, lastIndex: 10}
	done := make(chan struct{})
	blocked := &blockingSender{fakeSender: sender, unblock: done}
	mgr := NewCatchUpManager(blocked, 4, time.Second, nil)

	require.NoError(t, mgr.RegisterTaskForIndex(context.Background(), "peer1", 1, 5))
	require.Eventually(t, func() bool { return mgr.Active("peer1") }, time.Second, 5*time.Millisecond)

	close(done)
	require.Eventually(t, func() bool { return !mgr.Active("peer1") }, time.Second, 5*time.Millisecond)
}

// blockingSender wraps fakeSender so SendLogRange blocks until unblock
// closes, letting the active-task test observe the in-flight window.
type blockingSender struct {
	*fakeSender
	unblock chan struct{}
}

func (b *blockingSender) SendLogRange(ctx context.Context, peerID string, from, to uint64) error {
	<-b.unblock
	return b.fakeSender.SendLogRange(ctx, peerID, from, to)
}
