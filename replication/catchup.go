package replication

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// TaskKind distinguishes the two catch-up strategies of spec.md 4.4.
type TaskKind int

const (
	LogCatchUp TaskKind = iota
	SnapshotCatchUp
)

func (k TaskKind) String() string {
	if k == SnapshotCatchUp {
		return "snapshot"
	}
	return "log"
}

// Sender is the narrow surface a CatchUpTask needs from the member: the
// entries it should replay, the current snapshot if one is needed, and
// whether the calling node is still the leader of the term that started
// the task (re-checked immediately before a snapshot send, per spec.md
// 4.4's term-lock requirement).
type Sender interface {
	// StillLeader reports whether term is still the current leader
	// term; called under the member's term-lock before a snapshot
	// send.
	StillLeader(term uint64) bool
	// SendSnapshot blocks until the peer acknowledges the snapshot or
	// ctx is done.
	SendSnapshot(ctx context.Context, peerID string, lastIncludedIndex, lastIncludedTerm uint64, snapshot []byte) error
	// SendLogRange sends entries [from, to] to peerID outside the
	// dispatcher queue, bypassing rate limits but honoring frame size.
	SendLogRange(ctx context.Context, peerID string, from, to uint64) error

	CurrentSnapshot() (lastIncludedIndex, lastIncludedTerm uint64, bytes []byte, ok bool)
	LastLogIndex() uint64
}

// CatchUpTask tracks one in-flight resynchronization of a single peer.
// Generalized from hinted_handoff.go's per-target Hint record: instead
// of a queued list of replayed writes, a task here is a single
// long-running operation with an abort flag, matching the data model's
// "CatchUpTask { target peer, log slice, optional snapshot, abort flag
// }".
type CatchUpTask struct {
	Peer  string
	Kind  TaskKind
	Term  uint64
	From  uint64 // first log index to replay after any snapshot
	Abort bool

	mu       sync.Mutex
	done     bool
	doneCond *sync.Cond
	err      error
}

func newCatchUpTask(peer string, kind TaskKind, term, from uint64) *CatchUpTask {
	t := &CatchUpTask{Peer: peer, Kind: kind, Term: term, From: from}
	t.doneCond = sync.NewCond(&t.mu)
	return t
}

// awaitDone blocks under the completion latch (monitor + condition)
// for up to timeout, per spec.md 4.4 ("performed asynchronously with a
// completion latch ... and a configurable wait bound").
func (t *CatchUpTask) awaitDone(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		t.mu.Lock()
		for !t.done {
			t.doneCond.Wait()
		}
		t.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.err
	case <-time.After(timeout):
		return fmt.Errorf("catch-up task for peer %s timed out after %s", t.Peer, timeout)
	}
}

func (t *CatchUpTask) finish(err error) {
	t.mu.Lock()
	t.done = true
	t.err = err
	t.mu.Unlock()
	t.doneCond.Broadcast()
}

func (t *CatchUpTask) setAbort() {
	t.mu.Lock()
	t.Abort = true
	t.mu.Unlock()
}

func (t *CatchUpTask) aborted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Abort
}

// CatchUpManager enforces at-most-one active task per peer and runs
// tasks on a semaphore-bounded cached pool, generalizing
// hinted_handoff.go's HintedHandoff (map + registry + cleanup ticker)
// from replaying buffered writes to driving live snapshot/log replay.
type CatchUpManager struct {
	mu    sync.Mutex
	tasks map[string]*CatchUpTask

	sender  Sender
	sem     *semaphore.Weighted
	timeout time.Duration

	onStart func(peer string, kind TaskKind)
	onDone  func(peer string, kind TaskKind, err error)
}

// NewCatchUpManager creates a manager bounded to maxConcurrent
// concurrent tasks, with catchUpTimeout applied to snapshot completion
// waits.
func NewCatchUpManager(sender Sender, maxConcurrent int64, catchUpTimeout time.Duration, onDone func(string, TaskKind, error)) *CatchUpManager {
	return &CatchUpManager{
		tasks:   make(map[string]*CatchUpTask),
		sender:  sender,
		sem:     semaphore.NewWeighted(maxConcurrent),
		timeout: catchUpTimeout,
		onDone:  onDone,
	}
}

// OnStart registers a callback fired when a new catch-up task is
// admitted, before it starts running.
func (m *CatchUpManager) OnStart(fn func(peer string, kind TaskKind)) {
	m.onStart = fn
}

// RegisterTask admits a new catch-up attempt for peer, refusing
// duplicates (spec.md 4.4: "registerTask(peer) refuses duplicates").
// The task runs on a goroutine drawn from the semaphore-bounded pool;
// RegisterTask itself never blocks on the semaphore beyond an
// acquisition it performs inside the spawned goroutine.
func (m *CatchUpManager) RegisterTask(ctx context.Context, peer string, term uint64) error {
	m.mu.Lock()
	if _, exists := m.tasks[peer]; exists {
		m.mu.Unlock()
		return fmt.Errorf("catch-up task already active for peer %s", peer)
	}

	lastIncludedIndex, _, _, hasSnapshot := m.sender.CurrentSnapshot()
	kind := LogCatchUp
	if hasSnapshot && m.needsSnapshot(peer, lastIncludedIndex) {
		kind = SnapshotCatchUp
	}

	task := newCatchUpTask(peer, kind, term, lastIncludedIndex+1)
	m.tasks[peer] = task
	m.mu.Unlock()

	if m.onStart != nil {
		m.onStart(peer, kind)
	}
	go m.run(ctx, task)
	return nil
}

// needsSnapshot is a hook point for the dispatcher-observed nextIndex;
// callers that already know the peer's nextIndex should prefer calling
// RegisterTaskForIndex. This default conservatively always prefers a
// snapshot when one exists and the caller didn't specify otherwise.
func (m *CatchUpManager) needsSnapshot(peer string, lastIncludedIndex uint64) bool {
	return true
}

// RegisterTaskForIndex is the entry point used when the leader already
// knows the target's nextIndex (dispatcher rejection path, spec.md
// 4.4(b)): picks LogCatchUp when nextIndex is still within the live
// log, SnapshotCatchUp when it has fallen behind the snapshot boundary.
func (m *CatchUpManager) RegisterTaskForIndex(ctx context.Context, peer string, term, nextIndex uint64) error {
	m.mu.Lock()
	if _, exists := m.tasks[peer]; exists {
		m.mu.Unlock()
		return fmt.Errorf("catch-up task already active for peer %s", peer)
	}

	lastIncludedIndex, _, _, hasSnapshot := m.sender.CurrentSnapshot()
	kind := LogCatchUp
	from := nextIndex
	if hasSnapshot && nextIndex <= lastIncludedIndex {
		kind = SnapshotCatchUp
		from = lastIncludedIndex + 1
	}

	task := newCatchUpTask(peer, kind, term, from)
	m.tasks[peer] = task
	m.mu.Unlock()

	if m.onStart != nil {
		m.onStart(peer, kind)
	}
	go m.run(ctx, task)
	return nil
}

func (m *CatchUpManager) run(ctx context.Context, task *CatchUpTask) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.finish(task, err)
		return
	}
	defer m.sem.Release(1)

	var err error
	switch task.Kind {
	case SnapshotCatchUp:
		err = m.runSnapshot(ctx, task)
	default:
		err = m.runLog(ctx, task)
	}
	m.finish(task, err)
}

func (m *CatchUpManager) runSnapshot(ctx context.Context, task *CatchUpTask) error {
	if task.aborted() {
		return fmt.Errorf("catch-up task for %s aborted", task.Peer)
	}

	// Re-check under the term-lock that this node is still leader of
	// the term that started the task before sending the (possibly
	// large) snapshot payload (spec.md 4.4).
	if !m.sender.StillLeader(task.Term) {
		return ErrLeaderUnknown
	}

	lastIncludedIndex, lastIncludedTerm, bytes, ok := m.sender.CurrentSnapshot()
	if !ok {
		return fmt.Errorf("no snapshot available for catch-up of peer %s", task.Peer)
	}

	sctx, cancel := context.WithTimeout(ctx, m.snapshotTimeout())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.sender.SendSnapshot(sctx, task.Peer, lastIncludedIndex, lastIncludedTerm, bytes)
	}()

	var sendErr error
	select {
	case sendErr = <-done:
	case <-sctx.Done():
		return fmt.Errorf("snapshot send to %s timed out: %w", task.Peer, sctx.Err())
	}
	if sendErr != nil {
		return fmt.Errorf("snapshot send to %s failed: %w", task.Peer, sendErr)
	}

	// Resume with a LogCatchUpTask for entries after the snapshot
	// boundary.
	task.From = lastIncludedIndex + 1
	return m.runLog(ctx, task)
}

func (m *CatchUpManager) runLog(ctx context.Context, task *CatchUpTask) error {
	if task.aborted() {
		return fmt.Errorf("catch-up task for %s aborted", task.Peer)
	}
	last := m.sender.LastLogIndex()
	if task.From > last {
		return nil
	}
	return m.sender.SendLogRange(ctx, task.Peer, task.From, last)
}

func (m *CatchUpManager) snapshotTimeout() time.Duration {
	if m.timeout <= 0 {
		return 20 * time.Second
	}
	return m.timeout
}

func (m *CatchUpManager) finish(task *CatchUpTask, err error) {
	task.finish(err)

	m.mu.Lock()
	delete(m.tasks, task.Peer)
	m.mu.Unlock()

	if m.onDone != nil {
		m.onDone(task.Peer, task.Kind, err)
	}
}

// Active reports whether a task is currently registered for peer.
func (m *CatchUpManager) Active(peer string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[peer]
	return ok
}

// Abort marks any in-flight task for peer as aborted; it will stop at
// its next checkpoint.
func (m *CatchUpManager) Abort(peer string) {
	m.mu.Lock()
	task, ok := m.tasks[peer]
	m.mu.Unlock()
	if ok {
		task.setAbort()
	}
}

// Wait blocks the caller until peer's active task (if any) completes or
// the manager's catch-up timeout elapses.
func (m *CatchUpManager) Wait(peer string) error {
	m.mu.Lock()
	task, ok := m.tasks[peer]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return task.awaitDone(m.snapshotTimeout())
}

var ErrLeaderUnknown = fmt.Errorf("replication: no longer leader of the catch-up task's term")
