package server

import (
	"log"
	"sync"
	"time"

	"raftengine/raft"
)

// snapshotTicker periodically asks a Member to snapshot its log once it
// grows past a threshold. Grounded on the teacher's compaction loop
// (stopCh + WaitGroup + time.Ticker): instead of polling an SSTable
// count to decide whether to merge files, it polls nothing itself -
// Member.MaybeSnapshot already checks its own log length against the
// threshold and is a no-op when there's nothing to do.
type snapshotTicker struct {
	member   *raft.Member
	interval time.Duration
	threshold uint64

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func newSnapshotTicker(member *raft.Member, threshold uint64, interval time.Duration) *snapshotTicker {
	return &snapshotTicker{member: member, threshold: threshold, interval: interval}
}

func (t *snapshotTicker) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.stopCh = make(chan struct{})
	t.mu.Unlock()

	t.wg.Add(1)
	go t.loop()
}

func (t *snapshotTicker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	stopCh := t.stopCh
	t.mu.Unlock()

	close(stopCh)
	t.wg.Wait()
}

func (t *snapshotTicker) loop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			if err := t.member.MaybeSnapshot(t.threshold); err != nil {
				log.Printf("snapshot ticker: %v", err)
			}
		}
	}
}
