package raft

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"raftengine/cluster"
	"raftengine/metrics"
	"raftengine/raftpb"
	"raftengine/replication"

	"go.uber.org/zap"
)

// dispatchItem pairs an Entry with the VotingLog tracking its quorum,
// the unit the dispatcher moves from offer() to the wire.
type dispatchItem struct {
	entry *Entry
	vl    *replication.VotingLog
}

// dispatchSink is the narrow slice of Member the dispatcher needs:
// reading term/role for safety decisions and triggering stepdown or
// catch-up, without the dispatcher owning the whole Member.
type dispatchSink interface {
	currentTermAndRole() (uint64, Role)
	stepDown(term uint64, leaderHint string)
	advanceCommit()
	maybeTriggerCatchUp(peerID string, term uint64, rejectedIndex, rejectedTerm uint64)
	groupID() string
	selfID() string
	termAt(index uint64) (uint64, bool)
	commitIndex() uint64
}

// peerQueue is the per-peer bounded producer/consumer queue of
// spec.md 4.3: a non-blocking offer, a drop counter, and a dedicated
// set of binding workers. The drop counter is logged and exported as a
// metric only; catch-up is not triggered by drops, but by a follower's
// LogMismatch reply or by repeated send failures.
type peerQueue struct {
	peer     *cluster.Peer
	ch       chan *dispatchItem
	dropped  atomic.Uint64
	failures atomic.Uint64
	limiter  *peerLimiter
}

// logDispatcher owns one peerQueue and one or more binding workers per
// enabled peer. New relative to the teacher, whose replicateLog is a
// one-line placeholder; built in the teacher's goroutine-per-concern
// idiom (one queue, N workers, non-blocking offer).
type logDispatcher struct {
	cfg    *Config
	sink   dispatchSink
	client RPCClient
	logger *Logger
	mx     *metrics.Registry

	mu      sync.RWMutex
	queues  map[string]*peerQueue
	workers []context.CancelFunc

	ordered bool // queueOrdered, fixed at construction per spec.md Design Note
}

func newLogDispatcher(cfg *Config, sink dispatchSink, client RPCClient, logger *Logger, mx *metrics.Registry) *logDispatcher {
	return &logDispatcher{
		cfg:     cfg,
		sink:    sink,
		client:  client,
		logger:  logger,
		mx:      mx,
		queues:  make(map[string]*peerQueue),
		ordered: cfg.queueOrdered(),
	}
}

// start spins up bindingThreadNum workers for every enabled peer. Must
// be called once, after peers are known.
func (d *logDispatcher) start(peers []*cluster.Peer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range peers {
		pq := &peerQueue{
			peer:    p,
			ch:      make(chan *dispatchItem, d.cfg.MaxNumOfLogsInMem),
			limiter: newPeerLimiter(d.cfg.RateLimitBytesPerSec),
		}
		d.queues[p.ID] = pq

		for i := 0; i < d.cfg.DispatcherBindingThreadNum; i++ {
			ctx, cancel := context.WithCancel(context.Background())
			d.workers = append(d.workers, cancel)
			go d.worker(ctx, pq)
		}
	}
}

// stop cancels every worker; outstanding queue items are simply
// abandoned (the shutdown-drain bound of spec.md 5 is honored by the
// worker's own select against ctx.Done() at every suspension point).
func (d *logDispatcher) stop() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, cancel := range d.workers {
		cancel()
	}
}

// offer enqueues vl for every enabled peer, dropping silently (never
// blocking the leader) when a peer's queue is full.
func (d *logDispatcher) offer(entry *Entry, vl *replication.VotingLog) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	item := &dispatchItem{entry: entry, vl: vl}
	for _, pq := range d.queues {
		if !pq.peer.Enabled {
			continue
		}
		select {
		case pq.ch <- item:
		default:
			n := pq.dropped.Add(1)
			d.logger.LogQueueDrop(pq.peer.ID, n)
			if d.mx != nil {
				d.mx.QueueDropsTotal.WithLabelValues(pq.peer.ID).Inc()
			}
		}
	}
}

// worker is one binding thread for one peer's queue: blocking take,
// opportunistic non-blocking drain, optional sort, frame-size
// chunking, rate-limited async send, fan-out ack handling.
func (d *logDispatcher) worker(ctx context.Context, pq *peerQueue) {
	for {
		var first *dispatchItem
		select {
		case <-ctx.Done():
			return
		case first = <-pq.ch:
		}

		batch := []*dispatchItem{first}
	drain:
		for len(batch) < d.cfg.MaxBatchSize {
			select {
			case item := <-pq.ch:
				batch = append(batch, item)
			default:
				break drain
			}
		}

		if !d.ordered {
			sort.Slice(batch, func(i, j int) bool { return batch[i].entry.Index < batch[j].entry.Index })
		}

		for _, chunk := range chunkDispatchItems(batch, d.cfg.ThriftMaxFrameSize) {
			d.sendChunk(ctx, pq, chunk)
		}
	}
}

// chunkDispatchItems mirrors util.go's chunkEntries but keeps each
// item's VotingLog alongside its Entry through the split.
func chunkDispatchItems(items []*dispatchItem, maxBytes int) [][]*dispatchItem {
	if len(items) == 0 {
		return nil
	}
	if maxBytes <= 0 {
		return [][]*dispatchItem{items}
	}

	var chunks [][]*dispatchItem
	start := 0
	size := 0
	for i, it := range items {
		s := it.entry.Size()
		if size > 0 && size+s > maxBytes {
			chunks = append(chunks, items[start:i])
			start = i
			size = 0
		}
		size += s
	}
	chunks = append(chunks, items[start:])
	return chunks
}

func (d *logDispatcher) sendChunk(ctx context.Context, pq *peerQueue, chunk []*dispatchItem) {
	term, role := d.sink.currentTermAndRole()
	if role != Leader {
		return
	}

	first := chunk[0].entry
	prevLogIndex := first.Index - 1
	prevLogTerm, _ := d.sink.termAt(prevLogIndex)

	entriesBytes := make([][]byte, len(chunk))
	logSize := 0
	for i, it := range chunk {
		entriesBytes[i] = it.entry.Payload
		logSize += it.entry.Size()
	}

	if d.mx != nil {
		d.mx.DispatchBytesTotal.WithLabelValues(pq.peer.ID).Add(float64(logSize))
	}

	if err := pq.limiter.acquire(ctx, max64(logSize, 1)); err != nil {
		return
	}

	req := &raftpb.AppendEntriesRequest{
		GroupId:      d.sink.groupID(),
		Term:         int64(term),
		Leader:       d.sink.selfID(),
		LeaderCommit: int64(d.sink.commitIndex()),
		PrevLogIndex: int64(prevLogIndex),
		PrevLogTerm:  int64(prevLogTerm),
		Entries:      entriesBytes,
	}

	start := time.Now()
	resp, err := d.client.AppendEntries(ctx, pq.peer.Address, req)
	elapsed := time.Since(start)
	if d.mx != nil {
		d.mx.AppendEntriesLatency.Observe(elapsed.Seconds())
	}

	if err != nil {
		n := pq.failures.Add(1)
		d.logger.Warn("append entries send failed", zap.String("peer", pq.peer.ID), zap.Error(err), zap.Uint64("failures", n))
		if n >= catchUpFailureThreshold {
			d.sink.maybeTriggerCatchUp(pq.peer.ID, term, 0, 0)
		}
		return
	}
	pq.failures.Store(0)
	pq.peer.Observe(logSize, elapsed)
	pq.limiter.update(pq.peer.SendRateEWMA())

	d.handleAppendResult(pq, chunk, term, resp)
}

// catchUpFailureThreshold is the number of consecutive AppendEntries
// failures to one peer before the dispatcher asks the catch-up manager
// to take over (spec.md 4.4(a): "repeated AppendEntries rejections").
const catchUpFailureThreshold = 3

func (d *logDispatcher) handleAppendResult(pq *peerQueue, chunk []*dispatchItem, term uint64, resp *raftpb.AppendEntryResult) {
	if uint64(resp.Term) > term {
		d.sink.stepDown(uint64(resp.Term), resp.Receiver)
		return
	}

	switch resp.Status {
	case raftpb.AppendStatusOK:
		for _, it := range chunk {
			if it.vl == nil {
				continue
			}
			it.vl.Ack(pq.peer.ID)
		}
		d.sink.advanceCommit()
	case raftpb.AppendStatusLogMismatch:
		d.sink.maybeTriggerCatchUp(pq.peer.ID, term, uint64(resp.ConflictIndex), uint64(resp.ConflictTerm))
	case raftpb.AppendStatusNotInGroup:
		d.mu.Lock()
		if pq.peer != nil {
			pq.peer.Enabled = false
		}
		d.mu.Unlock()
	case raftpb.AppendStatusStale:
		// Peer is behind on term but not on log; next heartbeat will
		// carry the current term and bring it forward.
	}
}

func max64(a, b int) int {
	if a > b {
		return a
	}
	return b
}
