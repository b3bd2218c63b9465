// Package server composes a raft.Member with its demo state machine
// into one process: construction, storage wiring, and the Start/Stop
// lifecycle cmd/member drives. The consensus RPCs themselves are served
// directly by raft.GRPCRaftServer (registered inside raft.NewMember);
// this package's job is bootstrapping, not transport.
package server

import (
	"fmt"
	"time"

	"raftengine/metrics"
	"raftengine/raft"
	"raftengine/storage"

	"go.uber.org/zap"
)

// snapshotInterval is how often the snapshot ticker asks Member whether
// its log has grown past the threshold worth trimming.
const snapshotInterval = 30 * time.Second

// Node is one running replication-group member: its Raft engine, its
// demo state machine, and the ticker that keeps the two in step by
// periodically asking the engine to snapshot its log.
type Node struct {
	Member *raft.Member
	store  *storage.Store
	ticker *snapshotTicker
}

// NewNode builds a Node from cfg, wiring a durable FileLogManager and an
// LSMStateMachine rooted at dataDir unless cfg already carries overrides.
func NewNode(cfg *raft.Config, dataDir string, zapLogger *zap.Logger, mx *metrics.Registry) (*Node, error) {
	store, err := storage.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("server: opening store: %w", err)
	}

	if cfg.StateMachine == nil {
		cfg.StateMachine = storage.NewLSMStateMachine(store)
	}
	if cfg.LogManager == nil {
		lm, err := raft.NewFileLogManager(dataDir)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("server: opening log manager: %w", err)
		}
		cfg.LogManager = lm
	}

	logger := raft.NewLogger(cfg.ID, zapLogger)
	member := raft.NewMember(cfg, logger, mx)
	ticker := newSnapshotTicker(member, uint64(cfg.MaxNumOfLogsInMem), snapshotInterval)

	return &Node{Member: member, store: store, ticker: ticker}, nil
}

// Start begins serving consensus RPCs, the dispatcher, and the
// background snapshot ticker.
func (n *Node) Start() error {
	if err := n.Member.Start(); err != nil {
		return err
	}
	n.ticker.Start()
	return nil
}

// Stop shuts everything down in reverse order, flushing storage last so
// any snapshot taken during shutdown observes a closed, consistent WAL.
func (n *Node) Stop() {
	n.ticker.Stop()
	n.Member.Shutdown()
	n.store.Close()
}
