package raft

import "time"

// Config holds every tunable enumerated in spec section 6, following the
// shape of the teacher's raft.Config (ID/Peers/ElectionTimeout/
// HeartbeatTimeout/StateMachine) generalized to the full dispatcher and
// catch-up surface.
type Config struct {
	ID            string
	GroupID       string
	Peers         []string
	PeerAddresses map[string]string
	Address       string

	ElectionTimeoutRangeMS int // base election timeout, randomized up to +150ms
	HeartbeatIntervalMS    int

	// MaxNumOfLogsInMem is the per-peer dispatcher queue capacity.
	MaxNumOfLogsInMem int
	// DispatcherBindingThreadNum is the number of workers bound to each
	// peer's queue.
	DispatcherBindingThreadNum int
	// MaxBatchSize is the maximum number of entries opportunistically
	// drained into one batch.
	MaxBatchSize int
	// ThriftMaxFrameSize bounds one AppendEntries request's total
	// entry payload size (name kept from spec section 6's own
	// vocabulary even though the transport here is gRPC, not thrift).
	ThriftMaxFrameSize int

	// CatchUpTimeoutMS bounds how long a SnapshotCatchUpTask waits for
	// completion before declaring failure.
	CatchUpTimeoutMS int

	// UseFollowerSlidingWindow and EnableWeakAcceptance together
	// determine queueOrdered (spec section 4.3, Design Note section 9:
	// computed once at construction and immutable thereafter).
	UseFollowerSlidingWindow bool
	EnableWeakAcceptance     bool

	// RateLimitBytesPerSec seeds each peer's token bucket before the
	// dispatcher's first post-send measurement re-targets it.
	RateLimitBytesPerSec int

	StateMachine StateMachine
	LogManager   LogManager
}

func (c *Config) electionTimeout() time.Duration {
	return time.Duration(c.ElectionTimeoutRangeMS) * time.Millisecond
}

func (c *Config) heartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalMS) * time.Millisecond
}

func (c *Config) catchUpTimeout() time.Duration {
	return time.Duration(c.CatchUpTimeoutMS) * time.Millisecond
}

// queueOrdered is immutable per member lifetime (Design Note, spec
// section 9): true when the dispatcher guarantees FIFO delivery and the
// worker therefore need not sort a drained batch by index.
func (c *Config) queueOrdered() bool {
	return !(c.UseFollowerSlidingWindow && c.EnableWeakAcceptance)
}

// DefaultConfig returns sane defaults for every field, following the
// teacher's 150-300ms election / 50ms heartbeat convention.
func DefaultConfig(id, address string, peers []string, peerAddresses map[string]string) *Config {
	return &Config{
		ID:                         id,
		GroupID:                    "default",
		Peers:                      peers,
		PeerAddresses:              peerAddresses,
		Address:                    address,
		ElectionTimeoutRangeMS:     150,
		HeartbeatIntervalMS:        50,
		MaxNumOfLogsInMem:          1000,
		DispatcherBindingThreadNum: 1,
		MaxBatchSize:               10,
		ThriftMaxFrameSize:         8 * 1024 * 1024,
		CatchUpTimeoutMS:           20_000,
		UseFollowerSlidingWindow:   false,
		EnableWeakAcceptance:       false,
		RateLimitBytesPerSec:       10 * 1024 * 1024,
	}
}
