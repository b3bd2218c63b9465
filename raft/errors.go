package raft

import "errors"

// Sentinel errors of the consensus core. Transport and protocol errors
// become counters and state transitions rather than returned errors.
// No function in the package currently returns these values:
// persistence failures are logged, and executeForwardedRequest reports
// its client-facing outcomes as raftpb status codes.
var (
	ErrNotLeader      = errors.New("raft: this node is not the leader")
	ErrUnknownLeader  = errors.New("raft: no leader known")
	ErrNodeNotInGroup = errors.New("raft: node is not a member of this group")
	ErrLogMismatch    = errors.New("raft: prevLogIndex/prevLogTerm do not match")
	ErrShuttingDown   = errors.New("raft: member is shutting down")
	ErrPersistFailed  = errors.New("raft: log persistence failed")
)
