// Package client is a thin demo client for the consensus RPC surface,
// used by cmd/client to submit Put/Delete commands and observe commit
// progress without embedding a full Member.
package client

import (
	"context"
	"fmt"
	"time"

	"raftengine/raftpb"
	"raftengine/storage"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ConsensusClient dials one member and drives ExecuteRequest/
// RequestCommitIndex against it; if that member isn't the leader it
// forwards (the member itself follows LeaderHint, see raft's
// executeForwardedRequest), so callers don't need to track leadership.
type ConsensusClient struct {
	conn   *grpc.ClientConn
	client raftpb.RaftConsensusClient
}

// NewConsensusClient dials serverAddr with a bounded connection timeout.
func NewConsensusClient(serverAddr string) (*ConsensusClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(ctx, serverAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to member: %w", err)
	}

	return &ConsensusClient{
		conn:   conn,
		client: raftpb.NewRaftConsensusClient(conn),
	}, nil
}

// Put submits a CommandPut entry and waits for it to commit.
func (c *ConsensusClient) Put(key string, value []byte) error {
	return c.execute(storage.EncodeCommand(storage.Command{Op: storage.CommandPut, Key: key, Value: value}))
}

// Delete submits a CommandDelete entry and waits for it to commit.
func (c *ConsensusClient) Delete(key string) error {
	return c.execute(storage.EncodeCommand(storage.Command{Op: storage.CommandDelete, Key: key}))
}

func (c *ConsensusClient) execute(payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := c.client.ExecuteRequest(ctx, &raftpb.ExecuteRequest{RequestBytes: payload})
	if err != nil {
		return fmt.Errorf("ExecuteRequest RPC failed: %w", err)
	}
	switch resp.Status {
	case raftpb.StatusOK:
		return nil
	case raftpb.StatusUnknownLeader:
		return fmt.Errorf("no leader known yet, try again shortly")
	case raftpb.StatusNotLeader:
		return fmt.Errorf("not leader, hint: %s", resp.LeaderHint)
	default:
		return fmt.Errorf("execute failed with status %d", resp.Status)
	}
}

// CommitIndex reports the dialed member's observed commit index and
// term without going through consensus (a plain read).
func (c *ConsensusClient) CommitIndex() (index, term uint64, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.client.RequestCommitIndex(ctx, &raftpb.RequestCommitIndexRequest{})
	if err != nil {
		return 0, 0, fmt.Errorf("RequestCommitIndex RPC failed: %w", err)
	}
	return uint64(resp.CommitIndex), uint64(resp.CommitTerm), nil
}

// Close closes the underlying connection.
func (c *ConsensusClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
