// raft/rpc_client.go
package raft

import (
	"context"
	"sync"
	"time"

	"raftengine/raftpb"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// RPCClient is the outbound RPC surface a Member needs against a peer,
// generalized from the teacher's 2-method RPCClient interface
// (RequestVote/AppendEntries) to the full 7-method surface of spec.md 6.
type RPCClient interface {
	Heartbeat(ctx context.Context, address string, req *raftpb.HeartBeatRequest) (*raftpb.HeartBeatResponse, error)
	StartElection(ctx context.Context, address string, req *raftpb.ElectionRequest) (*raftpb.ElectionResponse, error)
	AppendEntries(ctx context.Context, address string, req *raftpb.AppendEntriesRequest) (*raftpb.AppendEntryResult, error)
	SendSnapshot(ctx context.Context, address string, req *raftpb.SendSnapshotRequest) (*raftpb.SendSnapshotResponse, error)
	MatchTerm(ctx context.Context, address string, req *raftpb.MatchTermRequest) (*raftpb.MatchTermResponse, error)
	ExecuteRequest(ctx context.Context, address string, req *raftpb.ExecuteRequest) (*raftpb.ExecuteResponse, error)
	RequestCommitIndex(ctx context.Context, address string, req *raftpb.RequestCommitIndexRequest) (*raftpb.RequestCommitIndexResponse, error)
	Close() error
}

// GRPCRaftClient implements RPCClient over google.golang.org/grpc,
// keeping the teacher's lazily-created, address-keyed connection cache.
type GRPCRaftClient struct {
	mu          sync.Mutex
	connections map[string]*grpc.ClientConn
	timeout     time.Duration
}

func NewGRPCRaftClient() *GRPCRaftClient {
	return &GRPCRaftClient{
		connections: make(map[string]*grpc.ClientConn),
		timeout:     2 * time.Second,
	}
}

func (c *GRPCRaftClient) getConnection(address string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.connections[address]; ok {
		return conn, nil
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}

	c.connections[address] = conn
	return conn, nil
}

func (c *GRPCRaftClient) client(address string) (raftpb.RaftConsensusClient, error) {
	conn, err := c.getConnection(address)
	if err != nil {
		return nil, err
	}
	return raftpb.NewRaftConsensusClient(conn), nil
}

func (c *GRPCRaftClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *GRPCRaftClient) Heartbeat(ctx context.Context, address string, req *raftpb.HeartBeatRequest) (*raftpb.HeartBeatResponse, error) {
	cl, err := c.client(address)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return cl.Heartbeat(ctx, req)
}

func (c *GRPCRaftClient) StartElection(ctx context.Context, address string, req *raftpb.ElectionRequest) (*raftpb.ElectionResponse, error) {
	cl, err := c.client(address)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return cl.StartElection(ctx, req)
}

func (c *GRPCRaftClient) AppendEntries(ctx context.Context, address string, req *raftpb.AppendEntriesRequest) (*raftpb.AppendEntryResult, error) {
	cl, err := c.client(address)
	if err != nil {
		return nil, err
	}
	return cl.AppendEntries(ctx, req)
}

func (c *GRPCRaftClient) SendSnapshot(ctx context.Context, address string, req *raftpb.SendSnapshotRequest) (*raftpb.SendSnapshotResponse, error) {
	cl, err := c.client(address)
	if err != nil {
		return nil, err
	}
	return cl.SendSnapshot(ctx, req)
}

func (c *GRPCRaftClient) MatchTerm(ctx context.Context, address string, req *raftpb.MatchTermRequest) (*raftpb.MatchTermResponse, error) {
	cl, err := c.client(address)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return cl.MatchTerm(ctx, req)
}

func (c *GRPCRaftClient) ExecuteRequest(ctx context.Context, address string, req *raftpb.ExecuteRequest) (*raftpb.ExecuteResponse, error) {
	cl, err := c.client(address)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return cl.ExecuteRequest(ctx, req)
}

func (c *GRPCRaftClient) RequestCommitIndex(ctx context.Context, address string, req *raftpb.RequestCommitIndexRequest) (*raftpb.RequestCommitIndexResponse, error) {
	cl, err := c.client(address)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return cl.RequestCommitIndex(ctx, req)
}

// Close closes every cached connection.
func (c *GRPCRaftClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.connections {
		conn.Close()
	}
	return nil
}
