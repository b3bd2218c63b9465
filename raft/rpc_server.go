// raft/rpc_server.go
package raft

import (
	"context"
	"net"

	"raftengine/raftpb"

	"google.golang.org/grpc"
)

// RPCServer is the inbound transport lifecycle a Member drives.
type RPCServer interface {
	Start(address string) error
	Stop()
}

// GRPCRaftServer adapts the raftpb.RaftConsensusServer surface onto a
// Member, generalized from the teacher's 2-RPC GRPCRaftServer to the
// full 7-RPC surface of spec.md 6.
type GRPCRaftServer struct {
	raftpb.UnimplementedRaftConsensusServer
	member   *Member
	server   *grpc.Server
	listener net.Listener
}

func NewGRPCRaftServer(member *Member) *GRPCRaftServer {
	return &GRPCRaftServer{member: member}
}

func (s *GRPCRaftServer) Start(address string) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	s.listener = lis

	s.server = grpc.NewServer()
	raftpb.RegisterRaftConsensusServer(s.server, s)

	go func() {
		if err := s.server.Serve(lis); err != nil {
			s.member.logger.Error("grpc server stopped")
		}
	}()

	return nil
}

func (s *GRPCRaftServer) Stop() {
	if s.server != nil {
		s.server.GracefulStop()
	}
}

func (s *GRPCRaftServer) Heartbeat(ctx context.Context, req *raftpb.HeartBeatRequest) (*raftpb.HeartBeatResponse, error) {
	return s.member.processHeartbeatRequest(req), nil
}

func (s *GRPCRaftServer) StartElection(ctx context.Context, req *raftpb.ElectionRequest) (*raftpb.ElectionResponse, error) {
	code := s.member.processElectionRequest(req)
	return &raftpb.ElectionResponse{Code: code}, nil
}

func (s *GRPCRaftServer) AppendEntries(ctx context.Context, req *raftpb.AppendEntriesRequest) (*raftpb.AppendEntryResult, error) {
	return s.member.appendEntries(req), nil
}

func (s *GRPCRaftServer) SendSnapshot(ctx context.Context, req *raftpb.SendSnapshotRequest) (*raftpb.SendSnapshotResponse, error) {
	status := s.member.installSnapshot(req)
	return &raftpb.SendSnapshotResponse{Status: status}, nil
}

func (s *GRPCRaftServer) MatchTerm(ctx context.Context, req *raftpb.MatchTermRequest) (*raftpb.MatchTermResponse, error) {
	matched := s.member.matchLog(uint64(req.Index), uint64(req.Term))
	return &raftpb.MatchTermResponse{Matched: matched}, nil
}

func (s *GRPCRaftServer) ExecuteRequest(ctx context.Context, req *raftpb.ExecuteRequest) (*raftpb.ExecuteResponse, error) {
	return s.member.executeForwardedRequest(ctx, req), nil
}

func (s *GRPCRaftServer) RequestCommitIndex(ctx context.Context, req *raftpb.RequestCommitIndexRequest) (*raftpb.RequestCommitIndexResponse, error) {
	return s.member.requestCommitIndex(), nil
}
