package raftpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	RaftConsensus_Heartbeat_FullMethodName           = "/raftpb.RaftConsensus/Heartbeat"
	RaftConsensus_StartElection_FullMethodName       = "/raftpb.RaftConsensus/StartElection"
	RaftConsensus_AppendEntries_FullMethodName       = "/raftpb.RaftConsensus/AppendEntries"
	RaftConsensus_SendSnapshot_FullMethodName        = "/raftpb.RaftConsensus/SendSnapshot"
	RaftConsensus_MatchTerm_FullMethodName           = "/raftpb.RaftConsensus/MatchTerm"
	RaftConsensus_ExecuteRequest_FullMethodName      = "/raftpb.RaftConsensus/ExecuteRequest"
	RaftConsensus_RequestCommitIndex_FullMethodName  = "/raftpb.RaftConsensus/RequestCommitIndex"
)

// RaftConsensusClient is the client API for the consensus RPC surface of
// spec section 6.
type RaftConsensusClient interface {
	Heartbeat(ctx context.Context, in *HeartBeatRequest, opts ...grpc.CallOption) (*HeartBeatResponse, error)
	StartElection(ctx context.Context, in *ElectionRequest, opts ...grpc.CallOption) (*ElectionResponse, error)
	AppendEntries(ctx context.Context, in *AppendEntriesRequest, opts ...grpc.CallOption) (*AppendEntryResult, error)
	SendSnapshot(ctx context.Context, in *SendSnapshotRequest, opts ...grpc.CallOption) (*SendSnapshotResponse, error)
	MatchTerm(ctx context.Context, in *MatchTermRequest, opts ...grpc.CallOption) (*MatchTermResponse, error)
	ExecuteRequest(ctx context.Context, in *ExecuteRequest, opts ...grpc.CallOption) (*ExecuteResponse, error)
	RequestCommitIndex(ctx context.Context, in *RequestCommitIndexRequest, opts ...grpc.CallOption) (*RequestCommitIndexResponse, error)
}

type raftConsensusClient struct {
	cc grpc.ClientConnInterface
}

func NewRaftConsensusClient(cc grpc.ClientConnInterface) RaftConsensusClient {
	return &raftConsensusClient{cc}
}

func (c *raftConsensusClient) Heartbeat(ctx context.Context, in *HeartBeatRequest, opts ...grpc.CallOption) (*HeartBeatResponse, error) {
	out := new(HeartBeatResponse)
	if err := c.cc.Invoke(ctx, RaftConsensus_Heartbeat_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *raftConsensusClient) StartElection(ctx context.Context, in *ElectionRequest, opts ...grpc.CallOption) (*ElectionResponse, error) {
	out := new(ElectionResponse)
	if err := c.cc.Invoke(ctx, RaftConsensus_StartElection_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *raftConsensusClient) AppendEntries(ctx context.Context, in *AppendEntriesRequest, opts ...grpc.CallOption) (*AppendEntryResult, error) {
	out := new(AppendEntryResult)
	if err := c.cc.Invoke(ctx, RaftConsensus_AppendEntries_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *raftConsensusClient) SendSnapshot(ctx context.Context, in *SendSnapshotRequest, opts ...grpc.CallOption) (*SendSnapshotResponse, error) {
	out := new(SendSnapshotResponse)
	if err := c.cc.Invoke(ctx, RaftConsensus_SendSnapshot_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *raftConsensusClient) MatchTerm(ctx context.Context, in *MatchTermRequest, opts ...grpc.CallOption) (*MatchTermResponse, error) {
	out := new(MatchTermResponse)
	if err := c.cc.Invoke(ctx, RaftConsensus_MatchTerm_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *raftConsensusClient) ExecuteRequest(ctx context.Context, in *ExecuteRequest, opts ...grpc.CallOption) (*ExecuteResponse, error) {
	out := new(ExecuteResponse)
	if err := c.cc.Invoke(ctx, RaftConsensus_ExecuteRequest_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *raftConsensusClient) RequestCommitIndex(ctx context.Context, in *RequestCommitIndexRequest, opts ...grpc.CallOption) (*RequestCommitIndexResponse, error) {
	out := new(RequestCommitIndexResponse)
	if err := c.cc.Invoke(ctx, RaftConsensus_RequestCommitIndex_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RaftConsensusServer is the server API for the consensus RPC surface.
// All implementations must embed UnimplementedRaftConsensusServer.
type RaftConsensusServer interface {
	Heartbeat(context.Context, *HeartBeatRequest) (*HeartBeatResponse, error)
	StartElection(context.Context, *ElectionRequest) (*ElectionResponse, error)
	AppendEntries(context.Context, *AppendEntriesRequest) (*AppendEntryResult, error)
	SendSnapshot(context.Context, *SendSnapshotRequest) (*SendSnapshotResponse, error)
	MatchTerm(context.Context, *MatchTermRequest) (*MatchTermResponse, error)
	ExecuteRequest(context.Context, *ExecuteRequest) (*ExecuteResponse, error)
	RequestCommitIndex(context.Context, *RequestCommitIndexRequest) (*RequestCommitIndexResponse, error)
	mustEmbedUnimplementedRaftConsensusServer()
}

// UnimplementedRaftConsensusServer must be embedded to have forward
// compatible implementations.
type UnimplementedRaftConsensusServer struct{}

func (UnimplementedRaftConsensusServer) Heartbeat(context.Context, *HeartBeatRequest) (*HeartBeatResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Heartbeat not implemented")
}
func (UnimplementedRaftConsensusServer) StartElection(context.Context, *ElectionRequest) (*ElectionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StartElection not implemented")
}
func (UnimplementedRaftConsensusServer) AppendEntries(context.Context, *AppendEntriesRequest) (*AppendEntryResult, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AppendEntries not implemented")
}
func (UnimplementedRaftConsensusServer) SendSnapshot(context.Context, *SendSnapshotRequest) (*SendSnapshotResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SendSnapshot not implemented")
}
func (UnimplementedRaftConsensusServer) MatchTerm(context.Context, *MatchTermRequest) (*MatchTermResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method MatchTerm not implemented")
}
func (UnimplementedRaftConsensusServer) ExecuteRequest(context.Context, *ExecuteRequest) (*ExecuteResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ExecuteRequest not implemented")
}
func (UnimplementedRaftConsensusServer) RequestCommitIndex(context.Context, *RequestCommitIndexRequest) (*RequestCommitIndexResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RequestCommitIndex not implemented")
}
func (UnimplementedRaftConsensusServer) mustEmbedUnimplementedRaftConsensusServer() {}

// UnsafeRaftConsensusServer may be embedded to opt out of forward
// compatibility for this service.
type UnsafeRaftConsensusServer interface {
	mustEmbedUnimplementedRaftConsensusServer()
}

func RegisterRaftConsensusServer(s grpc.ServiceRegistrar, srv RaftConsensusServer) {
	s.RegisterService(&RaftConsensus_ServiceDesc, srv)
}

func _RaftConsensus_Heartbeat_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HeartBeatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftConsensusServer).Heartbeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RaftConsensus_Heartbeat_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftConsensusServer).Heartbeat(ctx, req.(*HeartBeatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RaftConsensus_StartElection_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ElectionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftConsensusServer).StartElection(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RaftConsensus_StartElection_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftConsensusServer).StartElection(ctx, req.(*ElectionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RaftConsensus_AppendEntries_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AppendEntriesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftConsensusServer).AppendEntries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RaftConsensus_AppendEntries_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftConsensusServer).AppendEntries(ctx, req.(*AppendEntriesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RaftConsensus_SendSnapshot_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SendSnapshotRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftConsensusServer).SendSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RaftConsensus_SendSnapshot_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftConsensusServer).SendSnapshot(ctx, req.(*SendSnapshotRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RaftConsensus_MatchTerm_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(MatchTermRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftConsensusServer).MatchTerm(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RaftConsensus_MatchTerm_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftConsensusServer).MatchTerm(ctx, req.(*MatchTermRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RaftConsensus_ExecuteRequest_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ExecuteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftConsensusServer).ExecuteRequest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RaftConsensus_ExecuteRequest_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftConsensusServer).ExecuteRequest(ctx, req.(*ExecuteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _RaftConsensus_RequestCommitIndex_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RequestCommitIndexRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftConsensusServer).RequestCommitIndex(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RaftConsensus_RequestCommitIndex_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftConsensusServer).RequestCommitIndex(ctx, req.(*RequestCommitIndexRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// RaftConsensus_ServiceDesc is the grpc.ServiceDesc for RaftConsensus.
var RaftConsensus_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "raftpb.RaftConsensus",
	HandlerType: (*RaftConsensusServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Heartbeat", Handler: _RaftConsensus_Heartbeat_Handler},
		{MethodName: "StartElection", Handler: _RaftConsensus_StartElection_Handler},
		{MethodName: "AppendEntries", Handler: _RaftConsensus_AppendEntries_Handler},
		{MethodName: "SendSnapshot", Handler: _RaftConsensus_SendSnapshot_Handler},
		{MethodName: "MatchTerm", Handler: _RaftConsensus_MatchTerm_Handler},
		{MethodName: "ExecuteRequest", Handler: _RaftConsensus_ExecuteRequest_Handler},
		{MethodName: "RequestCommitIndex", Handler: _RaftConsensus_RequestCommitIndex_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "raft.proto",
}
