// Package raftpb holds the wire messages for the RaftConsensus service.
//
// Message field ordering mirrors spec section 6 exactly, since it is
// definitional for wire compatibility. These types satisfy the legacy
// proto.Message interface (Reset/String/ProtoMessage) rather than
// embedding protoimpl.MessageState; google.golang.org/protobuf's
// legacy-message bridge (protoadapt.MessageV2Of) wraps any such type
// using its struct tags, which is what both google.golang.org/grpc's
// proto codec and proto.Marshal/Unmarshal use under the hood.
package raftpb

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// Reserved sentinel values for ElectionResponse.Code. Any non-negative
// value is a term. These exact values must be preserved across
// implementations (spec section 6).
const (
	ResponseAgree             int64 = -1
	ResponseLeaderStillOnline int64 = -2
	ResponseNodeNotInGroup    int64 = -3
)

// AppendEntryResult.Status values.
const (
	AppendStatusOK          int32 = 0
	AppendStatusStale       int32 = 1
	AppendStatusLogMismatch int32 = 2
	AppendStatusNotInGroup  int32 = 3
)

// ExecuteResponse.Status / RequestCommitIndexResponse.Status values.
const (
	StatusOK             int32 = 0
	StatusNotLeader      int32 = 1
	StatusUnknownLeader  int32 = 2
	StatusInternalError  int32 = 3
)

type HeartBeatRequest struct {
	Term                 int64  `protobuf:"varint,1,opt,name=term,proto3" json:"term,omitempty"`
	CommitLogIndex       int64  `protobuf:"varint,2,opt,name=commit_log_index,json=commitLogIndex,proto3" json:"commit_log_index,omitempty"`
	CommitLogTerm        int64  `protobuf:"varint,3,opt,name=commit_log_term,json=commitLogTerm,proto3" json:"commit_log_term,omitempty"`
	Leader               string `protobuf:"bytes,4,opt,name=leader,proto3" json:"leader,omitempty"`
	GroupId              string `protobuf:"bytes,5,opt,name=group_id,json=groupId,proto3" json:"group_id,omitempty"`
	RequireIdentifier     bool  `protobuf:"varint,6,opt,name=require_identifier,json=requireIdentifier,proto3" json:"require_identifier,omitempty"`
	RegenerateIdentifier  bool  `protobuf:"varint,7,opt,name=regenerate_identifier,json=regenerateIdentifier,proto3" json:"regenerate_identifier,omitempty"`
}

func (m *HeartBeatRequest) Reset()         { *m = HeartBeatRequest{} }
func (m *HeartBeatRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*HeartBeatRequest) ProtoMessage()    {}

type HeartBeatResponse struct {
	Term                  int64 `protobuf:"varint,1,opt,name=term,proto3" json:"term,omitempty"`
	FollowerIdentifier    int64 `protobuf:"varint,2,opt,name=follower_identifier,json=followerIdentifier,proto3" json:"follower_identifier,omitempty"`
	RequirePartitionTable bool  `protobuf:"varint,3,opt,name=require_partition_table,json=requirePartitionTable,proto3" json:"require_partition_table,omitempty"`
	LastLogIndex          int64 `protobuf:"varint,4,opt,name=last_log_index,json=lastLogIndex,proto3" json:"last_log_index,omitempty"`
	LastLogTerm           int64 `protobuf:"varint,5,opt,name=last_log_term,json=lastLogTerm,proto3" json:"last_log_term,omitempty"`
}

func (m *HeartBeatResponse) Reset()         { *m = HeartBeatResponse{} }
func (m *HeartBeatResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*HeartBeatResponse) ProtoMessage()    {}

type ElectionRequest struct {
	Term         int64  `protobuf:"varint,1,opt,name=term,proto3" json:"term,omitempty"`
	GroupId      string `protobuf:"bytes,2,opt,name=group_id,json=groupId,proto3" json:"group_id,omitempty"`
	Elector      string `protobuf:"bytes,3,opt,name=elector,proto3" json:"elector,omitempty"`
	LastLogIndex int64  `protobuf:"varint,4,opt,name=last_log_index,json=lastLogIndex,proto3" json:"last_log_index,omitempty"`
	LastLogTerm  int64  `protobuf:"varint,5,opt,name=last_log_term,json=lastLogTerm,proto3" json:"last_log_term,omitempty"`
}

func (m *ElectionRequest) Reset()         { *m = ElectionRequest{} }
func (m *ElectionRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*ElectionRequest) ProtoMessage()    {}

// ElectionResponse.Code is either one of the Response* sentinels above or
// a non-negative term value.
type ElectionResponse struct {
	Code int64 `protobuf:"varint,1,opt,name=code,proto3" json:"code,omitempty"`
}

func (m *ElectionResponse) Reset()         { *m = ElectionResponse{} }
func (m *ElectionResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*ElectionResponse) ProtoMessage()    {}

type AppendEntriesRequest struct {
	GroupId      string   `protobuf:"bytes,1,opt,name=group_id,json=groupId,proto3" json:"group_id,omitempty"`
	Term         int64    `protobuf:"varint,2,opt,name=term,proto3" json:"term,omitempty"`
	Leader       string   `protobuf:"bytes,3,opt,name=leader,proto3" json:"leader,omitempty"`
	LeaderCommit int64    `protobuf:"varint,4,opt,name=leader_commit,json=leaderCommit,proto3" json:"leader_commit,omitempty"`
	PrevLogIndex int64    `protobuf:"varint,5,opt,name=prev_log_index,json=prevLogIndex,proto3" json:"prev_log_index,omitempty"`
	PrevLogTerm  int64    `protobuf:"varint,6,opt,name=prev_log_term,json=prevLogTerm,proto3" json:"prev_log_term,omitempty"`
	Entries      [][]byte `protobuf:"bytes,7,rep,name=entries,proto3" json:"entries,omitempty"`
}

func (m *AppendEntriesRequest) Reset()         { *m = AppendEntriesRequest{} }
func (m *AppendEntriesRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*AppendEntriesRequest) ProtoMessage()    {}

type AppendEntryResult struct {
	Status        int32  `protobuf:"varint,1,opt,name=status,proto3" json:"status,omitempty"`
	Term          int64  `protobuf:"varint,2,opt,name=term,proto3" json:"term,omitempty"`
	LastLogIndex  int64  `protobuf:"varint,3,opt,name=last_log_index,json=lastLogIndex,proto3" json:"last_log_index,omitempty"`
	LastLogTerm   int64  `protobuf:"varint,4,opt,name=last_log_term,json=lastLogTerm,proto3" json:"last_log_term,omitempty"`
	Receiver      string `protobuf:"bytes,5,opt,name=receiver,proto3" json:"receiver,omitempty"`
	ConflictTerm  int64  `protobuf:"varint,6,opt,name=conflict_term,json=conflictTerm,proto3" json:"conflict_term,omitempty"`
	ConflictIndex int64  `protobuf:"varint,7,opt,name=conflict_index,json=conflictIndex,proto3" json:"conflict_index,omitempty"`
}

func (m *AppendEntryResult) Reset()         { *m = AppendEntryResult{} }
func (m *AppendEntryResult) String() string { return fmt.Sprintf("%+v", *m) }
func (*AppendEntryResult) ProtoMessage()    {}

type SendSnapshotRequest struct {
	GroupId           string `protobuf:"bytes,1,opt,name=group_id,json=groupId,proto3" json:"group_id,omitempty"`
	SnapshotBytes     []byte `protobuf:"bytes,2,opt,name=snapshot_bytes,json=snapshotBytes,proto3" json:"snapshot_bytes,omitempty"`
	LastIncludedIndex int64  `protobuf:"varint,3,opt,name=last_included_index,json=lastIncludedIndex,proto3" json:"last_included_index,omitempty"`
	LastIncludedTerm  int64  `protobuf:"varint,4,opt,name=last_included_term,json=lastIncludedTerm,proto3" json:"last_included_term,omitempty"`
}

func (m *SendSnapshotRequest) Reset()         { *m = SendSnapshotRequest{} }
func (m *SendSnapshotRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*SendSnapshotRequest) ProtoMessage()    {}

type SendSnapshotResponse struct {
	Status int32 `protobuf:"varint,1,opt,name=status,proto3" json:"status,omitempty"`
}

func (m *SendSnapshotResponse) Reset()         { *m = SendSnapshotResponse{} }
func (m *SendSnapshotResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*SendSnapshotResponse) ProtoMessage()    {}

type MatchTermRequest struct {
	Index   int64  `protobuf:"varint,1,opt,name=index,proto3" json:"index,omitempty"`
	Term    int64  `protobuf:"varint,2,opt,name=term,proto3" json:"term,omitempty"`
	GroupId string `protobuf:"bytes,3,opt,name=group_id,json=groupId,proto3" json:"group_id,omitempty"`
}

func (m *MatchTermRequest) Reset()         { *m = MatchTermRequest{} }
func (m *MatchTermRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*MatchTermRequest) ProtoMessage()    {}

type MatchTermResponse struct {
	Matched bool `protobuf:"varint,1,opt,name=matched,proto3" json:"matched,omitempty"`
}

func (m *MatchTermResponse) Reset()         { *m = MatchTermResponse{} }
func (m *MatchTermResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*MatchTermResponse) ProtoMessage()    {}

type ExecuteRequest struct {
	GroupId      string `protobuf:"bytes,1,opt,name=group_id,json=groupId,proto3" json:"group_id,omitempty"`
	RequestBytes []byte `protobuf:"bytes,2,opt,name=request_bytes,json=requestBytes,proto3" json:"request_bytes,omitempty"`
}

func (m *ExecuteRequest) Reset()         { *m = ExecuteRequest{} }
func (m *ExecuteRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*ExecuteRequest) ProtoMessage()    {}

type ExecuteResponse struct {
	Status      int32  `protobuf:"varint,1,opt,name=status,proto3" json:"status,omitempty"`
	ResultBytes []byte `protobuf:"bytes,2,opt,name=result_bytes,json=resultBytes,proto3" json:"result_bytes,omitempty"`
	LeaderHint  string `protobuf:"bytes,3,opt,name=leader_hint,json=leaderHint,proto3" json:"leader_hint,omitempty"`
}

func (m *ExecuteResponse) Reset()         { *m = ExecuteResponse{} }
func (m *ExecuteResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*ExecuteResponse) ProtoMessage()    {}

type RequestCommitIndexRequest struct {
	GroupId string `protobuf:"bytes,1,opt,name=group_id,json=groupId,proto3" json:"group_id,omitempty"`
}

func (m *RequestCommitIndexRequest) Reset()         { *m = RequestCommitIndexRequest{} }
func (m *RequestCommitIndexRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*RequestCommitIndexRequest) ProtoMessage()    {}

type RequestCommitIndexResponse struct {
	Status      int32 `protobuf:"varint,1,opt,name=status,proto3" json:"status,omitempty"`
	CommitIndex int64 `protobuf:"varint,2,opt,name=commit_index,json=commitIndex,proto3" json:"commit_index,omitempty"`
	CommitTerm  int64 `protobuf:"varint,3,opt,name=commit_term,json=commitTerm,proto3" json:"commit_term,omitempty"`
}

func (m *RequestCommitIndexResponse) Reset()         { *m = RequestCommitIndexResponse{} }
func (m *RequestCommitIndexResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*RequestCommitIndexResponse) ProtoMessage()    {}

// compile-time assertion that every message satisfies the legacy
// proto.Message interface that the grpc codec adapts from.
var (
	_ proto.Message = (*HeartBeatRequest)(nil)
	_ proto.Message = (*HeartBeatResponse)(nil)
	_ proto.Message = (*ElectionRequest)(nil)
	_ proto.Message = (*ElectionResponse)(nil)
	_ proto.Message = (*AppendEntriesRequest)(nil)
	_ proto.Message = (*AppendEntryResult)(nil)
	_ proto.Message = (*SendSnapshotRequest)(nil)
	_ proto.Message = (*SendSnapshotResponse)(nil)
	_ proto.Message = (*MatchTermRequest)(nil)
	_ proto.Message = (*MatchTermResponse)(nil)
	_ proto.Message = (*ExecuteRequest)(nil)
	_ proto.Message = (*ExecuteResponse)(nil)
	_ proto.Message = (*RequestCommitIndexRequest)(nil)
	_ proto.Message = (*RequestCommitIndexResponse)(nil)
)
