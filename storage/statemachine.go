package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"raftengine/raft"
)

// CommandOp identifies the operation encoded in a committed log entry's
// payload, the wire format ExecuteRequest's caller and LSMStateMachine
// agree on.
type CommandOp byte

const (
	CommandPut CommandOp = iota
	CommandDelete
)

// Command is one client operation as it travels through the replicated
// log: Apply only ever sees the encoded form, never this struct.
type Command struct {
	Op    CommandOp
	Key   string
	Value []byte
}

// EncodeCommand serializes c as op(1) + keyLen(4) + key + valueLen(4) +
// value, mirroring wal.go's length-prefixed record framing.
func EncodeCommand(c Command) []byte {
	buf := make([]byte, 0, 1+4+len(c.Key)+4+len(c.Value))
	buf = append(buf, byte(c.Op))

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(c.Key)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, c.Key...)

	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(c.Value)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, c.Value...)

	return buf
}

// DecodeCommand is EncodeCommand's inverse.
func DecodeCommand(payload []byte) (Command, error) {
	r := bytes.NewReader(payload)

	opByte, err := r.ReadByte()
	if err != nil {
		return Command{}, fmt.Errorf("statemachine: truncated command: %w", err)
	}

	var keyLen uint32
	if err := binary.Read(r, binary.LittleEndian, &keyLen); err != nil {
		return Command{}, fmt.Errorf("statemachine: reading key length: %w", err)
	}
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return Command{}, fmt.Errorf("statemachine: reading key: %w", err)
	}

	var valueLen uint32
	if err := binary.Read(r, binary.LittleEndian, &valueLen); err != nil {
		return Command{}, fmt.Errorf("statemachine: reading value length: %w", err)
	}
	value := make([]byte, valueLen)
	if _, err := io.ReadFull(r, value); err != nil {
		return Command{}, fmt.Errorf("statemachine: reading value: %w", err)
	}

	return Command{Op: CommandOp(opByte), Key: string(key), Value: value}, nil
}

// LSMStateMachine adapts Store to raft.StateMachine: Apply decodes one
// Command per committed entry, CreateSnapshot/RestoreSnapshot move the
// whole keyspace across the wire as a single blob so a lagging follower
// can catch up without replaying its entire log.
//
// appliedSeq is bumped for every payload that decodes, including one
// whose op is unknown or whose store write fails; it tags every WAL/MemTable
// record with the order the consensus core committed it in, standing
// in for the teacher's wall-clock timestamp (which this domain has no
// use for - apply order, not time of day, is what replay needs).
type LSMStateMachine struct {
	store      *Store
	appliedSeq uint64
}

// NewLSMStateMachine wraps an already-opened store.
func NewLSMStateMachine(store *Store) *LSMStateMachine {
	return &LSMStateMachine{store: store, appliedSeq: store.LastAppliedSeq()}
}

func (sm *LSMStateMachine) Apply(payload []byte) (raft.ApplyStatus, error) {
	cmd, err := DecodeCommand(payload)
	if err != nil {
		return raft.ApplyError, err
	}

	seq := atomic.AddUint64(&sm.appliedSeq, 1)

	switch cmd.Op {
	case CommandPut:
		if err := sm.store.Put(cmd.Key, cmd.Value, seq); err != nil {
			return raft.ApplyError, err
		}
	case CommandDelete:
		if err := sm.store.Delete(cmd.Key, seq); err != nil {
			return raft.ApplyError, err
		}
	default:
		return raft.ApplyError, fmt.Errorf("statemachine: unknown command op %d", cmd.Op)
	}
	return raft.ApplyOK, nil
}

// CreateSnapshot serializes the live keyspace as entryCount(4) followed
// by keyLen(4)+key+valueLen(4)+value per entry, the same framing idiom
// EncodeCommand uses for a single entry.
func (sm *LSMStateMachine) CreateSnapshot() ([]byte, error) {
	data, err := sm.store.Snapshot()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(data)))
	buf.Write(countBuf[:])

	var lenBuf [4]byte
	for k, v := range data {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(k)))
		buf.Write(lenBuf[:])
		buf.WriteString(k)

		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(v)))
		buf.Write(lenBuf[:])
		buf.Write(v)
	}

	return buf.Bytes(), nil
}

func (sm *LSMStateMachine) RestoreSnapshot(snapshot []byte) error {
	r := bytes.NewReader(snapshot)

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("statemachine: reading snapshot entry count: %w", err)
	}

	data := make(map[string][]byte, count)
	for i := uint32(0); i < count; i++ {
		var keyLen uint32
		if err := binary.Read(r, binary.LittleEndian, &keyLen); err != nil {
			return fmt.Errorf("statemachine: reading snapshot key length: %w", err)
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(r, key); err != nil {
			return fmt.Errorf("statemachine: reading snapshot key: %w", err)
		}

		var valueLen uint32
		if err := binary.Read(r, binary.LittleEndian, &valueLen); err != nil {
			return fmt.Errorf("statemachine: reading snapshot value length: %w", err)
		}
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(r, value); err != nil {
			return fmt.Errorf("statemachine: reading snapshot value: %w", err)
		}

		data[string(key)] = value
	}

	seq := atomic.LoadUint64(&sm.appliedSeq)
	return sm.store.LoadSnapshot(data, seq)
}
