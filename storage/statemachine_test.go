package storage

import (
	"bytes"
	"testing"

	"raftengine/raft"
)

func TestEncodeDecodeCommandRoundTrip(t *testing.T) {
	cmd := Command{Op: CommandPut, Key: "widgets/1", Value: []byte("blue")}
	decoded, err := DecodeCommand(EncodeCommand(cmd))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Op != cmd.Op || decoded.Key != cmd.Key || !bytes.Equal(decoded.Value, cmd.Value) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, cmd)
	}
}

func TestLSMStateMachineApplyPutAndDelete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	sm := NewLSMStateMachine(store)

	status, err := sm.Apply(EncodeCommand(Command{Op: CommandPut, Key: "k1", Value: []byte("v1")}))
	if err != nil || status != raft.ApplyOK {
		t.Fatalf("apply put failed: status=%v err=%v", status, err)
	}

	value, err := store.Get("k1")
	if err != nil || string(value) != "v1" {
		t.Fatalf("expected v1, got %q err=%v", value, err)
	}

	status, err = sm.Apply(EncodeCommand(Command{Op: CommandDelete, Key: "k1"}))
	if err != nil || status != raft.ApplyOK {
		t.Fatalf("apply delete failed: status=%v err=%v", status, err)
	}

	if _, err := store.Get("k1"); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}

	if got := store.LastAppliedSeq(); got != 2 {
		t.Fatalf("expected last applied seq 2 after one put and one delete, got %d", got)
	}
}

func TestLSMStateMachineApplyRejectsMalformedPayload(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	sm := NewLSMStateMachine(store)
	status, err := sm.Apply([]byte{0x00, 0xFF})
	if err == nil || status != raft.ApplyError {
		t.Fatalf("expected ApplyError for truncated payload, got status=%v err=%v", status, err)
	}
}

func TestLSMStateMachineSnapshotRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	sm := NewLSMStateMachine(store)
	for _, kv := range []struct{ k, v string }{{"a", "1"}, {"b", "2"}, {"c", "3"}} {
		if _, err := sm.Apply(EncodeCommand(Command{Op: CommandPut, Key: kv.k, Value: []byte(kv.v)})); err != nil {
			t.Fatalf("apply put %s failed: %v", kv.k, err)
		}
	}

	snap, err := sm.CreateSnapshot()
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	restoreStore, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore (restore target) failed: %v", err)
	}
	defer restoreStore.Close()

	restoreSM := NewLSMStateMachine(restoreStore)
	if err := restoreSM.RestoreSnapshot(snap); err != nil {
		t.Fatalf("RestoreSnapshot failed: %v", err)
	}

	for _, kv := range []struct{ k, v string }{{"a", "1"}, {"b", "2"}, {"c", "3"}} {
		value, err := restoreStore.Get(kv.k)
		if err != nil || string(value) != kv.v {
			t.Fatalf("restored key %s: got %q err=%v, want %q", kv.k, value, err, kv.v)
		}
	}
}

func TestStoreSnapshotExcludesTombstonedKeys(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Put("keep", []byte("yes"), 1); err != nil {
		t.Fatalf("put keep failed: %v", err)
	}
	if err := store.Put("gone", []byte("no"), 2); err != nil {
		t.Fatalf("put gone failed: %v", err)
	}
	if err := store.Delete("gone", 3); err != nil {
		t.Fatalf("delete gone failed: %v", err)
	}

	snap, err := store.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if _, ok := snap["gone"]; ok {
		t.Fatalf("tombstoned key %q leaked into snapshot", "gone")
	}
	if v, ok := snap["keep"]; !ok || string(v) != "yes" {
		t.Fatalf("expected keep=yes in snapshot, got %q ok=%v", v, ok)
	}
}

func TestStoreRecoversFromWAL(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Put("k1", []byte("v1"), 1); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Put("k2", []byte("v2"), 2); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Delete("k1", 3); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.Get("k1"); err != ErrKeyNotFound {
		t.Fatalf("expected k1 to stay deleted after recovery, got %v", err)
	}
	if v, err := reopened.Get("k2"); err != nil || string(v) != "v2" {
		t.Fatalf("expected k2=v2 after recovery, got %q err=%v", v, err)
	}
	if got := reopened.LastAppliedSeq(); got != 3 {
		t.Fatalf("expected recovered last applied seq 3, got %d", got)
	}
}
