package server

import (
	"os"
	"testing"
	"time"

	"raftengine/metrics"
	"raftengine/raft"

	"go.uber.org/zap"
)

func TestNodeSingleMemberElectsItselfLeader(t *testing.T) {
	cfg := raft.DefaultConfig("node1", "localhost:0", nil, nil)
	cfg.ElectionTimeoutRangeMS = 30
	cfg.HeartbeatIntervalMS = 10

	node, err := NewNode(cfg, t.TempDir(), zap.NewNop(), metrics.NewRegistry("node1"))
	if err != nil {
		t.Fatalf("NewNode failed: %v", err)
	}
	defer node.Stop()

	if err := node.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, isLeader := node.Member.GetState(); isLeader {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("single-member node never became leader")
}

func TestNewNodeRejectsBadDataDir(t *testing.T) {
	cfg := raft.DefaultConfig("node1", "localhost:0", nil, nil)
	// A file (not a directory) as the data dir should fail store/log-manager setup.
	badDir := t.TempDir() + "/not-a-directory-marker"
	if err := os.WriteFile(badDir, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if _, err := NewNode(cfg, badDir+"/nested", zap.NewNop(), metrics.NewRegistry("node1")); err == nil {
		t.Fatal("expected NewNode to fail when the data directory cannot be created")
	}
}
