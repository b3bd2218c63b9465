package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"raftengine/metrics"
	"raftengine/raft"
	"raftengine/server"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	id := flag.String("id", "", "this member's ID (required)")
	address := flag.String("address", "localhost:50051", "address to bind the consensus RPC server to")
	groupID := flag.String("group", "default", "replication group ID")
	peers := flag.String("peers", "", "comma-separated id=address pairs for the rest of the group, e.g. node2=localhost:50052,node3=localhost:50053")
	dataDir := flag.String("data", "./data", "directory for the log, snapshot, and LSM store")
	metricsAddr := flag.String("metrics-address", ":9090", "address to serve Prometheus metrics on")
	flag.Parse()

	if *id == "" {
		fmt.Fprintln(os.Stderr, "error: -id is required")
		os.Exit(1)
	}

	peerAddresses, err := parsePeers(*peers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg := raft.DefaultConfig(*id, *address, keys(peerAddresses), peerAddresses)
	cfg.GroupID = *groupID

	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: building logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	registry := metrics.NewRegistry(*id)
	go serveMetrics(*metricsAddr, registry, zapLogger)

	node, err := server.NewNode(cfg, *dataDir, zapLogger, registry)
	if err != nil {
		zapLogger.Fatal("building node failed", zap.Error(err))
	}

	if err := node.Start(); err != nil {
		zapLogger.Fatal("starting node failed", zap.Error(err))
	}
	zapLogger.Info("member started", zap.String("id", *id), zap.String("address", *address))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLogger.Info("shutting down")
	node.Stop()
}

func parsePeers(spec string) (map[string]string, error) {
	out := make(map[string]string)
	if spec == "" {
		return out, nil
	}
	for _, pair := range strings.Split(spec, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("malformed peer entry %q, want id=address", pair)
		}
		out[parts[0]] = parts[1]
	}
	return out, nil
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func serveMetrics(addr string, registry *metrics.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry.Gatherer(), promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}
