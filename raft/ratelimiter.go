package raft

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// peerLimiter wraps a golang.org/x/time/rate.Limiter seeded from
// Config.RateLimitBytesPerSec and re-targeted by update as the peer's
// measured throughput (cluster.Peer.SendRateEWMA) changes. This is the
// token-bucket of spec.md 4.3 ("Per-peer token-bucket keyed by measured
// moving-average throughput"); no pack repo imports golang.org/x/time/rate
// directly, so this is the ecosystem-standard choice rather than a
// grounded-in-a-file one (see DESIGN.md).
type peerLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	burst   int
}

func newPeerLimiter(bytesPerSec int) *peerLimiter {
	if bytesPerSec <= 0 {
		bytesPerSec = 1
	}
	return &peerLimiter{
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec),
		burst:   bytesPerSec,
	}
}

// acquire blocks until n bytes' worth of permits are available or ctx
// is done. n may exceed the bucket's burst size; in that case the
// limiter's burst is grown to admit it rather than deadlocking forever
// on a single oversized chunk.
func (pl *peerLimiter) acquire(ctx context.Context, n int) error {
	pl.mu.Lock()
	if n > pl.burst {
		pl.burst = n
		pl.limiter.SetBurst(n)
	}
	limiter := pl.limiter
	pl.mu.Unlock()

	return limiter.WaitN(ctx, n)
}

// update re-targets the limiter's steady-state rate from a freshly
// measured bytes/sec figure. The dispatcher calls this after every
// successful send, right after it records the same measurement on
// cluster.Peer.SendRateEWMA, so the bucket tracks a peer's observed
// throughput instead of staying pinned at its construction-time seed.
func (pl *peerLimiter) update(bytesPerSec float64) {
	if bytesPerSec <= 0 {
		return
	}
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.limiter.SetLimit(rate.Limit(bytesPerSec))
}
