package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter_ReusesClientLimiter(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Requests: 2, Window: time.Minute})

	first := rl.limiterFor("10.0.0.1")
	require.True(t, first.Allow())
	require.True(t, first.Allow())
	require.False(t, first.Allow())

	require.Same(t, first, rl.limiterFor("10.0.0.1"))
	require.False(t, rl.limiterFor("10.0.0.1").Allow())
	require.NotSame(t, first, rl.limiterFor("10.0.0.2"))
}

func TestRateLimiter_SweepKeepsRecentClients(t *testing.T) {
	start := time.Now()
	now := start
	rl := newRateLimiter(RateLimitConfig{Requests: 2, Window: time.Minute})
	rl.now = func() time.Time { return now }
	rl.lastSweep = start

	idle := rl.limiterFor("idle")
	require.True(t, idle.Allow())

	now = start.Add(4 * time.Minute)
	recent := rl.limiterFor("recent")

	now = start.Add(6 * time.Minute)
	rl.limiterFor("trigger")

	rl.mu.Lock()
	_, idleKept := rl.clients["idle"]
	_, recentKept := rl.clients["recent"]
	rl.mu.Unlock()
	require.False(t, idleKept)
	require.True(t, recentKept)
	require.Same(t, recent, rl.limiterFor("recent"))
}
