package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimitConfig allows Requests per Window per client, with Burst tokens up front.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Enabled reports whether the config describes a usable limit.
func (c RateLimitConfig) Enabled() bool {
	return c.Requests > 0 && c.Window > 0
}

const limiterSweepInterval = 5 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Requests
	}
	return &rateLimiter{
		clients:   make(map[string]*clientLimiter),
		rate:      rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:     burst,
		now:       time.Now,
		lastSweep: time.Now(),
	}
}

// limiterFor returns the client's limiter, creating it on first use.
func (rl *rateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= limiterSweepInterval {
		rl.sweep(now)
	}

	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now
	return client.limiter
}

// sweep drops clients idle for a full interval whose buckets have refilled.
// Caller holds rl.mu.
func (rl *rateLimiter) sweep(now time.Time) {
	rl.lastSweep = now
	for key, client := range rl.clients {
		if now.Sub(client.lastSeen) < limiterSweepInterval {
			continue
		}
		if client.limiter.TokensAt(now) >= float64(rl.burst) {
			delete(rl.clients, key)
		}
	}
}

// rateLimitMiddleware limits requests per client IP.
func rateLimitMiddleware(cfg RateLimitConfig, logger logrus.FieldLogger) gin.HandlerFunc {
	if !cfg.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	rl := newRateLimiter(cfg)

	return func(c *gin.Context) {
		key := c.ClientIP()
		limiter := rl.limiterFor(key)
		if limiter.Allow() {
			c.Next()
			return
		}

		reservation := limiter.Reserve()
		retryAfter := max(int(reservation.Delay().Seconds()), 1)
		reservation.Cancel()

		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Window", cfg.Window.String())
		logger.WithFields(logrus.Fields{
			"client_ip":   key,
			"path":        c.FullPath(),
			"retry_after": retryAfter,
		}).Warn("rate limit exceeded")

		abortWithError(c, http.StatusTooManyRequests, codeRateLimited, "too many requests, try again later")
	}
}
