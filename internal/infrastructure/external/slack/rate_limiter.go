package slack

import (
	"context"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER - Token Bucket for webhook posts
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiter spaces out webhook posts. Slack accepts roughly one message per
// second per webhook; a reminder run for a whole group would otherwise burst.
type RateLimiter struct {
	mu sync.Mutex

	maxTokens   float64
	refillRate  float64 // tokens per second
	tokens      float64
	lastRefill  time.Time
	minInterval time.Duration
	lastRequest time.Time
	waitTimeout time.Duration

	now func() time.Time
}

// RateLimiterConfig contains configuration for the rate limiter.
type RateLimiterConfig struct {
	// RequestsPerSecond is the sustained post rate.
	RequestsPerSecond float64

	// BurstSize is how many posts may go out back to back.
	BurstSize int

	// MinInterval is the minimum gap between posts even with tokens available.
	MinInterval time.Duration

	// WaitTimeout caps how long Wait blocks for a token.
	WaitTimeout time.Duration
}

// DefaultRateLimiterConfig matches Slack's documented webhook limit.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 1.0,
		BurstSize:         3,
		MinInterval:       100 * time.Millisecond,
		WaitTimeout:       30 * time.Second,
	}
}

// NewRateLimiter creates a RateLimiter with a full bucket.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.BurstSize < 1 {
		cfg.BurstSize = 1
	}
	now := time.Now()
	return &RateLimiter{
		maxTokens:   float64(cfg.BurstSize),
		refillRate:  cfg.RequestsPerSecond,
		tokens:      float64(cfg.BurstSize),
		lastRefill:  now,
		minInterval: cfg.MinInterval,
		lastRequest: now.Add(-cfg.MinInterval),
		waitTimeout: cfg.WaitTimeout,
		now:         time.Now,
	}
}

// RateLimitError is returned when no token became available within WaitTimeout.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "slack rate limit: retry after " + e.RetryAfter.String()
}

// Wait blocks until a post may proceed, the context ends, or WaitTimeout
// would be exceeded.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	var deadline time.Time
	if rl.waitTimeout > 0 {
		deadline = rl.now().Add(rl.waitTimeout)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := rl.tryAcquire()
		if ok {
			return nil
		}
		if !deadline.IsZero() && rl.now().Add(wait).After(deadline) {
			return &RateLimitError{RetryAfter: wait}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAllow takes a token without blocking.
func (rl *RateLimiter) TryAllow() bool {
	_, ok := rl.tryAcquire()
	return ok
}

// Penalize drains the bucket after Slack answered 429 so that subsequent
// posts in the same run back off as well.
func (rl *RateLimiter) Penalize(retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.tokens = 0
	now := rl.now()
	rl.lastRefill = now
	if retryAfter > 0 {
		// Push the refill clock forward so no token appears before retryAfter.
		rl.lastRefill = now.Add(retryAfter)
	}
}

// tryAcquire returns (waitTime, false) when the caller has to wait.
func (rl *RateLimiter) tryAcquire() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.refill(now)

	if since := now.Sub(rl.lastRequest); since < rl.minInterval {
		return rl.minInterval - since, false
	}

	if now.Before(rl.lastRefill) {
		return rl.lastRefill.Sub(now), false
	}

	if rl.tokens < 1.0 {
		need := 1.0 - rl.tokens
		return time.Duration(need / rl.refillRate * float64(time.Second)), false
	}

	rl.tokens--
	rl.lastRequest = now
	return 0, true
}

// refill must be called with the lock held.
func (rl *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now
}
