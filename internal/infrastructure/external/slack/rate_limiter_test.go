package slack

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func limiterWithClock(cfg RateLimiterConfig) (*RateLimiter, *manualClock) {
	clock := &manualClock{now: time.Date(2025, 2, 21, 8, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(cfg)
	rl.now = clock.Now
	rl.lastRefill = clock.now
	rl.lastRequest = clock.now.Add(-cfg.MinInterval)
	return rl, clock
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	rl, clock := limiterWithClock(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 2})

	assert.True(t, rl.TryAllow())
	assert.True(t, rl.TryAllow())
	assert.False(t, rl.TryAllow(), "bucket drained")

	clock.Advance(time.Second)
	assert.True(t, rl.TryAllow())
	assert.False(t, rl.TryAllow())
}

func TestRateLimiter_MinInterval(t *testing.T) {
	rl, clock := limiterWithClock(RateLimiterConfig{RequestsPerSecond: 10, BurstSize: 5, MinInterval: 200 * time.Millisecond})

	assert.True(t, rl.TryAllow())
	assert.False(t, rl.TryAllow())

	clock.Advance(200 * time.Millisecond)
	assert.True(t, rl.TryAllow())
}

func TestRateLimiter_Penalize(t *testing.T) {
	rl, clock := limiterWithClock(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 3})

	rl.Penalize(5 * time.Second)
	assert.False(t, rl.TryAllow())

	clock.Advance(5 * time.Second)
	assert.False(t, rl.TryAllow(), "no token yet at the retry boundary")

	clock.Advance(time.Second)
	assert.True(t, rl.TryAllow())
}

func TestRateLimiter_WaitTimeout(t *testing.T) {
	rl, _ := limiterWithClock(RateLimiterConfig{RequestsPerSecond: 0.01, BurstSize: 1, WaitTimeout: time.Second})

	require.NoError(t, rl.Wait(context.Background()))

	err := rl.Wait(context.Background())
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Greater(t, rlErr.RetryAfter, time.Second)
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.01, BurstSize: 1})
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)
}

func TestRateLimiter_WaitBlocksUntilToken(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 50, BurstSize: 1})
	require.NoError(t, rl.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, rl.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}
