package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errFlaky = errors.New("flaky")

func fastRetrier(opts ...Option) *Retrier {
	return New(append([]Option{WithDelays(time.Millisecond, 2*time.Millisecond), WithJitter(0)}, opts...)...)
}

func TestDo_RetriesRetryableUntilSuccess(t *testing.T) {
	calls := 0
	err := fastRetrier(WithMaxAttempts(3)).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errFlaky)
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPlainError(t *testing.T) {
	calls := 0
	err := fastRetrier().Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestDo_ReturnsUnwrappedErrorAfterLastAttempt(t *testing.T) {
	var retries []int
	err := fastRetrier(
		WithMaxAttempts(2),
		WithOnRetry(func(attempt int, _ error, _ time.Duration) { retries = append(retries, attempt) }),
	).Do(context.Background(), func(context.Context) error {
		return Retryable(errFlaky)
	})

	assert.Same(t, errFlaky, err)
	assert.Equal(t, []int{1}, retries)
}

func TestDo_HonorsRetryAfter(t *testing.T) {
	var delays []time.Duration
	_ = fastRetrier(
		WithMaxAttempts(2),
		WithOnRetry(func(_ int, _ error, d time.Duration) { delays = append(delays, d) }),
	).Do(context.Background(), func(context.Context) error {
		return RetryableAfter(errFlaky, 5*time.Millisecond)
	})

	assert.Equal(t, []time.Duration{5 * time.Millisecond}, delays)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fastRetrier().Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff_DelayCapped(t *testing.T) {
	b := Backoff{MaxAttempts: 10, Initial: time.Second, Max: 3 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, b.Delay(1))
	assert.Equal(t, 2*time.Second, b.Delay(2))
	assert.Equal(t, 3*time.Second, b.Delay(5))
}
