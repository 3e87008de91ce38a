// Package retry runs operations with exponential backoff and jitter.
// Used for webhook deliveries and the initial database connection.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryableError marks an error as worth another attempt.
// After, when set, overrides the computed backoff (e.g. an HTTP Retry-After).
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps an error to indicate it should be retried.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// RetryableAfter wraps an error that may be retried no sooner than d.
func RetryableAfter(err error, d time.Duration) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, After: d}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff describes the delay schedule between attempts.
type Backoff struct {
	// MaxAttempts counts the first attempt too.
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	// Jitter is the +/- fraction applied to every delay (0.1 = 10%).
	Jitter float64
}

// DefaultBackoff returns 3 attempts starting at 100ms.
func DefaultBackoff() Backoff {
	return Backoff{
		MaxAttempts: 3,
		Initial:     100 * time.Millisecond,
		Max:         30 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.1,
	}
}

// Delay returns the wait before attempt+1, without jitter applied when Jitter is 0.
func (b Backoff) Delay(attempt int) time.Duration {
	d := float64(b.Initial) * math.Pow(b.Multiplier, float64(attempt-1))
	if d > float64(b.Max) {
		d = float64(b.Max)
	}
	if b.Jitter > 0 {
		d += d * b.Jitter * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// Option is a functional option for configuring retries.
type Option func(*Retrier)

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n int) Option {
	return func(r *Retrier) {
		if n > 0 {
			r.backoff.MaxAttempts = n
		}
	}
}

// WithDelays sets the initial and maximum delay.
func WithDelays(initial, max time.Duration) Option {
	return func(r *Retrier) {
		if initial > 0 {
			r.backoff.Initial = initial
		}
		if max >= initial {
			r.backoff.Max = max
		}
	}
}

// WithJitter sets the jitter factor (0.0 to 1.0).
func WithJitter(j float64) Option {
	return func(r *Retrier) {
		if j >= 0 && j <= 1.0 {
			r.backoff.Jitter = j
		}
	}
}

// WithRetryIf replaces the default "only RetryableError" predicate.
func WithRetryIf(fn func(error) bool) Option {
	return func(r *Retrier) { r.retryIf = fn }
}

// WithOnRetry sets a callback invoked before each wait.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(r *Retrier) { r.onRetry = fn }
}

// Retrier manages retry operations.
type Retrier struct {
	backoff Backoff
	retryIf func(error) bool
	onRetry func(attempt int, err error, delay time.Duration)
}

// New creates a new Retrier with the given options.
func New(opts ...Option) *Retrier {
	r := &Retrier{backoff: DefaultBackoff(), retryIf: IsRetryable}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do executes the operation until it succeeds, returns a non-retryable error,
// runs out of attempts or ctx is done. The returned error has any
// RetryableError wrapper removed.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.backoff.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return unwrapRetryable(lastErr)
			}
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.retryIf(err) || attempt == r.backoff.MaxAttempts {
			return unwrapRetryable(err)
		}

		delay := r.backoff.Delay(attempt)
		var re *RetryableError
		if errors.As(err, &re) && re.After > 0 {
			delay = re.After
		}
		if r.onRetry != nil {
			r.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return unwrapRetryable(lastErr)
		case <-timer.C:
		}
	}

	return unwrapRetryable(lastErr)
}

func unwrapRetryable(err error) error {
	var re *RetryableError
	if errors.As(err, &re) {
		return re.Err
	}
	return err
}

// Do is a convenience function that creates a Retrier and executes the operation.
func Do(ctx context.Context, operation func(ctx context.Context) error, opts ...Option) error {
	return New(opts...).Do(ctx, operation)
}

// SlackRetrier is tuned for incoming-webhook posts: few attempts, honors Retry-After.
func SlackRetrier(onRetry func(attempt int, err error, delay time.Duration)) *Retrier {
	return New(
		WithMaxAttempts(4),
		WithDelays(250*time.Millisecond, 10*time.Second),
		WithJitter(0.2),
		WithOnRetry(onRetry),
	)
}

// DatabaseRetrier is tuned for the startup connection to Postgres.
func DatabaseRetrier() *Retrier {
	return New(
		WithMaxAttempts(5),
		WithDelays(200*time.Millisecond, 3*time.Second),
		WithJitter(0.05),
		WithRetryIf(func(err error) bool { return !errors.Is(err, context.Canceled) }),
	)
}
