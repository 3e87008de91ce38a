// Package slack delivers notifications through a Slack incoming webhook.
// Posts are retried with backoff (honoring Retry-After on 429) and guarded
// by a circuit breaker so a dead webhook does not stall a reminder run.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/chas-career/career-hub/internal/domain/notification"
	"github.com/chas-career/career-hub/pkg/circuitbreaker"
	"github.com/chas-career/career-hub/pkg/logger"
	"github.com/chas-career/career-hub/pkg/metrics"
	"github.com/chas-career/career-hub/pkg/retry"
)

// ChannelName is reported in delivery results and metrics.
const ChannelName = "slack"

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Slack client.
type ClientConfig struct {
	// WebhookURL is the incoming-webhook URL. Empty disables delivery.
	WebhookURL string

	// Timeout is the HTTP request timeout per attempt.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *logger.Logger

	// Retrier and Breaker override the defaults (used by tests).
	Retrier *retry.Retrier
	Breaker *circuitbreaker.CircuitBreaker

	// Limiter throttles posts. Nil disables throttling.
	Limiter *RateLimiter
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(webhookURL string) ClientConfig {
	return ClientConfig{
		WebhookURL: webhookURL,
		Timeout:    10 * time.Second,
		Limiter:    NewRateLimiter(DefaultRateLimiterConfig()),
	}
}

// APIError is a non-2xx webhook response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack webhook returned %d: %s", e.StatusCode, e.Body)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client implements notification.Channel.
type Client struct {
	webhookURL string
	httpClient *http.Client
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	limiter    *RateLimiter
	logger     *logger.Logger
}

var _ notification.Channel = (*Client)(nil)

// NewClient creates a new Slack client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	log := cfg.Logger.With(logger.Component("slack"))

	c := &Client{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retrier:    cfg.Retrier,
		breaker:    cfg.Breaker,
		limiter:    cfg.Limiter,
		logger:     log,
	}
	if c.retrier == nil {
		c.retrier = retry.SlackRetrier(func(attempt int, err error, delay time.Duration) {
			log.Warn("retrying slack post", logger.Int("attempt", attempt), logger.Duration("delay", delay), logger.Err(err))
		})
	}
	if c.breaker == nil {
		c.breaker = circuitbreaker.WebhookBreaker("slack-webhook", func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		})
	}
	return c
}

// Name implements notification.Channel.
func (c *Client) Name() string { return ChannelName }

// Enabled reports whether a webhook URL is configured.
func (c *Client) Enabled() bool { return c.webhookURL != "" }

// Send implements notification.Channel.
func (c *Client) Send(ctx context.Context, n *notification.Notification) notification.DeliveryResult {
	result := c.send(ctx, n)
	status := "delivered"
	if !result.Success {
		status = "failed"
	}
	metrics.RecordDelivery(ChannelName, n.Type.String(), status)
	return result
}

func (c *Client) send(ctx context.Context, n *notification.Notification) notification.DeliveryResult {
	if !c.Enabled() {
		c.logger.Warn("SLACK_WEBHOOK_URL not configured, dropping notification", logger.String("type", n.Type.String()))
		return notification.NewFailureResult(ChannelName, notification.ErrChannelUnavailable, false)
	}

	msg, err := BuildMessage(n)
	if err != nil {
		return notification.NewFailureResult(ChannelName, err, false)
	}

	if err := c.Post(ctx, msg); err != nil {
		c.logger.Error("failed to send slack message",
			logger.String("type", n.Type.String()),
			logger.StudentID(n.StudentID),
			logger.Err(err),
		)
		return notification.NewFailureResult(ChannelName, err, circuitbreaker.IsRejection(err) || isTransient(err))
	}
	return notification.NewSuccessResult(ChannelName)
}

// Post sends a prepared message through the breaker and retrier.
func (c *Client) Post(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.post(ctx, body)
		})
	})
}

// post performs a single webhook call and classifies the failure.
func (c *Client) post(ctx context.Context, body []byte) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return retry.Retryable(fmt.Errorf("post webhook: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(snippet)}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := retryAfter(resp.Header.Get("Retry-After"))
		if c.limiter != nil {
			c.limiter.Penalize(wait)
		}
		return retry.RetryableAfter(apiErr, wait)
	case resp.StatusCode >= 500:
		return retry.Retryable(apiErr)
	default:
		return apiErr
	}
}

func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func isTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}
