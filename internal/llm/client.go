package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trupyai/trupy/internal/domain"
)

const (
	maxAttempts  = 3
	backoffFloor = 4 * time.Second
	backoffCeil  = 10 * time.Second
)

// Client wraps a Provider with a bounded retry policy: up to maxAttempts
// calls, retrying only transient failures, with exponential backoff between
// attempts starting at backoffFloor and capped at backoffCeil.
type Client struct {
	provider Provider
	logger   *slog.Logger

	// wait is the backoff sleep, injectable for tests.
	wait func(ctx context.Context, d time.Duration)
}

// NewClient creates a retrying client around provider.
func NewClient(provider Provider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		provider: provider,
		logger:   logger,
		wait:     wait,
	}
}

// Complete calls the provider with the given transcript, retrying transient
// failures. Non-transient failures are returned immediately. On exhaustion
// the last provider error is returned wrapped.
func (c *Client) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		reply, err := c.provider.Send(ctx, messages)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		c.logger.Error("completion attempt failed",
			"attempt", attempt,
			"transient", IsTransient(err),
			"error", err)

		if !IsTransient(err) {
			return "", err
		}
		if attempt < maxAttempts {
			c.wait(ctx, backoffDelay(attempt))
		}
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", maxAttempts, lastErr)
}

// CompleteOnce calls the provider a single time with no retry. Used for
// best-effort work such as summaries where backoff delays are not worth it.
func (c *Client) CompleteOnce(ctx context.Context, messages []domain.Message) (string, error) {
	reply, err := c.provider.Send(ctx, messages)
	if err != nil {
		c.logger.Error("completion attempt failed", "attempt", 1, "error", err)
		return "", err
	}
	return reply, nil
}

// backoffDelay returns the wait before the attempt following the given one:
// floor doubled per retry, capped at the ceiling (4s, 8s, 10s, ...).
func backoffDelay(attempt int) time.Duration {
	d := backoffFloor << (attempt - 1)
	if d > backoffCeil {
		d = backoffCeil
	}
	return d
}

// wait blocks for d or until ctx is done, whichever comes first. Other
// goroutines are unaffected; the delay is a plain timer, not a busy wait.
func wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
