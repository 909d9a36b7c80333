package bedrock

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const maxRetryDelay = 30 * time.Second

// withRetry runs fn until it succeeds, returns a non-retryable error, the
// retry budget is spent or ctx is done.
func (c *Client) withRetry(ctx context.Context, modelID string, logger *zap.Logger, fn func() error) error {
	maxRetries := c.maxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return contextError(ctx, lastErr)
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}

		if attempt == maxRetries {
			return errors.WithMessagef(err, "max retries (%d) exceeded", maxRetries)
		}

		delay := c.retryBackoff(attempt)
		c.metrics.retry(modelID)
		logger.Warn("retrying invocation",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return contextError(ctx, lastErr)
		}
	}

	return lastErr
}

// contextError returns ctx.Err(), annotated with the last attempt's failure
// when there was one. errors.Is still matches context.Canceled and
// context.DeadlineExceeded.
func contextError(ctx context.Context, lastErr error) error {
	if lastErr == nil {
		return ctx.Err()
	}
	return errors.WithMessagef(ctx.Err(), "last attempt failed: %v", lastErr)
}

// retryBackoff returns the exponential delay for attempt with ±10% jitter,
// capped at maxRetryDelay.
func (c *Client) retryBackoff(attempt int) time.Duration {
	delay := float64(c.retryDelay) * math.Pow(c.retryMultiplier, float64(attempt))

	c.randMu.Lock()
	jitter := c.randSrc.Float64()*0.2 - 0.1
	c.randMu.Unlock()
	delay *= 1.0 + jitter

	if delay > float64(maxRetryDelay) {
		delay = float64(maxRetryDelay)
	}
	return time.Duration(delay)
}
