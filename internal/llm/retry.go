package llm

import (
	"context"
	"fmt"
	"time"

	"videorag/internal/contextutil"
)

// RetryPolicy retries an operation with exponential backoff. External service
// calls (transcription, embedding, generation) share one policy so a transient
// API failure does not abort a whole video.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is used by all clients unless overridden.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    8 * time.Second,
}

// Do runs fn up to MaxAttempts times, sleeping with exponential backoff between
// attempts. It stops early when the context is cancelled. op names the
// operation for logging.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	logger := contextutil.LoggerFromContext(ctx)

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		logger.WarnContext(ctx, "retrying after failure",
			"operation", op, "attempt", attempt, "delay", delay.String(), "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, lastErr)
}
