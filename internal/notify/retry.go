package notify

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// BackoffFunc returns the pause before retry attempt n (1-based).
type BackoffFunc func(attempt int) time.Duration

// ConstantBackoff pauses the same duration between every attempt.
func ConstantBackoff(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// Retry runs fn up to 1+retries times, pausing per the backoff policy
// between attempts. It returns nil on the first success, the last error
// once the budget is exhausted, or the context error on cancellation.
// Pauses go through the injected clock so tests fast-forward instead of
// sleeping.
func Retry(ctx context.Context, clk clock.Clock, retries int, backoff BackoffFunc, fn func(context.Context) error) error {
	if clk == nil {
		clk = clock.New()
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if pause := backoff(attempt); pause > 0 {
				timer := clk.Timer(pause)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				}
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}
