// Package retry wraps single external calls with bounded retry and a fixed delay.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Do invokes op and, on failure, waits delay and tries again, up to
// maxRetries additional attempts (maxRetries+1 attempts in total). The first
// successful result is returned immediately. On exhaustion the last observed
// error is surfaced, wrapped with the operation label so callers can
// attribute the failure.
//
// The delay is a fixed interval rather than an exponential backoff: the
// upstream responds to pacing, not to backoff shape. Cancellation of ctx is
// honored between attempts and while waiting.
func Do[T any](ctx context.Context, label string, maxRetries int, delay time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s: %w", label, err)
		}

		result, err := op(ctx)
		if err == nil {
			if attempt > 0 {
				logrus.WithFields(logrus.Fields{
					"op":      label,
					"attempt": attempt + 1,
				}).Info("Call succeeded after retry")
			}
			return result, nil
		}
		lastErr = err

		if attempt < maxRetries {
			logrus.WithFields(logrus.Fields{
				"op":      label,
				"attempt": attempt + 1,
				"delay":   delay,
			}).Warnf("Call failed, retrying: %v", err)

			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("%s: %w", label, ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"op":      label,
		"retries": maxRetries,
	}).Errorf("Call failed after all retries: %v", lastErr)

	return zero, fmt.Errorf("%s: %w", label, lastErr)
}
