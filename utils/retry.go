package utils

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy controls how remote calls recover from connectivity failures.
// Rejected requests (RemoteError) are never retried; only transport-level
// failures go through the backoff loop.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// Sleep waits between attempts. Tests inject a recorder here.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   5,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Sleep:        sleepContext,
	}
}

// DoWithRetry runs fn until it succeeds, fails with a non-retryable error, or
// the retry budget is spent. The delay doubles each attempt up to MaxDelay.
func DoWithRetry[T any](ctx context.Context, policy RetryPolicy, logger *logrus.Logger, op string, fn func() (T, error)) (T, error) {
	var zero T
	delay := policy.InitialDelay

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !IsConnectivityError(err) {
			return zero, err
		}
		lastErr = err

		if attempt == policy.MaxRetries {
			break
		}
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"op":      op,
				"attempt": attempt + 1,
				"delay":   delay.String(),
			}).Warnf("connection failed, retrying: %v", err)
		}
		if err := policy.Sleep(ctx, delay); err != nil {
			return zero, err
		}
		delay *= 2
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
