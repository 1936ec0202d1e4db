package retry

import (
	"context"
	"errors"
	"time"

	"github.com/spetersoncode/novelreview"
)

// retryAfter returns the server-requested wait carried by a categorized error.
func retryAfter(err error) time.Duration {
	var ce novelreview.CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}

// effectiveDelay honors the server's Retry-After when it exceeds the backoff.
func effectiveDelay(backoff time.Duration, err error) time.Duration {
	if server := retryAfter(err); server > backoff {
		return server
	}
	return backoff
}

// Do calls fn until it succeeds, returns a non-transient error, or the
// attempts in cfg run out. Backoff waits abort when ctx is done.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	return DoObserved(ctx, cfg, nil, fn)
}

// DoObserved is Do with an Observer notified of failures and retries.
func DoObserved[T any](ctx context.Context, cfg Config, obs Observer, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		retryable := IsTransient(err)
		obs.notify(Event{
			Type:        EventAttemptFailed,
			Attempt:     attempt + 1,
			MaxAttempts: attempts,
			Err:         err,
			Retryable:   retryable,
		})
		if !retryable {
			return zero, err
		}

		if attempt == attempts-1 {
			break
		}

		delay := effectiveDelay(cfg.Delay(attempt), err)
		obs.notify(Event{
			Type:        EventRetrying,
			Attempt:     attempt + 1,
			MaxAttempts: attempts,
			Err:         err,
			Retryable:   true,
			Delay:       delay,
		})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	obs.notify(Event{
		Type:        EventExhausted,
		Attempt:     attempts,
		MaxAttempts: attempts,
		Err:         lastErr,
	})
	return zero, lastErr
}
