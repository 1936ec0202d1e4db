package retry

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/spetersoncode/novelreview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTimeoutError struct{ msg string }

func (e *mockTimeoutError) Error() string   { return e.msg }
func (e *mockTimeoutError) Timeout() bool   { return true }
func (e *mockTimeoutError) Temporary() bool { return true }

var _ net.Error = (*mockTimeoutError)(nil)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo(t *testing.T) {
	t.Run("returns first success", func(t *testing.T) {
		calls := 0
		got, err := Do(context.Background(), DefaultConfig(), func() (string, error) {
			calls++
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		got, err := Do(context.Background(), fastConfig(3), func() (string, error) {
			calls++
			if calls < 3 {
				return "", &mockTimeoutError{msg: "timeout"}
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		calls := 0
		permanent := errors.New("invalid request")
		_, err := Do(context.Background(), fastConfig(5), func() (int, error) {
			calls++
			return 0, permanent
		})
		assert.Equal(t, permanent, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		calls := 0
		transient := &mockTimeoutError{msg: "timeout"}
		_, err := Do(context.Background(), fastConfig(3), func() (int, error) {
			calls++
			return 0, transient
		})
		assert.Equal(t, transient, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("disabled makes one attempt", func(t *testing.T) {
		calls := 0
		_, err := Do(context.Background(), Disabled(), func() (int, error) {
			calls++
			return 0, &mockTimeoutError{msg: "timeout"}
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero attempts still calls once", func(t *testing.T) {
		calls := 0
		_, _ = Do(context.Background(), Config{}, func() (int, error) {
			calls++
			return 0, nil
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("context cancellation aborts backoff", func(t *testing.T) {
		cfg := Config{MaxAttempts: 10, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		calls := 0
		_, err := Do(ctx, cfg, func() (int, error) {
			calls++
			return 0, &mockTimeoutError{msg: "timeout"}
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestDoObserved(t *testing.T) {
	var events []Event
	obs := func(ev Event) { events = append(events, ev) }

	_, err := DoObserved(context.Background(), fastConfig(2), obs, func() (int, error) {
		return 0, &mockTimeoutError{msg: "timeout"}
	})
	require.Error(t, err)

	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	assert.Equal(t, []EventType{EventAttemptFailed, EventRetrying, EventAttemptFailed, EventExhausted}, types)
	assert.Equal(t, 1, events[0].Attempt)
	assert.True(t, events[0].Retryable)
	assert.Equal(t, 2, events[3].MaxAttempts)
}

func TestEffectiveDelay(t *testing.T) {
	t.Run("uses backoff without Retry-After", func(t *testing.T) {
		assert.Equal(t, time.Second, effectiveDelay(time.Second, errors.New("x")))
	})

	t.Run("honors larger Retry-After", func(t *testing.T) {
		err := novelreview.NewTransientErrorWithRetry("rate limited", 429, 5*time.Second, nil)
		assert.Equal(t, 5*time.Second, effectiveDelay(time.Second, err))
	})

	t.Run("ignores smaller Retry-After", func(t *testing.T) {
		err := novelreview.NewTransientErrorWithRetry("rate limited", 429, time.Millisecond, nil)
		assert.Equal(t, time.Second, effectiveDelay(time.Second, err))
	})
}
