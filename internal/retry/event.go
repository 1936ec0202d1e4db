package retry

import "time"

// EventType identifies a step in a retried call.
type EventType string

const (
	EventAttemptFailed EventType = "attempt_failed"
	EventRetrying      EventType = "retrying"
	EventExhausted     EventType = "exhausted"
)

// Event describes one observable step of Do.
type Event struct {
	Type        EventType
	Attempt     int // 1-indexed
	MaxAttempts int
	Err         error
	Retryable   bool
	Delay       time.Duration // set for EventRetrying
}

// Observer receives retry events. It is called synchronously from Do.
type Observer func(Event)

func (o Observer) notify(ev Event) {
	if o != nil {
		o(ev)
	}
}
