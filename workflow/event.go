package workflow

import "time"

// EventType identifies a step in a run.
type EventType string

const (
	// EventNodeStart fires before a node executes.
	EventNodeStart EventType = "node_start"

	// EventNodeEnd fires after a node returns, with the updated state or the error.
	EventNodeEnd EventType = "node_end"

	// EventRouteSelected fires after a router picks an outcome.
	EventRouteSelected EventType = "route_selected"

	// EventRunEnd fires once per run, last.
	EventRunEnd EventType = "run_end"
)

// Event is an observable occurrence during a run.
type Event struct {
	Type  EventType
	Graph string
	Node  string

	// Outcome and Target are set for EventRouteSelected.
	Outcome string
	Target  string

	// State is the state after the node (EventNodeEnd) or the final state
	// (EventRunEnd). Its dynamic type is the graph's state type.
	State any

	Duration  time.Duration
	Err       error
	Timestamp time.Time
}

// Observer receives events synchronously on the run's goroutine.
type Observer func(Event)
