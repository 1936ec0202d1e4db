package workflow

import "context"

// NodeError is one entry of a state's error log.
type NodeError struct {
	Node  string `json:"node"`
	Error string `json:"error"`
}

// Recorder is implemented by state types that keep an error log.
// RecordError returns a copy of the state with err appended.
type Recorder[S any] interface {
	RecordError(err NodeError) S
}

// WithErrorIsolation wraps fn so that a returned error is appended to the
// state's error log and the run continues. The returned state is the input
// state plus the log entry; whatever fn returned alongside the error is
// discarded. Panics propagate.
func WithErrorIsolation[S Recorder[S]](name string, fn NodeFunc[S]) NodeFunc[S] {
	return func(ctx context.Context, state S) (S, error) {
		next, err := fn(ctx, state)
		if err == nil {
			return next, nil
		}

		LoggerFrom(ctx).WarnContext(ctx, "node error recorded", "node", name, "error", err)
		return state.RecordError(NodeError{Node: name, Error: err.Error()}), nil
	}
}
