package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Engine executes a compiled graph. It is immutable and safe for concurrent runs.
type Engine[S any] struct {
	name      string
	nodes     map[string]NodeFunc[S]
	order     []string
	edges     map[string]Edge
	entry     string
	logger    *slog.Logger
	observers []Observer
}

// Name returns the graph name.
func (e *Engine[S]) Name() string { return e.name }

// Run executes the graph from the entry point until End. On failure it
// returns the last successfully produced state together with the error.
func (e *Engine[S]) Run(ctx context.Context, state S) (S, error) {
	logger := e.logger.With("run_id", uuid.NewString())
	ctx = ContextWithLogger(ctx, logger)
	runStart := time.Now()

	visited := make(map[string]bool, len(e.nodes))
	current := e.entry

	for current != End {
		if visited[current] {
			err := fmt.Errorf("%w: node %q reached twice", ErrCycle, current)
			return e.finish(ctx, logger, state, runStart, err)
		}
		visited[current] = true

		next, err := e.runNode(ctx, logger, current, state)
		if err != nil {
			return e.finish(ctx, logger, state, runStart, &StepError{Node: current, Err: err})
		}
		state = next

		target, err := e.follow(ctx, logger, current, state)
		if err != nil {
			return e.finish(ctx, logger, state, runStart, err)
		}
		current = target
	}

	return e.finish(ctx, logger, state, runStart, nil)
}

func (e *Engine[S]) runNode(ctx context.Context, logger *slog.Logger, name string, state S) (S, error) {
	e.notify(ctx, Event{Type: EventNodeStart, Node: name})
	logger.DebugContext(ctx, "node started", "node", name)

	start := time.Now()
	next, err := e.nodes[name](ctx, state)
	elapsed := time.Since(start)

	if err != nil {
		e.notify(ctx, Event{Type: EventNodeEnd, Node: name, Duration: elapsed, Err: err})
		logger.ErrorContext(ctx, "node failed", "node", name, "duration", elapsed, "error", err)
		return state, err
	}

	e.notify(ctx, Event{Type: EventNodeEnd, Node: name, Duration: elapsed, State: next})
	logger.DebugContext(ctx, "node finished", "node", name, "duration", elapsed)
	return next, nil
}

// follow resolves the successor of from.
func (e *Engine[S]) follow(ctx context.Context, logger *slog.Logger, from string, state S) (string, error) {
	switch edge := e.edges[from].(type) {
	case DirectEdge:
		return edge.To, nil
	case ConditionalEdge[S]:
		outcome := edge.Router(state)
		target, ok := edge.Routes[outcome]
		if !ok {
			return "", fmt.Errorf("%w: node %q produced outcome %q", ErrNoRouteMatched, from, outcome)
		}
		e.notify(ctx, Event{Type: EventRouteSelected, Node: from, Outcome: outcome, Target: target})
		logger.DebugContext(ctx, "route selected", "node", from, "outcome", outcome, "target", target)
		return target, nil
	default:
		// Compile guarantees every node has an edge.
		return "", fmt.Errorf("%w: %q", ErrMissingEdge, from)
	}
}

func (e *Engine[S]) finish(ctx context.Context, logger *slog.Logger, state S, start time.Time, err error) (S, error) {
	elapsed := time.Since(start)
	e.notify(ctx, Event{Type: EventRunEnd, State: state, Duration: elapsed, Err: err})
	if err != nil {
		logger.WarnContext(ctx, "run stopped", "duration", elapsed, "error", err)
	} else {
		logger.InfoContext(ctx, "run complete", "duration", elapsed)
	}
	return state, err
}

func (e *Engine[S]) notify(ctx context.Context, ev Event) {
	runObs, _ := ctx.Value(observerKey{}).([]Observer)
	if len(e.observers) == 0 && len(runObs) == 0 {
		return
	}
	ev.Graph = e.name
	ev.Timestamp = time.Now()
	for _, obs := range e.observers {
		obs(ev)
	}
	for _, obs := range runObs {
		obs(ev)
	}
}

type observerKey struct{}

// ContextWithObserver returns a context that adds obs to the observers of
// any run started with it. Engine-level observers are notified first.
func ContextWithObserver(ctx context.Context, obs Observer) context.Context {
	existing, _ := ctx.Value(observerKey{}).([]Observer)
	return context.WithValue(ctx, observerKey{}, append(slices.Clone(existing), obs))
}

type loggerKey struct{}

// ContextWithLogger returns a context carrying logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFrom returns the run logger stored in ctx, or slog.Default().
func LoggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
