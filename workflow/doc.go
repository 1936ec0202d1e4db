// Package workflow implements a small state-graph engine.
//
// A Graph is a set of named nodes joined by edges. Each node is a NodeFunc
// that receives the current state value and returns the next one. Edges
// leaving a node are either a DirectEdge to a single successor or a
// ConditionalEdge whose router maps the updated state to an outcome name,
// which a route table resolves to the successor. The End marker terminates
// a run.
//
// # Building a Graph
//
//	g := workflow.NewGraph[MyState]("review")
//	g.AddNode("classify", classify)
//	g.AddNode("summarize", summarize)
//	g.SetEntryPoint("classify")
//	g.AddConditionalEdges("classify", routeByKind, map[string]string{
//	    "prose": "summarize",
//	    "other": workflow.End,
//	})
//	g.AddEdge("summarize", workflow.End)
//
//	engine, err := g.Compile(workflow.WithLogger(logger))
//	final, err := engine.Run(ctx, MyState{Input: text})
//
// Builder calls never fail on their own; problems are collected and
// reported together by Compile.
//
// # Execution Model
//
// A run follows a single path. Nodes execute sequentially and each node
// executes at most once; reaching a node a second time stops the run with
// ErrCycle. A router outcome missing from its route table stops the run with
// ErrNoRouteMatched. An error returned by a node stops the run and is
// returned wrapped in a *StepError together with the last good state.
//
// The engine does not inspect ctx itself. It is forwarded to nodes, which
// are expected to honor cancellation in their blocking calls.
//
// # Error Isolation
//
// WithErrorIsolation wraps a node so that a returned error is recorded into
// the state instead of stopping the run:
//
//	g.AddNode("genre", workflow.WithErrorIsolation("genre", detectGenre))
//
// The state type must implement Recorder. Panics are not recovered.
//
// # Observing Runs
//
// Observers registered with WithObserver receive NodeStart, NodeEnd,
// RouteSelected and RunEnd events synchronously, in execution order.
// ContextWithObserver attaches an observer to a single run instead.
package workflow
