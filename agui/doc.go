// Package agui maps workflow events to the AG-UI protocol.
//
// AG-UI (Agent-User Interface) is an event-based protocol for streaming agent
// progress to user-facing applications. A [Mapper] turns the observer events
// of a single workflow run into AG-UI events:
//
//   - node_start → STEP_STARTED
//   - node_end → STEP_FINISHED, then STATE_SNAPSHOT with the updated state
//   - route_selected, run_end → nothing
//
// Run lifecycle events are emitted by the caller, since a run may fail before
// any node starts:
//
//	mapper := agui.NewMapper(threadID, "")
//	write(mapper.RunStarted())
//	ctx = workflow.ContextWithObserver(ctx, func(ev workflow.Event) {
//	    for _, out := range mapper.MapEvent(ev) {
//	        write(out)
//	    }
//	})
//	if _, err := p.Run(ctx, text); err != nil {
//	    write(mapper.RunError(err))
//	    return
//	}
//	write(mapper.RunFinished())
//
// The package does not provide transport; see internal/server for the SSE
// framing.
//
// A Mapper is not safe for concurrent use. Create one per run.
package agui
