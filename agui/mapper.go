package agui

import (
	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/novelreview/workflow"
)

// Mapper converts workflow events to AG-UI events for one run.
type Mapper struct {
	threadID string
	runID    string
}

// NewMapper creates a Mapper for a single run. Empty IDs are generated.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{
		threadID: threadID,
		runID:    runID,
	}
}

// ThreadID returns the thread ID for this mapper.
func (m *Mapper) ThreadID() string {
	return m.threadID
}

// RunID returns the run ID for this mapper.
func (m *Mapper) RunID() string {
	return m.runID
}

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(err error) events.Event {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return events.NewRunErrorEvent(msg)
}

// MapEvent converts a workflow event to zero or more AG-UI events.
func (m *Mapper) MapEvent(e workflow.Event) []events.Event {
	switch e.Type {
	case workflow.EventNodeStart:
		return []events.Event{events.NewStepStartedEvent(e.Node)}
	case workflow.EventNodeEnd:
		out := []events.Event{events.NewStepFinishedEvent(e.Node)}
		if e.Err == nil && e.State != nil {
			out = append(out, events.NewStateSnapshotEvent(e.State))
		}
		return out
	default:
		// route_selected has no AG-UI equivalent; run_end is left to the
		// caller so archiving can happen before RUN_FINISHED.
		return nil
	}
}
