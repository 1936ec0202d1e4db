package server

import (
	"fmt"
	"net/http"
	"time"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/gin-gonic/gin"

	"github.com/spetersoncode/novelreview/agui"
	"github.com/spetersoncode/novelreview/workflow"
)

type streamRequest struct {
	ThreadID string `json:"threadId"`
	Text     string `json:"text" binding:"required"`
	Source   string `json:"source" binding:"max=256"`
}

// analyzeStream runs the pipeline and streams its progress as AG-UI events:
// RUN_STARTED, then STEP_STARTED and STEP_FINISHED around every node with a
// STATE_SNAPSHOT after each finished node, then RUN_FINISHED or RUN_ERROR.
func (s *Server) analyzeStream(c *gin.Context) {
	var req streamRequest
	if !bindText(c, &req, &req.Text) {
		return
	}

	mapper := agui.NewMapper(req.ThreadID, "")
	log := s.logger.With("run_id", mapper.RunID(), "thread_id", mapper.ThreadID())

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	sse := &sseWriter{w: c.Writer}
	sse.send(mapper.RunStarted())

	ctx := workflow.ContextWithObserver(c.Request.Context(), func(ev workflow.Event) {
		for _, out := range mapper.MapEvent(ev) {
			sse.send(out)
		}
	})

	start := time.Now()
	state, err := s.runner.Run(ctx, req.Text)
	elapsed := time.Since(start)
	if err != nil {
		log.ErrorContext(ctx, "pipeline failed", "error", err)
		sse.send(mapper.RunError(err))
		return
	}

	rec := s.archive(c, req.Source, state, elapsed)
	sse.send(mapper.RunFinished())

	if sse.err != nil {
		log.WarnContext(ctx, "stream interrupted", "events_sent", sse.count, "error", sse.err)
		return
	}
	log.InfoContext(ctx, "stream completed",
		"archived_id", rec.ID,
		"duration_ms", elapsed.Milliseconds(),
		"events_sent", sse.count,
	)
}

// sseWriter writes AG-UI events in SSE framing. After the first write
// error every further event is dropped.
type sseWriter struct {
	w     gin.ResponseWriter
	count int
	err   error
}

func (s *sseWriter) send(ev aguievents.Event) {
	if s.err != nil {
		return
	}
	data, err := ev.ToJSON()
	if err != nil {
		s.err = fmt.Errorf("failed to serialize event: %w", err)
		return
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", ev.Type(), data); err != nil {
		s.err = fmt.Errorf("failed to write event: %w", err)
		return
	}
	s.w.Flush()
	s.count++
}
