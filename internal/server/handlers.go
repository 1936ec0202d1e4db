package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spetersoncode/novelreview"
	"github.com/spetersoncode/novelreview/ingest"
	"github.com/spetersoncode/novelreview/pipeline"
	"github.com/spetersoncode/novelreview/store"
)

const defaultListLimit = 20

type analyzeRequest struct {
	Text   string `json:"text" binding:"required"`
	Source string `json:"source" binding:"max=256"`
}

type analyzeResponse struct {
	ID         string                 `json:"id"`
	Status     string                 `json:"status"`
	DurationMS int64                  `json:"duration_ms"`
	State      pipeline.AnalysisState `json:"state"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindText decodes the request body and returns the ingested manuscript.
// It writes a 400 response and returns false when the input is unusable.
func bindText(c *gin.Context, req any, text *string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return false
	}
	*text = ingest.FromText(*text)
	if *text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": novelreview.ErrEmptyInput.Error()})
		return false
	}
	return true
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if !bindText(c, &req, &req.Text) {
		return
	}

	ctx := c.Request.Context()
	start := time.Now()
	state, err := s.runner.Run(ctx, req.Text)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.ErrorContext(ctx, "pipeline failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rec := s.archive(c, req.Source, state, elapsed)
	c.JSON(http.StatusOK, analyzeResponse{
		ID:         rec.ID,
		Status:     rec.Status,
		DurationMS: elapsed.Milliseconds(),
		State:      rec.State,
	})
}

// archive saves the run when a store is configured. A failed save is
// logged; the analysis result is still returned.
func (s *Server) archive(c *gin.Context, source string, state pipeline.AnalysisState, elapsed time.Duration) store.RunRecord {
	rec := store.NewRecord(source, state, elapsed, novelreview.Usage{})
	if s.store == nil {
		return rec
	}
	ctx := c.Request.Context()
	if err := s.store.Save(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "archiving run failed", "run_id", rec.ID, "error", err)
	}
	return rec
}

func (s *Server) listRuns(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run archive disabled"})
		return
	}
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []store.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) getRun(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run archive disabled"})
		return
	}
	rec, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}
