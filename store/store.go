package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spetersoncode/novelreview"
	"github.com/spetersoncode/novelreview/pipeline"
	"github.com/spetersoncode/novelreview/report"
)

// Store persists analysis runs. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save inserts or replaces the run with rec.ID.
	Save(ctx context.Context, rec RunRecord) error

	// Get returns the run with id, or ErrNotFound.
	Get(ctx context.Context, id string) (RunRecord, error)

	// List returns up to limit runs, newest first. A limit below 1
	// returns every run.
	List(ctx context.Context, limit int) ([]Summary, error)

	// Close releases resources. Further calls return ErrClosed.
	Close() error
}

// RunRecord is one archived analysis run.
type RunRecord struct {
	ID        string                 `json:"id"`
	Source    string                 `json:"source,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	Duration  time.Duration          `json:"duration"`
	Status    string                 `json:"status"`
	Usage     novelreview.Usage      `json:"usage"`
	State     pipeline.AnalysisState `json:"state"`
}

// Summary is the listing view of a run.
type Summary struct {
	ID        string        `json:"id"`
	Source    string        `json:"source,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Status    string        `json:"status"`
	TextType  pipeline.Kind `json:"text_type,omitempty"`
	MainGenre string        `json:"main_genre,omitempty"`
	Average   *float64      `json:"average,omitempty"`
	Passed    bool          `json:"passed"`
}

// NewRecord builds a record with a fresh ID for a finished run.
func NewRecord(source string, state pipeline.AnalysisState, elapsed time.Duration, usage novelreview.Usage) RunRecord {
	return RunRecord{
		ID:        uuid.NewString(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Duration:  elapsed,
		Status:    report.Status(state),
		Usage:     usage,
		State:     state.Clone(),
	}
}

// Summarize derives the listing view of rec.
func (rec RunRecord) Summarize() Summary {
	s := Summary{
		ID:        rec.ID,
		Source:    rec.Source,
		CreatedAt: rec.CreatedAt,
		Status:    rec.Status,
	}
	if tt := rec.State.TextType; tt != nil {
		s.TextType = tt.Type
	}
	if g := rec.State.Genre; g != nil && g.MainGenre != nil {
		s.MainGenre = *g.MainGenre
	}
	if gate := rec.State.ScoreGate; gate != nil {
		avg := gate.Average
		s.Average = &avg
		s.Passed = gate.Passed
	}
	return s
}
