package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/novelreview"
	"github.com/spetersoncode/novelreview/pipeline"
	"github.com/spetersoncode/novelreview/report"
	"github.com/spetersoncode/novelreview/workflow"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"sqlite": func(t *testing.T) Store {
			s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func finishedState() pipeline.AnalysisState {
	genre := "thriller"
	s := pipeline.NewState("The door creaked. Nobody was there. She ran.")
	s.TextType = &pipeline.TextType{Type: pipeline.KindNovelText, Confidence: 0.9}
	s.Genre = &pipeline.Genre{MainGenre: &genre, SubGenres: []string{"psychological"}}
	s.Evaluation = &pipeline.Evaluation{
		MarketFit:    &pipeline.Criterion{Score: pipeline.NewScore(60)},
		Plausibility: &pipeline.Criterion{Score: pipeline.NewScore(50)},
		Originality:  &pipeline.Criterion{Score: pipeline.NewScore(40), Reason: "familiar"},
	}
	s.ScoreGate = &pipeline.GateResult{Passed: false, Average: 50, Reason: pipeline.ReasonBelowThreshold}
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			ctx := context.Background()

			rec := NewRecord("door.txt", finishedState(), 1500*time.Millisecond, novelreview.Usage{InputTokens: 900, OutputTokens: 120})
			rec.CreatedAt = rec.CreatedAt.Truncate(time.Millisecond)
			require.NoError(t, s.Save(ctx, rec))

			got, err := s.Get(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, rec.ID, got.ID)
			assert.Equal(t, "door.txt", got.Source)
			assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
			assert.Equal(t, 1500*time.Millisecond, got.Duration)
			assert.Equal(t, report.StatusStopped, got.Status)
			assert.Equal(t, rec.Usage, got.Usage)

			require.NotNil(t, got.State.Evaluation)
			assert.Equal(t, pipeline.NewScore(40), got.State.Evaluation.Originality.Score)
			assert.Equal(t, "familiar", got.State.Evaluation.Originality.Reason)
			assert.Equal(t, "thriller", *got.State.Genre.MainGenre)
			assert.Nil(t, got.State.Summary)
			assert.Equal(t, []workflow.NodeError{}, got.State.Errors)
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			_, err := s.Get(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			ctx := context.Background()

			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			for i, src := range []string{"a.txt", "b.txt", "c.txt"} {
				rec := NewRecord(src, finishedState(), time.Second, novelreview.Usage{})
				rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
				require.NoError(t, s.Save(ctx, rec))
			}

			all, err := s.List(ctx, 0)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{"c.txt", "b.txt", "a.txt"}, []string{all[0].Source, all[1].Source, all[2].Source})

			first := all[0]
			assert.Equal(t, pipeline.KindNovelText, first.TextType)
			assert.Equal(t, "thriller", first.MainGenre)
			require.NotNil(t, first.Average)
			assert.InDelta(t, 50.0, *first.Average, 1e-9)
			assert.False(t, first.Passed)

			two, err := s.List(ctx, 2)
			require.NoError(t, err)
			assert.Len(t, two, 2)
		})
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			ctx := context.Background()

			rec := NewRecord("draft.txt", pipeline.NewState("x"), 0, novelreview.Usage{})
			require.NoError(t, s.Save(ctx, rec))
			rec.Source = "final.txt"
			require.NoError(t, s.Save(ctx, rec))

			got, err := s.Get(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, "final.txt", got.Source)

			all, err := s.List(ctx, 10)
			require.NoError(t, err)
			assert.Len(t, all, 1)
			assert.Nil(t, all[0].Average)
		})
	}
}

func TestStore_Closed(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			require.NoError(t, s.Close())

			_, err := s.Get(context.Background(), "x")
			assert.ErrorIs(t, err, ErrClosed)
			assert.ErrorIs(t, s.Save(context.Background(), RunRecord{ID: "x"}), ErrClosed)
		})
	}
}

func TestMemory_CopiesState(t *testing.T) {
	m := NewMemory()
	rec := NewRecord("", pipeline.NewState("x"), 0, novelreview.Usage{})
	require.NoError(t, m.Save(context.Background(), rec))

	got, err := m.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	got.State.Errors = append(got.State.Errors, workflow.NodeError{Node: "n", Error: "e"})

	again, err := m.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Empty(t, again.State.Errors)
}

func TestSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	rec := NewRecord("kept.txt", finishedState(), 0, novelreview.Usage{})
	require.NoError(t, s.Save(context.Background(), rec))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept.txt", got.Source)
}
