package pipeline

import (
	"context"

	"github.com/spetersoncode/novelreview/workflow"
)

// DefaultScoreThreshold is the minimum average for deep analysis.
const DefaultScoreThreshold = 70.0

// Gate reasons.
const (
	ReasonEvaluationFailed = "evaluation stage failed"
	ReasonScoreExtraction  = "score extraction failed"
	ReasonPassed           = "baseline quality met"
	ReasonBelowThreshold   = "baseline quality not met"
)

// Gate decides whether a manuscript proceeds to deep analysis.
type Gate struct {
	Threshold float64
}

// Apply returns s with ScoreGate set. It fails closed: a missing or failed
// evaluation, or any missing, non-numeric or out-of-range sub-score, yields
// passed=false with a zero average.
func (g Gate) Apply(s AnalysisState) AnalysisState {
	ev := s.Evaluation
	if ev == nil || ev.Failed() {
		s.ScoreGate = &GateResult{Passed: false, Average: 0, Reason: ReasonEvaluationFailed}
		return s
	}

	var sum float64
	for _, c := range []*Criterion{ev.MarketFit, ev.Plausibility, ev.Originality} {
		if c == nil || !c.Score.Valid || c.Score.Value < MinScore || c.Score.Value > MaxScore {
			s.ScoreGate = &GateResult{Passed: false, Average: 0, Reason: ReasonScoreExtraction}
			return s
		}
		sum += c.Score.Value
	}

	average := sum / 3
	passed := average >= g.Threshold
	reason := ReasonBelowThreshold
	if passed {
		reason = ReasonPassed
	}
	s.ScoreGate = &GateResult{Passed: passed, Average: average, Reason: reason}
	return s
}

// Node adapts Apply to a graph node. It never returns an error.
func (g Gate) Node() workflow.NodeFunc[AnalysisState] {
	return func(ctx context.Context, s AnalysisState) (AnalysisState, error) {
		next := g.Apply(s)
		workflow.LoggerFrom(ctx).InfoContext(ctx, "score gate",
			"passed", next.ScoreGate.Passed,
			"average", next.ScoreGate.Average,
			"reason", next.ScoreGate.Reason,
		)
		return next, nil
	}
}
