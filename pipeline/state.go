package pipeline

import (
	"slices"

	"github.com/spetersoncode/novelreview/workflow"
)

// AnalysisState is the value threaded through the manuscript graph.
//
// Nodes receive it by value and return an updated copy with only their own
// field replaced. Result records are never mutated after a node stores
// them, so copies may share record pointers; the Errors slice is copied on
// every append.
type AnalysisState struct {
	Text           string               `json:"text"`
	TextType       *TextType            `json:"text_type"`
	Summary        *Summary             `json:"summary"`
	Genre          *Genre               `json:"genre"`
	Evaluation     *Evaluation          `json:"evaluation"`
	ScoreGate      *GateResult          `json:"score_gate"`
	Characters     *Characters          `json:"characters"`
	CharacterCards *CharacterCards      `json:"character_cards"`
	Style          *Style               `json:"style"`
	Errors         []workflow.NodeError `json:"errors"`
}

// NewState returns the initial state for text.
func NewState(text string) AnalysisState {
	return AnalysisState{Text: text, Errors: []workflow.NodeError{}}
}

// RecordError returns a copy of s with err appended to the error log.
func (s AnalysisState) RecordError(err workflow.NodeError) AnalysisState {
	errs := make([]workflow.NodeError, len(s.Errors), len(s.Errors)+1)
	copy(errs, s.Errors)
	s.Errors = append(errs, err)
	return s
}

// Clone returns a copy of s that shares no slices with it.
func (s AnalysisState) Clone() AnalysisState {
	s.Errors = slices.Clone(s.Errors)
	if s.Errors == nil {
		s.Errors = []workflow.NodeError{}
	}
	return s
}

// Stopped reports whether the run ended before the deep analysis stages,
// either by classification or by the score gate, without errors.
func (s AnalysisState) Stopped() bool {
	if len(s.Errors) > 0 {
		return false
	}
	return RouteByTextType(s) == RouteUnknown || (s.ScoreGate != nil && !s.ScoreGate.Passed)
}
