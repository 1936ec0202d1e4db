package pipeline

import (
	"context"

	"github.com/spetersoncode/novelreview/workflow"
)

// Node names.
const (
	NodeTextType       = "text_type"
	NodeSummary        = "summary"
	NodeGenre          = "genre"
	NodeEvaluation     = "evaluation"
	NodeScoreGate      = "score_gate"
	NodeStyle          = "style"
	NodeCharacters     = "characters"
	NodeCharacterCards = "character_cards"
)

// nodes binds the analysis nodes to an Analyzer. Every method writes only
// the field it owns.
type nodes struct {
	analyzer Analyzer
}

func (n nodes) textType(ctx context.Context, s AnalysisState) (AnalysisState, error) {
	tt, err := n.analyzer.ClassifyTextType(ctx, s.Text)
	if err != nil {
		return s, err
	}
	s.TextType = &tt
	return s, nil
}

func (n nodes) summary(ctx context.Context, s AnalysisState) (AnalysisState, error) {
	sum, err := n.analyzer.Summarize(ctx, s.Text)
	if err != nil {
		return s, err
	}
	s.Summary = &sum
	return s, nil
}

func (n nodes) genre(ctx context.Context, s AnalysisState) (AnalysisState, error) {
	raw, err := n.analyzer.DetectGenre(ctx, s.Text, s.Summary)
	if err != nil {
		return s, err
	}
	g, err := decodeResult[Genre](raw)
	if err != nil {
		return s, err
	}
	s.Genre = g
	return s, nil
}

func (n nodes) evaluation(ctx context.Context, s AnalysisState) (AnalysisState, error) {
	raw, err := n.analyzer.EvaluateStory(ctx, s.Text, s.Genre)
	if err != nil {
		return s, err
	}
	ev, err := decodeResult[Evaluation](raw)
	if err != nil {
		return s, err
	}
	s.Evaluation = ev
	return s, nil
}

func (n nodes) style(ctx context.Context, s AnalysisState) (AnalysisState, error) {
	raw, err := n.analyzer.AnalyzeStyle(ctx, s.Text)
	if err != nil {
		return s, err
	}
	st, err := decodeResult[Style](raw)
	if err != nil {
		return s, err
	}
	s.Style = st
	return s, nil
}

func (n nodes) characters(ctx context.Context, s AnalysisState) (AnalysisState, error) {
	raw, err := n.analyzer.AnalyzeCharacters(ctx, s.Text)
	if err != nil {
		return s, err
	}
	ch, err := decodeResult[Characters](raw)
	if err != nil {
		return s, err
	}
	s.Characters = ch
	return s, nil
}

func (n nodes) characterCards(ctx context.Context, s AnalysisState) (AnalysisState, error) {
	raw, err := n.analyzer.ExtractCharacterCards(ctx, s.Text)
	if err != nil {
		return s, err
	}
	cards, err := decodeResult[CharacterCards](raw)
	if err != nil {
		return s, err
	}
	s.CharacterCards = cards
	return s, nil
}

// isolated wraps a node with error isolation under its graph name.
func isolated(name string, fn workflow.NodeFunc[AnalysisState]) workflow.NodeFunc[AnalysisState] {
	return workflow.WithErrorIsolation(name, fn)
}
