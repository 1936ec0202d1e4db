package pipeline

import (
	"context"
	"errors"
	"sync"
)

// stubAnalyzer returns canned results and records which capabilities ran.
type stubAnalyzer struct {
	mu    sync.Mutex
	calls []string

	textType   TextType
	summary    Summary
	genre      any
	evaluation any
	characters any
	cards      any
	style      any

	failOn map[string]error

	gotSummary *Summary
	gotGenre   *Genre
}

func (s *stubAnalyzer) record(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	return s.failOn[name]
}

func (s *stubAnalyzer) ClassifyTextType(ctx context.Context, text string) (TextType, error) {
	if err := s.record(NodeTextType); err != nil {
		return TextType{}, err
	}
	return s.textType, nil
}

func (s *stubAnalyzer) Summarize(ctx context.Context, text string) (Summary, error) {
	if err := s.record(NodeSummary); err != nil {
		return Summary{}, err
	}
	return s.summary, nil
}

func (s *stubAnalyzer) DetectGenre(ctx context.Context, text string, summary *Summary) (any, error) {
	s.gotSummary = summary
	if err := s.record(NodeGenre); err != nil {
		return nil, err
	}
	return s.genre, nil
}

func (s *stubAnalyzer) EvaluateStory(ctx context.Context, text string, genre *Genre) (any, error) {
	s.gotGenre = genre
	if err := s.record(NodeEvaluation); err != nil {
		return nil, err
	}
	return s.evaluation, nil
}

func (s *stubAnalyzer) AnalyzeCharacters(ctx context.Context, text string) (any, error) {
	if err := s.record(NodeCharacters); err != nil {
		return nil, err
	}
	return s.characters, nil
}

func (s *stubAnalyzer) ExtractCharacterCards(ctx context.Context, text string) (any, error) {
	if err := s.record(NodeCharacterCards); err != nil {
		return nil, err
	}
	return s.cards, nil
}

func (s *stubAnalyzer) AnalyzeStyle(ctx context.Context, text string) (any, error) {
	if err := s.record(NodeStyle); err != nil {
		return nil, err
	}
	return s.style, nil
}

var errUnavailable = errors.New("analysis service unavailable")

// happyAnalyzer succeeds at every stage with evaluation scores a, b, c.
func happyAnalyzer(kind Kind, a, b, c int) *stubAnalyzer {
	return &stubAnalyzer{
		textType: TextType{Type: kind, Confidence: 0.95, Reason: "narrative prose"},
		summary: Summary{
			FullSummary:        "A courier crosses a frozen city.",
			Keywords:           []string{"winter", "courier"},
			ParagraphSummaries: []string{"Departure.", "Arrival."},
		},
		genre: "```json\n{\"main_genre\": \"fantasy\", \"sub_genres\": [\"adventure\", \"adventure\"], \"keywords\": [\"ice\"], \"confidence\": 0.9}\n```",
		evaluation: map[string]any{
			"market_fit":      map[string]any{"score": float64(a), "reason": "popular genre"},
			"plausibility":    map[string]any{"score": float64(b), "reason": "consistent motives"},
			"originality":     map[string]any{"score": float64(c), "reason": "fresh setting"},
			"overall_comment": "Solid opening.",
		},
		characters: `{"consistency_score": 82, "depth_score": 74, "comment": "stable", "risk_points": ["flat rival"]}`,
		cards:      `[{"name": "Mira", "role": "protagonist", "personality_keywords": ["stubborn", "kind", "stubborn"], "core_traits": "Keeps promises.", "warning_point": ""}]`,
		style:      []byte(`{"style_features": ["third person"], "strengths": ["imagery"], "weaknesses": ["long sentences"]}`),
	}
}
