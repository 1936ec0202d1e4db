package pipeline

import "github.com/spetersoncode/novelreview/workflow"

// Router outcomes.
const (
	RouteNovel         = "novel"
	RoutePlanning      = "planning"
	RouteUnknown       = "unknown"
	RouteDeep          = "deep"
	RouteStop          = "stop"
	RouteContinue      = "continue"
	RouteLowConfidence = "low_confidence"
)

// DefaultGenreConfidenceThreshold is the confidence below which a genre
// result is routed as low confidence.
const DefaultGenreConfidenceThreshold = 0.5

// RouteByTextType picks the branch after classification.
func RouteByTextType(s AnalysisState) string {
	if s.TextType == nil {
		return RouteUnknown
	}
	switch s.TextType.Type {
	case KindNovelText:
		return RouteNovel
	case KindScenario, KindPlot:
		return RoutePlanning
	default:
		return RouteUnknown
	}
}

// RouteByScore picks the branch after the score gate.
func RouteByScore(s AnalysisState) string {
	if s.ScoreGate != nil && s.ScoreGate.Passed {
		return RouteDeep
	}
	return RouteStop
}

// RouteByGenreConfidence routes with DefaultGenreConfidenceThreshold.
func RouteByGenreConfidence(s AnalysisState) string {
	return GenreConfidenceRouter(DefaultGenreConfidenceThreshold)(s)
}

// GenreConfidenceRouter returns a router that reports low confidence when
// the genre confidence is present and below threshold. A missing genre or
// confidence continues.
func GenreConfidenceRouter(threshold float64) workflow.RouterFunc[AnalysisState] {
	return func(s AnalysisState) string {
		if s.Genre == nil || s.Genre.Confidence == nil {
			return RouteContinue
		}
		if *s.Genre.Confidence < threshold {
			return RouteLowConfidence
		}
		return RouteContinue
	}
}
