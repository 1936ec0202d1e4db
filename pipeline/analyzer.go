package pipeline

import "context"

// Analyzer is the set of analysis capabilities the graph calls.
//
// Methods returning any may return structured data (maps, slices) or a raw
// response string; results are normalized before they enter the state.
// Implementations should honor ctx cancellation and enforce their own
// timeouts.
type Analyzer interface {
	ClassifyTextType(ctx context.Context, text string) (TextType, error)
	Summarize(ctx context.Context, text string) (Summary, error)
	DetectGenre(ctx context.Context, text string, summary *Summary) (any, error)
	EvaluateStory(ctx context.Context, text string, genre *Genre) (any, error)
	AnalyzeCharacters(ctx context.Context, text string) (any, error)
	ExtractCharacterCards(ctx context.Context, text string) (any, error)
	AnalyzeStyle(ctx context.Context, text string) (any, error)
}
