package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/spetersoncode/novelreview"
	"github.com/spetersoncode/novelreview/ingest"
	"github.com/spetersoncode/novelreview/pipeline"
)

// Classification pre-filter limits.
const (
	MinChars     = 200
	MinSentences = 3
)

// MaxEvaluationChars is how much of the manuscript the evaluation prompt
// includes.
const MaxEvaluationChars = 3000

const (
	classifyTemperature = 0.2
	defaultTemperature  = 0.3
)

// Classification reasons produced without a usable model answer.
const (
	ReasonTooShort     = "text too short to determine its form"
	ReasonFewSentences = "too few sentences to determine its form"
	ReasonParseFailed  = "response parse failed"
)

var _ pipeline.Analyzer = (*Analyzer)(nil)

// Analyzer answers the pipeline's analysis calls with a chat provider.
// It is safe for concurrent use when the provider is.
type Analyzer struct {
	chat   novelreview.ChatProvider
	model  string
	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(a *Analyzer) {
		a.model = model
	}
}

// WithLogger sets the logger for per-call diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// New creates an Analyzer over chat.
func New(chat novelreview.ChatProvider, opts ...Option) *Analyzer {
	a := &Analyzer{chat: chat, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ClassifyTextType decides whether text is novel prose, a scenario or a
// plot. Short texts and texts with too few sentences are classified as
// unknown without calling the model.
func (a *Analyzer) ClassifyTextType(ctx context.Context, text string) (pipeline.TextType, error) {
	text = ingest.Normalize(text)
	if utf8.RuneCountInString(text) < MinChars {
		return pipeline.TextType{Type: pipeline.KindUnknown, Confidence: 0.1, Reason: ReasonTooShort}, nil
	}
	if ingest.CountTerminators(text) < MinSentences {
		return pipeline.TextType{Type: pipeline.KindUnknown, Confidence: 0.1, Reason: ReasonFewSentences}, nil
	}

	content, err := a.complete(ctx, "text_type",
		[]novelreview.Message{
			novelreview.SystemMessage(classifySystem),
			novelreview.UserMessage(fmt.Sprintf(classifyPrompt, text)),
		},
		classifyTemperature, true,
	)
	if err != nil {
		return pipeline.TextType{}, err
	}

	var tt pipeline.TextType
	if err := decodeInto(content, &tt); err != nil || tt.Type == "" {
		a.logger.WarnContext(ctx, "text type response not decodable", "error", err)
		return pipeline.TextType{Type: pipeline.KindUnknown, Confidence: 0, Reason: ReasonParseFailed}, nil
	}
	return tt, nil
}

// Summarize produces a whole-text summary, keywords and one summary per
// paragraph. A response that is not JSON is an error.
func (a *Analyzer) Summarize(ctx context.Context, text string) (pipeline.Summary, error) {
	paragraphs := ingest.Paragraphs(ingest.Normalize(text))
	content, err := a.complete(ctx, "summary",
		[]novelreview.Message{novelreview.UserMessage(fmt.Sprintf(summaryPrompt, numberParagraphs(paragraphs)))},
		defaultTemperature, true,
	)
	if err != nil {
		return pipeline.Summary{}, err
	}

	var s pipeline.Summary
	if err := decodeInto(content, &s); err != nil {
		return pipeline.Summary{}, fmt.Errorf("summary: %w", err)
	}
	return s, nil
}

// DetectGenre returns the raw genre response. The summary, when present,
// is included as context.
func (a *Analyzer) DetectGenre(ctx context.Context, text string, summary *pipeline.Summary) (any, error) {
	prompt := fmt.Sprintf(genrePrompt, summaryContext(summary), text)
	return a.complete(ctx, "genre", []novelreview.Message{novelreview.UserMessage(prompt)}, defaultTemperature, true)
}

// EvaluateStory returns the raw evaluation response. Only the first
// MaxEvaluationChars characters of text are sent.
func (a *Analyzer) EvaluateStory(ctx context.Context, text string, genre *pipeline.Genre) (any, error) {
	main, subs, keywords := genreFields(genre)
	prompt := fmt.Sprintf(evaluationPrompt, main, subs, keywords, ingest.Truncate(text, MaxEvaluationChars))
	return a.complete(ctx, "evaluation", []novelreview.Message{novelreview.UserMessage(prompt)}, defaultTemperature, true)
}

// AnalyzeCharacters returns the raw character consistency response.
func (a *Analyzer) AnalyzeCharacters(ctx context.Context, text string) (any, error) {
	prompt := fmt.Sprintf(charactersPrompt, text)
	return a.complete(ctx, "characters", []novelreview.Message{novelreview.UserMessage(prompt)}, defaultTemperature, true)
}

// ExtractCharacterCards returns the raw character card response. The
// response is a JSON array, so JSON mode is not requested.
func (a *Analyzer) ExtractCharacterCards(ctx context.Context, text string) (any, error) {
	prompt := fmt.Sprintf(cardsPrompt, text)
	return a.complete(ctx, "character_cards", []novelreview.Message{novelreview.UserMessage(prompt)}, defaultTemperature, false)
}

// AnalyzeStyle returns the raw style response.
func (a *Analyzer) AnalyzeStyle(ctx context.Context, text string) (any, error) {
	prompt := fmt.Sprintf(stylePrompt, text)
	return a.complete(ctx, "style", []novelreview.Message{novelreview.UserMessage(prompt)}, defaultTemperature, true)
}

func (a *Analyzer) complete(ctx context.Context, call string, messages []novelreview.Message, temperature float64, jsonMode bool) (string, error) {
	opts := []novelreview.Option{novelreview.WithTemperature(temperature)}
	if a.model != "" {
		opts = append(opts, novelreview.WithModel(a.model))
	}
	if jsonMode {
		opts = append(opts, novelreview.WithJSONResponse())
	}

	start := time.Now()
	resp, err := a.chat.Chat(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", call, err)
	}
	a.logger.DebugContext(ctx, "analysis call complete",
		"call", call,
		"duration", time.Since(start),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return resp.Content, nil
}

var errNotJSON = errors.New("response is not JSON")

// decodeInto normalizes content and decodes it into v.
func decodeInto(content string, v any) error {
	normalized := pipeline.Normalize(content)
	if m, ok := normalized.(map[string]any); ok {
		if failed, _ := m["parse_error"].(bool); failed {
			return errNotJSON
		}
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
