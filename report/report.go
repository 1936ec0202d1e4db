// Package report renders analysis results for people and for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spetersoncode/novelreview"
	"github.com/spetersoncode/novelreview/ingest"
	"github.com/spetersoncode/novelreview/pipeline"
	"github.com/spetersoncode/novelreview/workflow"
)

// Options adds run metadata to a report.
type Options struct {
	Source   string
	Usage    novelreview.Usage
	Duration time.Duration

	// FontPath is a UTF-8 TrueType font for PDF output.
	FontPath string
}

// Option is a functional option for reports.
type Option func(*Options)

// WithSource names the manuscript, usually its file name.
func WithSource(source string) Option {
	return func(o *Options) {
		o.Source = source
	}
}

// WithUsage records the token usage of the run.
func WithUsage(u novelreview.Usage) Option {
	return func(o *Options) {
		o.Usage = u
	}
}

// WithFont embeds the UTF-8 TrueType font at path in PDF reports. Without
// it PDF reports use Helvetica, which cannot show Hangul or other text
// outside Windows-1252.
func WithFont(path string) Option {
	return func(o *Options) {
		o.FontPath = path
	}
}

// WithDuration records how long the run took.
func WithDuration(d time.Duration) Option {
	return func(o *Options) {
		o.Duration = d
	}
}

func applyOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Document is the JSON report shape.
type Document struct {
	Source     string                 `json:"source,omitempty"`
	DurationMS int64                  `json:"duration_ms,omitempty"`
	Usage      *novelreview.Usage     `json:"usage,omitempty"`
	Status     string                 `json:"status"`
	State      pipeline.AnalysisState `json:"state"`
}

// Run statuses.
const (
	StatusComplete = "complete"
	StatusStopped  = "stopped"
	StatusErrors   = "completed_with_errors"
)

// Status summarizes how a run ended.
func Status(s pipeline.AnalysisState) string {
	switch {
	case len(s.Errors) > 0:
		return StatusErrors
	case s.Stopped():
		return StatusStopped
	default:
		return StatusComplete
	}
}

// JSON writes the state as an indented JSON document.
func JSON(w io.Writer, state pipeline.AnalysisState, opts ...Option) error {
	o := applyOptions(opts)
	doc := Document{
		Source:     o.Source,
		DurationMS: o.Duration.Milliseconds(),
		Status:     Status(state),
		State:      state.Clone(),
	}
	if o.Usage != (novelreview.Usage{}) {
		doc.Usage = &o.Usage
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// Markdown writes a human-readable report. Stages that did not run are
// marked as not analyzed; the error log is listed last.
func Markdown(w io.Writer, state pipeline.AnalysisState, opts ...Option) error {
	o := applyOptions(opts)
	var b strings.Builder

	b.WriteString("# Manuscript analysis\n\n")
	for _, line := range metadata(state, o) {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	writeTextType(&b, state.TextType)
	writeSummary(&b, state.Summary)
	writeGenre(&b, state.Genre)
	writeEvaluation(&b, state.Evaluation)
	writeGate(&b, state.ScoreGate)
	writeStyle(&b, state.Style)
	writeCharacters(&b, state.Characters)
	writeCards(&b, state.CharacterCards)
	writeErrors(&b, state.Errors)

	_, err := io.WriteString(w, b.String())
	return err
}

// metadata returns the report header lines.
func metadata(state pipeline.AnalysisState, o Options) []string {
	var lines []string
	if o.Source != "" {
		lines = append(lines, "Source: "+o.Source)
	}
	lines = append(lines,
		fmt.Sprintf("Length: %d characters, %d paragraphs, %d sentences",
			utf8.RuneCountInString(state.Text),
			len(ingest.Paragraphs(state.Text)),
			len(ingest.Sentences(state.Text)),
		),
		"Status: "+Status(state),
	)
	if o.Duration > 0 {
		lines = append(lines, "Duration: "+o.Duration.Round(time.Millisecond).String())
	}
	if o.Usage != (novelreview.Usage{}) {
		lines = append(lines, fmt.Sprintf("Tokens: %d in, %d out", o.Usage.InputTokens, o.Usage.OutputTokens))
	}
	return lines
}

const notAnalyzed = "_Not analyzed._\n"

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n## %s\n\n", title)
}

// failed writes the failure note and reports whether f is set.
func failed(b *strings.Builder, f pipeline.Failure) bool {
	switch {
	case f.Error != "":
		fmt.Fprintf(b, "_Error: %s_\n", f.Error)
	case f.ParseError:
		b.WriteString("_The response could not be parsed._\n\n")
		if f.RawResponse != "" {
			fmt.Fprintf(b, "```\n%s\n```\n", f.RawResponse)
		}
	default:
		return false
	}
	return true
}

func list(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", label)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func score(s pipeline.Score) string {
	if !s.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%g", s.Value)
}

func writeTextType(b *strings.Builder, tt *pipeline.TextType) {
	section(b, "Text type")
	if tt == nil {
		b.WriteString(notAnalyzed)
		return
	}
	fmt.Fprintf(b, "%s (confidence %.2f)\n", tt.Type, tt.Confidence)
	if tt.Reason != "" {
		fmt.Fprintf(b, "\n%s\n", tt.Reason)
	}
}

func writeSummary(b *strings.Builder, s *pipeline.Summary) {
	section(b, "Summary")
	if s == nil {
		b.WriteString(notAnalyzed)
		return
	}
	fmt.Fprintf(b, "%s\n\n", s.FullSummary)
	if len(s.Keywords) > 0 {
		fmt.Fprintf(b, "Keywords: %s\n\n", strings.Join(s.Keywords, ", "))
	}
	for i, p := range s.ParagraphSummaries {
		fmt.Fprintf(b, "%d. %s\n", i+1, p)
	}
}

func writeGenre(b *strings.Builder, g *pipeline.Genre) {
	section(b, "Genre")
	if g == nil {
		b.WriteString(notAnalyzed)
		return
	}
	if failed(b, g.Failure) {
		return
	}
	main := "unknown"
	if g.MainGenre != nil {
		main = *g.MainGenre
	}
	fmt.Fprintf(b, "Main genre: %s", main)
	if g.Confidence != nil {
		fmt.Fprintf(b, " (confidence %.2f)", *g.Confidence)
	}
	b.WriteString("\n\n")
	if len(g.SubGenres) > 0 {
		fmt.Fprintf(b, "Sub genres: %s\n\n", strings.Join(g.SubGenres, ", "))
	}
	if len(g.Keywords) > 0 {
		fmt.Fprintf(b, "Keywords: %s\n", strings.Join(g.Keywords, ", "))
	}
}

func writeEvaluation(b *strings.Builder, ev *pipeline.Evaluation) {
	section(b, "Evaluation")
	if ev == nil {
		b.WriteString(notAnalyzed)
		return
	}
	if failed(b, ev.Failure) {
		return
	}
	b.WriteString("| Criterion | Score | Reason |\n|---|---|---|\n")
	for _, row := range []struct {
		name string
		c    *pipeline.Criterion
	}{
		{"Market fit", ev.MarketFit},
		{"Plausibility", ev.Plausibility},
		{"Originality", ev.Originality},
	} {
		if row.c == nil {
			fmt.Fprintf(b, "| %s | n/a | |\n", row.name)
			continue
		}
		fmt.Fprintf(b, "| %s | %s | %s |\n", row.name, score(row.c.Score), tableCell(row.c.Reason))
	}
	if ev.OverallComment != "" {
		fmt.Fprintf(b, "\n%s\n", ev.OverallComment)
	}
}

func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func writeGate(b *strings.Builder, g *pipeline.GateResult) {
	section(b, "Score gate")
	if g == nil {
		b.WriteString(notAnalyzed)
		return
	}
	verdict := "not passed"
	if g.Passed {
		verdict = "passed"
	}
	fmt.Fprintf(b, "%s, average %.2f: %s\n", verdict, g.Average, g.Reason)
}

func writeStyle(b *strings.Builder, s *pipeline.Style) {
	section(b, "Style")
	if s == nil {
		b.WriteString(notAnalyzed)
		return
	}
	if failed(b, s.Failure) {
		return
	}
	list(b, "Features", s.StyleFeatures)
	list(b, "Strengths", s.Strengths)
	list(b, "Weaknesses", s.Weaknesses)
}

func writeCharacters(b *strings.Builder, c *pipeline.Characters) {
	section(b, "Characters")
	if c == nil {
		b.WriteString(notAnalyzed)
		return
	}
	if failed(b, c.Failure) {
		return
	}
	fmt.Fprintf(b, "Consistency: %s, depth: %s\n\n", score(c.ConsistencyScore), score(c.DepthScore))
	if c.Comment != "" {
		fmt.Fprintf(b, "%s\n\n", c.Comment)
	}
	list(b, "Risk points", c.RiskPoints)
}

func writeCards(b *strings.Builder, cards *pipeline.CharacterCards) {
	section(b, "Character cards")
	if cards == nil {
		b.WriteString(notAnalyzed)
		return
	}
	if failed(b, cards.Failure) {
		return
	}
	if len(cards.Cards) == 0 {
		b.WriteString("_No major characters found._\n")
		return
	}
	for _, c := range cards.Cards {
		fmt.Fprintf(b, "### %s\n\n", c.Name)
		if c.Role != "" {
			fmt.Fprintf(b, "- Role: %s\n", c.Role)
		}
		if len(c.PersonalityKeywords) > 0 {
			fmt.Fprintf(b, "- Personality: %s\n", strings.Join(c.PersonalityKeywords, ", "))
		}
		if c.CoreTraits != "" {
			fmt.Fprintf(b, "- Traits: %s\n", c.CoreTraits)
		}
		if c.WarningPoint != "" {
			fmt.Fprintf(b, "- Watch: %s\n", c.WarningPoint)
		}
		b.WriteString("\n")
	}
}

func writeErrors(b *strings.Builder, errs []workflow.NodeError) {
	section(b, "Errors")
	if len(errs) == 0 {
		b.WriteString("None.\n")
		return
	}
	for _, e := range errs {
		fmt.Fprintf(b, "- %s: %s\n", e.Node, e.Error)
	}
}
