package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/spetersoncode/novelreview/pipeline"
)

const pdfFontFamily = "report"

// PDF writes an A4 report with one section per populated result, followed
// by the error log when it is not empty. Stages that did not run are left
// out.
func PDF(w io.Writer, state pipeline.AnalysisState, opts ...Option) error {
	return writePDF(w, state, applyOptions(opts), true)
}

func writePDF(w io.Writer, state pipeline.AnalysisState, o Options, compress bool) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(compress)
	doc.SetTitle("Manuscript analysis", true)
	doc.SetCreator("novelreview", true)

	family := "Helvetica"
	tr := doc.UnicodeTranslatorFromDescriptor("")
	if o.FontPath != "" {
		doc.AddUTF8Font(pdfFontFamily, "", o.FontPath)
		doc.AddUTF8Font(pdfFontFamily, "B", o.FontPath)
		family = pdfFontFamily
		tr = func(s string) string { return s }
	}

	doc.AddPage()
	doc.SetFont(family, "B", 18)
	doc.CellFormat(0, 10, tr("Manuscript analysis"), "", 1, "L", false, 0, "")
	doc.SetFont(family, "", 10)
	for _, line := range metadata(state, o) {
		doc.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}

	for _, sec := range pdfSections(state) {
		doc.Ln(4)
		doc.SetFont(family, "B", 13)
		doc.CellFormat(0, 8, tr(sec.title), "", 1, "L", false, 0, "")
		doc.SetFont(family, "", 10)
		for _, p := range sec.body {
			doc.MultiCell(0, 5, tr(p), "", "L", false)
		}
	}

	if err := doc.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return doc.Output(w)
}

type pdfSection struct {
	title string
	body  []string
}

// pdfSections returns the populated sections in report order.
func pdfSections(s pipeline.AnalysisState) []pdfSection {
	var out []pdfSection
	add := func(title string, body ...string) {
		out = append(out, pdfSection{title: title, body: body})
	}

	if tt := s.TextType; tt != nil {
		body := []string{fmt.Sprintf("%s (confidence %.2f)", tt.Type, tt.Confidence)}
		if tt.Reason != "" {
			body = append(body, tt.Reason)
		}
		add("Text type", body...)
	}
	if sum := s.Summary; sum != nil {
		body := []string{sum.FullSummary}
		if len(sum.Keywords) > 0 {
			body = append(body, "Keywords: "+strings.Join(sum.Keywords, ", "))
		}
		for i, p := range sum.ParagraphSummaries {
			body = append(body, fmt.Sprintf("%d. %s", i+1, p))
		}
		add("Summary", body...)
	}
	if g := s.Genre; g != nil {
		add("Genre", genreLines(g)...)
	}
	if ev := s.Evaluation; ev != nil {
		add("Evaluation", evaluationLines(ev)...)
	}
	if g := s.ScoreGate; g != nil {
		verdict := "not passed"
		if g.Passed {
			verdict = "passed"
		}
		add("Score gate", fmt.Sprintf("%s, average %.2f: %s", verdict, g.Average, g.Reason))
	}
	if st := s.Style; st != nil {
		body, ok := failureLines(st.Failure)
		if !ok {
			body = joined(nil, "Features", st.StyleFeatures)
			body = joined(body, "Strengths", st.Strengths)
			body = joined(body, "Weaknesses", st.Weaknesses)
		}
		add("Style", body...)
	}
	if c := s.Characters; c != nil {
		body, ok := failureLines(c.Failure)
		if !ok {
			body = []string{fmt.Sprintf("Consistency: %s, depth: %s", score(c.ConsistencyScore), score(c.DepthScore))}
			if c.Comment != "" {
				body = append(body, c.Comment)
			}
			body = joined(body, "Risk points", c.RiskPoints)
		}
		add("Characters", body...)
	}
	if cards := s.CharacterCards; cards != nil {
		add("Character cards", cardLines(cards)...)
	}
	if len(s.Errors) > 0 {
		var body []string
		for _, e := range s.Errors {
			body = append(body, e.Node+": "+e.Error)
		}
		add("Errors", body...)
	}
	return out
}

func failureLines(f pipeline.Failure) ([]string, bool) {
	switch {
	case f.Error != "":
		return []string{"Error: " + f.Error}, true
	case f.ParseError:
		lines := []string{"The response could not be parsed."}
		if f.RawResponse != "" {
			lines = append(lines, f.RawResponse)
		}
		return lines, true
	}
	return nil, false
}

func joined(lines []string, label string, items []string) []string {
	if len(items) == 0 {
		return lines
	}
	return append(lines, label+": "+strings.Join(items, "; "))
}

func genreLines(g *pipeline.Genre) []string {
	if lines, ok := failureLines(g.Failure); ok {
		return lines
	}
	main := "unknown"
	if g.MainGenre != nil {
		main = *g.MainGenre
	}
	if g.Confidence != nil {
		main += fmt.Sprintf(" (confidence %.2f)", *g.Confidence)
	}
	lines := []string{"Main genre: " + main}
	if len(g.SubGenres) > 0 {
		lines = append(lines, "Sub genres: "+strings.Join(g.SubGenres, ", "))
	}
	if len(g.Keywords) > 0 {
		lines = append(lines, "Keywords: "+strings.Join(g.Keywords, ", "))
	}
	return lines
}

func evaluationLines(ev *pipeline.Evaluation) []string {
	if lines, ok := failureLines(ev.Failure); ok {
		return lines
	}
	var lines []string
	for _, row := range []struct {
		name string
		c    *pipeline.Criterion
	}{
		{"Market fit", ev.MarketFit},
		{"Plausibility", ev.Plausibility},
		{"Originality", ev.Originality},
	} {
		if row.c == nil {
			lines = append(lines, row.name+": n/a")
			continue
		}
		line := row.name + ": " + score(row.c.Score)
		if row.c.Reason != "" {
			line += ". " + row.c.Reason
		}
		lines = append(lines, line)
	}
	if ev.OverallComment != "" {
		lines = append(lines, ev.OverallComment)
	}
	return lines
}

func cardLines(cards *pipeline.CharacterCards) []string {
	if lines, ok := failureLines(cards.Failure); ok {
		return lines
	}
	if len(cards.Cards) == 0 {
		return []string{"No major characters found."}
	}
	var lines []string
	for _, c := range cards.Cards {
		parts := []string{c.Name}
		if c.Role != "" {
			parts[0] += " (" + c.Role + ")"
		}
		if len(c.PersonalityKeywords) > 0 {
			parts = append(parts, "Personality: "+strings.Join(c.PersonalityKeywords, ", "))
		}
		if c.CoreTraits != "" {
			parts = append(parts, "Traits: "+c.CoreTraits)
		}
		if c.WarningPoint != "" {
			parts = append(parts, "Watch: "+c.WarningPoint)
		}
		lines = append(lines, strings.Join(parts, ". "))
	}
	return lines
}
