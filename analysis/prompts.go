package analysis

import (
	"fmt"
	"strings"

	"github.com/spetersoncode/novelreview/pipeline"
)

const classifySystem = "Respond with JSON only."

const classifyPrompt = `You determine the form of a piece of writing.

Read the text below and decide its form.

Criteria:
- novel_text: narrative prose (scenes, emotions and events are described)
- scenario: a script, mostly dialogue with scene directions
- plot: a synopsis that summarizes events in plain sentences
- unknown: none of the above clearly applies

Respond only with JSON in this shape:

{
  "type": "novel_text | scenario | plot | unknown",
  "confidence": 0.0,
  "reason": "one sentence explaining the decision"
}

Text:
%s
`

const summaryPrompt = `You summarize web novel manuscripts for editors.

Read the manuscript below. Its paragraphs are numbered.

Respond only with JSON in this shape:

{
  "full_summary": "summary of the whole manuscript in 3 to 5 sentences",
  "keywords": ["keyword 1", "keyword 2", "keyword 3"],
  "paragraph_summaries": ["one sentence per numbered paragraph, in order"]
}

Manuscript:
%s
`

const genrePrompt = `You classify web novel genres.

Read the manuscript below and identify its genre as readers of web novel
platforms would (fantasy, romance fantasy, modern fantasy, martial arts,
romance, mystery, thriller and so on).

%s
Respond only with JSON in this shape:

{
  "main_genre": "the main genre",
  "sub_genres": ["secondary genre"],
  "keywords": ["keyword that supports the decision"],
  "confidence": 0.0
}

confidence is a number between 0 and 1.

Manuscript:
%s
`

const evaluationPrompt = `You evaluate web novels. Follow the criteria below strictly.

[Criteria]

1. Market fit (0 to 100)
- Judge against the genres, tropes and keywords currently popular on web novel platforms.
- Judge competitiveness within the genre given in [Genre analysis].
- Ignore personal taste and literary polish.

2. Plausibility (0 to 100)
- Judge whether character choices and events follow logically.
- Look for broken settings, missing motivation and unearned outcomes.
- Genre tropes are not a flaw in themselves.

3. Originality (0 to 100)
- Judge how the story differs from common stories, settings and keywords.
- Fresh combinations, variations and viewpoints count even without a new premise.
- A list of popular elements is not originality.

---

[Genre analysis]
Main genre: %s
Sub genres: %s
Keywords: %s

[Manuscript]
%s...

---

For each criterion give a score and a reason of 2 to 3 sentences, then an
overall comment of 3 to 4 sentences.

Respond only with JSON in this shape, without Markdown code fences:

{
  "market_fit": {"score": 0, "reason": "explanation"},
  "plausibility": {"score": 0, "reason": "explanation"},
  "originality": {"score": 0, "reason": "explanation"},
  "overall_comment": "overall evaluation"
}
`

const charactersPrompt = `You review character writing in web novels.

Read the manuscript below and judge whether the characters stay consistent
as the story progresses and how much depth they have.

Respond only with JSON in this shape:

{
  "consistency_score": 0,
  "depth_score": 0,
  "comment": "2 to 3 sentences on the cast",
  "risk_points": ["place where a character acts out of character"]
}

Scores are numbers from 0 to 100.

Manuscript:
%s
`

const cardsPrompt = `You create character cards for web novels.
Read the manuscript below and summarize its major characters as cards.
Classify each as protagonist, supporting or antagonist.

[Guidelines]

- Leave out minor characters.
- Write "unknown" when a name is not clear.
- Keep speculation to a minimum and stay with what the text shows.
- Do not praise or judge characters; record observed traits only.
- Write "unknown" for anything the text does not establish.

---

[Manuscript]
%s

---

Respond only with a JSON array in this shape:

[
  {
    "name": "character name",
    "role": "protagonist | supporting | antagonist",
    "personality_keywords": ["trait 1", "trait 2", "trait 3"],
    "core_traits": "2 to 3 sentences describing the character",
    "warning_point": "what to watch to keep the character consistent (empty string if none)"
  }
]
`

const stylePrompt = `You analyze prose style in web novels.
Read the manuscript below and analyze its style and narration.

[Criteria]

1. Style features
- narration (first or third person, observational or immersive)
- density and intensity of emotional expression
- overall mood

2. Strengths
- what draws the reader in
- emotional delivery
- fit with the genre

3. Weaknesses
- repeated expressions
- excessive emotional description
- anything that hurts readability

---

[Manuscript]
%s

---

Respond only with JSON in this shape:

{
  "style_features": ["feature 1", "feature 2"],
  "strengths": ["strength 1", "strength 2"],
  "weaknesses": ["weakness 1", "weakness 2"]
}
`

// numberParagraphs prefixes each paragraph of text with its index.
func numberParagraphs(paragraphs []string) string {
	var b strings.Builder
	for i, p := range paragraphs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, p)
	}
	return b.String()
}

func summaryContext(s *pipeline.Summary) string {
	if s == nil || s.FullSummary == "" {
		return ""
	}
	return fmt.Sprintf("A summary of the manuscript is available:\n%s\n", s.FullSummary)
}

// genreFields renders genre for the evaluation prompt.
func genreFields(g *pipeline.Genre) (main, subs, keywords string) {
	main, subs, keywords = "unknown", "none", "none"
	if g == nil || g.Failed() {
		return main, subs, keywords
	}
	if g.MainGenre != nil && *g.MainGenre != "" {
		main = *g.MainGenre
	}
	if len(g.SubGenres) > 0 {
		subs = strings.Join(g.SubGenres, ", ")
	}
	if len(g.Keywords) > 0 {
		keywords = strings.Join(g.Keywords, ", ")
	}
	return main, subs, keywords
}
