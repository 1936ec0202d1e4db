package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
)

// Kind is the text-type classification.
type Kind string

const (
	KindNovelText Kind = "novel_text"
	KindScenario  Kind = "scenario"
	KindPlot      Kind = "plot"
	KindUnknown   Kind = "unknown"
)

// TextType is the classification result.
type TextType struct {
	Type       Kind    `json:"type"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Summary is the summarization result.
type Summary struct {
	FullSummary        string   `json:"full_summary"`
	Keywords           []string `json:"keywords"`
	ParagraphSummaries []string `json:"paragraph_summaries"`
}

// Failure marks a record that could not be produced. ParseError is set when
// the collaborator's response was not decodable; Error carries an explicit
// error marker returned by the collaborator.
type Failure struct {
	RawResponse string `json:"raw_response,omitempty"`
	ParseError  bool   `json:"parse_error,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Failed reports whether the marker is set.
func (f Failure) Failed() bool { return f.ParseError || f.Error != "" }

func (f *Failure) setFailure(v Failure) { *f = v }

// Score is a sub-score on a 0 to 100 scale. It decodes from JSON numbers
// only; any other JSON value, or a number outside the scale, decodes to an
// invalid Score instead of failing the record.
type Score struct {
	Value float64
	Valid bool
}

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// NewScore returns a valid Score.
func NewScore(v float64) Score { return Score{Value: v, Valid: true} }

func (s *Score) UnmarshalJSON(data []byte) error {
	*s = Score{}
	if !isJSONNumber(data) {
		return nil
	}
	v, err := strconv.ParseFloat(string(bytes.TrimSpace(data)), 64)
	if err == nil && v >= MinScore && v <= MaxScore {
		*s = Score{Value: v, Valid: true}
	}
	return nil
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

func isJSONNumber(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9'))
}

// Genre is the genre detection result.
type Genre struct {
	MainGenre  *string  `json:"main_genre"`
	SubGenres  []string `json:"sub_genres"`
	Keywords   []string `json:"keywords"`
	Confidence *float64 `json:"confidence"`
	Failure
}

func (g *Genre) dedupe() {
	g.SubGenres = uniqueStrings(g.SubGenres)
	g.Keywords = uniqueStrings(g.Keywords)
}

// Criterion is one evaluation sub-score with its justification.
type Criterion struct {
	Score  Score  `json:"score"`
	Reason string `json:"reason"`
}

// UnmarshalJSON accepts only objects; any other value decodes to a
// criterion without a valid score.
func (c *Criterion) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*c = Criterion{}
		return nil
	}
	type plain Criterion
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		p = plain{}
		if _, err := decodeFields(data, &p); err != nil {
			return err
		}
	}
	*c = Criterion(p)
	return nil
}

// Evaluation is the quality evaluation result.
type Evaluation struct {
	MarketFit      *Criterion `json:"market_fit,omitempty"`
	Plausibility   *Criterion `json:"plausibility,omitempty"`
	Originality    *Criterion `json:"originality,omitempty"`
	OverallComment string     `json:"overall_comment,omitempty"`
	Failure
}

// GateResult is the score gate decision.
type GateResult struct {
	Passed  bool    `json:"passed"`
	Average float64 `json:"average"`
	Reason  string  `json:"reason"`
}

// Characters is the character consistency analysis.
type Characters struct {
	ConsistencyScore Score    `json:"consistency_score"`
	DepthScore       Score    `json:"depth_score"`
	Comment          string   `json:"comment,omitempty"`
	RiskPoints       []string `json:"risk_points,omitempty"`
	Failure
}

// CharacterCard describes one major character.
type CharacterCard struct {
	Name                string   `json:"name"`
	Role                string   `json:"role"`
	PersonalityKeywords []string `json:"personality_keywords"`
	CoreTraits          string   `json:"core_traits"`
	WarningPoint        string   `json:"warning_point"`
}

// CharacterCards is the array-shaped character card result. It encodes as
// a JSON array, or as the failure object when Failed.
type CharacterCards struct {
	Cards []CharacterCard
	Failure
}

func (c *CharacterCards) dedupe() {
	for i := range c.Cards {
		c.Cards[i].PersonalityKeywords = uniqueStrings(c.Cards[i].PersonalityKeywords)
	}
}

func (c CharacterCards) MarshalJSON() ([]byte, error) {
	if c.Failed() {
		return json.Marshal(c.Failure)
	}
	if c.Cards == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Cards)
}

func (c *CharacterCards) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		cards, err := decodeCards(data)
		if err != nil {
			return err
		}
		*c = CharacterCards{Cards: cards}
		return nil
	}

	// Object forms: a failure marker, or the cards wrapped under a key.
	var obj struct {
		Failure
		Cards      []CharacterCard `json:"cards"`
		Characters []CharacterCard `json:"characters"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	cards := obj.Cards
	if cards == nil {
		cards = obj.Characters
	}
	if cards == nil && !obj.Failed() {
		return errors.New("character cards: expected an array")
	}
	*c = CharacterCards{Cards: cards, Failure: obj.Failure}
	return nil
}

// decodeCards decodes a card array, keeping the usable fields of each card.
// Entries with nothing usable are dropped.
func decodeCards(data []byte) ([]CharacterCard, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	cards := make([]CharacterCard, 0, len(items))
	for _, item := range items {
		var card CharacterCard
		if json.Unmarshal(item, &card) != nil {
			card = CharacterCard{}
			if _, err := decodeFields(item, &card); err != nil {
				continue
			}
		}
		if card.Name == "" && card.Role == "" && card.CoreTraits == "" &&
			card.WarningPoint == "" && len(card.PersonalityKeywords) == 0 {
			continue
		}
		cards = append(cards, card)
	}
	if len(cards) == 0 && len(items) > 0 {
		return nil, errors.New("character cards: no usable entries")
	}
	return cards, nil
}

// Style is the prose style analysis.
type Style struct {
	StyleFeatures []string `json:"style_features"`
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Failure
}

// uniqueStrings drops repeats, keeping first occurrences in order.
func uniqueStrings(in []string) []string {
	if len(in) < 2 {
		return in
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
