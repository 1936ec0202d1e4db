package pipeline

import (
	"encoding/json"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("structured values pass through", func(t *testing.T) {
		m := map[string]any{"a": 1.0}
		assert.Equal(t, m, Normalize(m))
		arr := []any{"x", 2.0}
		assert.Equal(t, arr, Normalize(arr))
	})

	t.Run("round trip of a serialized record", func(t *testing.T) {
		rec := map[string]any{
			"main_genre": "romance",
			"sub_genres": []any{"historical"},
			"confidence": 0.75,
			"nested":     map[string]any{"ok": true, "n": nil},
		}
		data, err := json.Marshal(rec)
		require.NoError(t, err)
		assert.Equal(t, rec, Normalize(string(data)))
		assert.Equal(t, rec, Normalize(data))
		assert.Equal(t, rec, Normalize(json.RawMessage(data)))
	})

	t.Run("fences and language tag", func(t *testing.T) {
		tests := []string{
			"```json\n{\"a\":1}\n```",
			"```JSON\n{\"a\":1}\n```",
			"```\n{\"a\":1}\n```",
			"json {\"a\":1}",
			"  {\"a\":1}  ",
		}
		for _, in := range tests {
			assert.Equal(t, map[string]any{"a": 1.0}, Normalize(in), "input %q", in)
		}
	})

	t.Run("malformed input becomes a marker", func(t *testing.T) {
		assert.Equal(t,
			map[string]any{"raw_response": "not json at all", "parse_error": true},
			Normalize("not json at all"))
	})

	t.Run("trailing garbage is malformed", func(t *testing.T) {
		out := Normalize(`{"a":1}}`)
		_, failed := isParseFailure(out)
		assert.True(t, failed)

		out = Normalize(`{"a":1} {"b":2}`)
		_, failed = isParseFailure(out)
		assert.True(t, failed)
	})

	t.Run("empty string is malformed", func(t *testing.T) {
		raw, failed := isParseFailure(Normalize(""))
		assert.True(t, failed)
		assert.Equal(t, "", raw)
	})

	t.Run("other types pass through", func(t *testing.T) {
		assert.Equal(t, 42, Normalize(42))
		assert.Nil(t, Normalize(nil))
	})
}

func TestDecodeResult(t *testing.T) {
	t.Run("korean keys are canonicalized", func(t *testing.T) {
		ev, err := decodeResult[Evaluation](`{
			"시장성": {"점수": 75, "이유": "인기 장르"},
			"개연성": {"점수": 80, "이유": "자연스러움"},
			"독창성": {"점수": 72, "이유": "새로운 조합"},
			"종합_총평": "좋음"
		}`)
		require.NoError(t, err)
		require.NotNil(t, ev.MarketFit)
		assert.Equal(t, NewScore(75), ev.MarketFit.Score)
		assert.Equal(t, "자연스러움", ev.Plausibility.Reason)
		assert.Equal(t, "좋음", ev.OverallComment)
		assert.False(t, ev.Failed())
	})

	t.Run("genre aliases and dedupe", func(t *testing.T) {
		g, err := decodeResult[Genre](map[string]any{
			"주_장르":      "로맨스 판타지",
			"보조_장르":     []any{"궁중", "궁중", "복수"},
			"핵심_키워드":    []any{"회귀"},
			"장르_분류_신뢰도": 0.4,
		})
		require.NoError(t, err)
		require.NotNil(t, g.MainGenre)
		assert.Equal(t, "로맨스 판타지", *g.MainGenre)
		assert.Equal(t, []string{"궁중", "복수"}, g.SubGenres)
		require.NotNil(t, g.Confidence)
		assert.Equal(t, 0.4, *g.Confidence)
	})

	t.Run("non-numeric confidence is absent", func(t *testing.T) {
		g, err := decodeResult[Genre](`{"main_genre": "sf", "confidence": "high"}`)
		require.NoError(t, err)
		assert.Nil(t, g.Confidence)
		assert.False(t, g.Failed())
	})

	t.Run("parse failure marker", func(t *testing.T) {
		st, err := decodeResult[Style]("the model rambled")
		require.NoError(t, err)
		assert.True(t, st.ParseError)
		assert.Equal(t, "the model rambled", st.RawResponse)
	})

	t.Run("explicit error marker", func(t *testing.T) {
		ev, err := decodeResult[Evaluation](map[string]any{"error": "quota exceeded", "market_fit": map[string]any{"score": 90.0}})
		require.NoError(t, err)
		assert.Equal(t, "quota exceeded", ev.Error)
		assert.Nil(t, ev.MarketFit)
	})

	t.Run("shape mismatch is a parse failure", func(t *testing.T) {
		st, err := decodeResult[Style](`{"style_features": "one long string"}`)
		require.NoError(t, err)
		assert.True(t, st.ParseError)
		assert.JSONEq(t, `{"style_features": "one long string"}`, st.RawResponse)
	})

	t.Run("mismatched side field keeps the scores", func(t *testing.T) {
		ev, err := decodeResult[Evaluation](`{
			"market_fit": {"score": 80, "reason": "popular"},
			"plausibility": {"score": 80, "reason": "consistent"},
			"originality": {"score": 80, "reason": "fresh"},
			"overall_comment": ["good pacing", "weak ending"]
		}`)
		require.NoError(t, err)
		assert.False(t, ev.Failed())
		assert.Empty(t, ev.OverallComment)
		require.NotNil(t, ev.Originality)
		assert.Equal(t, "fresh", ev.Originality.Reason)

		gated := Gate{Threshold: DefaultScoreThreshold}.Apply(AnalysisState{Evaluation: ev})
		assert.Equal(t, GateResult{Passed: true, Average: 80, Reason: ReasonPassed}, *gated.ScoreGate)
	})

	t.Run("mismatched criterion reason keeps the score", func(t *testing.T) {
		ev, err := decodeResult[Evaluation](`{"market_fit": {"score": 65, "reason": {"text": "x"}}}`)
		require.NoError(t, err)
		require.NotNil(t, ev.MarketFit)
		assert.Equal(t, NewScore(65), ev.MarketFit.Score)
		assert.Empty(t, ev.MarketFit.Reason)
	})

	t.Run("mismatched genre field keeps the rest", func(t *testing.T) {
		g, err := decodeResult[Genre](`{"main_genre": ["fantasy", "romance"], "sub_genres": ["court"], "confidence": 0.7}`)
		require.NoError(t, err)
		assert.False(t, g.Failed())
		assert.Nil(t, g.MainGenre)
		assert.Equal(t, []string{"court"}, g.SubGenres)
		require.NotNil(t, g.Confidence)
		assert.Equal(t, 0.7, *g.Confidence)
	})

	t.Run("empty or non-string error is not a marker", func(t *testing.T) {
		for _, marker := range []string{`""`, `null`, `false`, `{"code": 1}`} {
			ev, err := decodeResult[Evaluation](`{"error": ` + marker + `, "market_fit": {"score": 90}}`)
			require.NoError(t, err)
			assert.Empty(t, ev.Error, marker)
			require.NotNil(t, ev.MarketFit, marker)
			assert.Equal(t, NewScore(90), ev.MarketFit.Score, marker)
		}
	})

	t.Run("out-of-range scores decode as invalid", func(t *testing.T) {
		ev, err := decodeResult[Evaluation](`{"market_fit": {"score": 150}, "plausibility": {"score": -20}, "originality": {"score": 100}}`)
		require.NoError(t, err)
		assert.False(t, ev.MarketFit.Score.Valid)
		assert.False(t, ev.Plausibility.Score.Valid)
		assert.Equal(t, NewScore(100), ev.Originality.Score)

		gated := Gate{Threshold: DefaultScoreThreshold}.Apply(AnalysisState{Evaluation: ev})
		assert.Equal(t, GateResult{Passed: false, Average: 0, Reason: ReasonScoreExtraction}, *gated.ScoreGate)
	})

	t.Run("non-numeric score decodes as invalid", func(t *testing.T) {
		ev, err := decodeResult[Evaluation](`{"market_fit": {"score": "eighty"}, "plausibility": {"score": "80"}, "originality": 70}`)
		require.NoError(t, err)
		assert.False(t, ev.Failed())
		assert.False(t, ev.MarketFit.Score.Valid)
		assert.False(t, ev.Plausibility.Score.Valid)
		require.NotNil(t, ev.Originality)
		assert.False(t, ev.Originality.Score.Valid)
	})

	t.Run("character cards from array", func(t *testing.T) {
		cards, err := decodeResult[CharacterCards](`[{"name": "A", "personality_keywords": ["x", "x", "y"]}]`)
		require.NoError(t, err)
		require.Len(t, cards.Cards, 1)
		assert.Equal(t, []string{"x", "y"}, cards.Cards[0].PersonalityKeywords)
	})

	t.Run("character cards wrapped in an object", func(t *testing.T) {
		cards, err := decodeResult[CharacterCards](`{"characters": [{"name": "B"}]}`)
		require.NoError(t, err)
		require.Len(t, cards.Cards, 1)
		assert.Equal(t, "B", cards.Cards[0].Name)
	})

	t.Run("character cards keep usable entries", func(t *testing.T) {
		cards, err := decodeResult[CharacterCards](`[
			{"name": "Mira", "role": ["lead", "narrator"], "core_traits": "Keeps promises."},
			"not a card",
			{"name": 7}
		]`)
		require.NoError(t, err)
		assert.False(t, cards.Failed())
		require.Len(t, cards.Cards, 1)
		assert.Equal(t, "Mira", cards.Cards[0].Name)
		assert.Empty(t, cards.Cards[0].Role)
		assert.Equal(t, "Keeps promises.", cards.Cards[0].CoreTraits)
	})

	t.Run("character cards with no usable entry", func(t *testing.T) {
		cards, err := decodeResult[CharacterCards](`["a", 1, {"name": 2}]`)
		require.NoError(t, err)
		assert.True(t, cards.ParseError)
	})

	t.Run("character cards from unrelated object", func(t *testing.T) {
		cards, err := decodeResult[CharacterCards](`{"name": "C"}`)
		require.NoError(t, err)
		assert.True(t, cards.ParseError)
	})
}

func TestCharacterCardsJSON(t *testing.T) {
	t.Run("cards encode as array", func(t *testing.T) {
		data, err := json.Marshal(CharacterCards{Cards: []CharacterCard{{Name: "A"}}})
		require.NoError(t, err)
		assert.JSONEq(t, `[{"name":"A","role":"","personality_keywords":null,"core_traits":"","warning_point":""}]`, string(data))
	})

	t.Run("failure encodes as marker and decodes back", func(t *testing.T) {
		in := CharacterCards{Failure: Failure{RawResponse: "oops", ParseError: true}}
		data, err := json.Marshal(in)
		require.NoError(t, err)
		assert.JSONEq(t, `{"raw_response":"oops","parse_error":true}`, string(data))

		var out CharacterCards
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, in, out)
	})
}

func TestScoreJSON(t *testing.T) {
	var s Score
	require.NoError(t, json.Unmarshal([]byte(`72.5`), &s))
	assert.Equal(t, NewScore(72.5), s)

	require.NoError(t, json.Unmarshal([]byte(`"72"`), &s))
	assert.False(t, s.Valid)

	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	assert.False(t, s.Valid)

	data, err := json.Marshal(Score{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func FuzzNormalize(f *testing.F) {
	for _, seed := range []string{
		`{"main_genre": "sf", "confidence": 0.8}`,
		"```json\n[1, 2, 3]\n```",
		`{"market_fit": {"score": 80}, "overall_comment": ["a"]}`,
		`{"error": "quota"}`,
		`[{"name": "A"}, "b"]`,
		"json",
		"``````",
		`{"a": 1} trailing`,
		"",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		out := Normalize(raw)
		if !json.Valid([]byte(stripFences(raw))) {
			original, failed := isParseFailure(out)
			require.True(t, failed)
			assert.Equal(t, raw, original)
		}

		if utf8.ValidString(raw) {
			data, err := json.Marshal(out)
			require.NoError(t, err)
			assert.Equal(t, out, Normalize(string(data)), "normalize must be stable on its own output")
		}

		_, err := decodeResult[Genre](raw)
		assert.NoError(t, err)
		_, err = decodeResult[Evaluation](raw)
		assert.NoError(t, err)
		_, err = decodeResult[Characters](raw)
		assert.NoError(t, err)
		_, err = decodeResult[CharacterCards](raw)
		assert.NoError(t, err)
		_, err = decodeResult[Style](raw)
		assert.NoError(t, err)
	})
}
