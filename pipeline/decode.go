package pipeline

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// keyAliases maps alternative key names, including the Korean keys that
// Korean-language prompts produce, onto canonical JSON keys.
var keyAliases = map[string]string{
	// evaluation
	"시장성":   "market_fit",
	"개연성":   "plausibility",
	"독창성":   "originality",
	"점수":    "score",
	"이유":    "reason",
	"종합_총평": "overall_comment",

	// genre
	"주_장르":           "main_genre",
	"보조_장르":          "sub_genres",
	"핵심_키워드":         "keywords",
	"장르_분류_신뢰도":      "confidence",
	"장르 분류 신뢰도":      "confidence",
	"genre_keywords": "keywords",

	// summary and characters
	"overall_summary":       "full_summary",
	"character_consistency": "consistency_score",
	"character_depth":       "depth_score",
}

// canonicalize renames aliased keys recursively. A canonical key already
// present wins over its alias.
func canonicalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if _, isAlias := keyAliases[k]; !isAlias {
				out[k] = canonicalize(val)
			}
		}
		for k, val := range t {
			if canon, isAlias := keyAliases[k]; isAlias {
				if _, exists := out[canon]; !exists {
					out[canon] = canonicalize(val)
				}
			}
		}
		// Non-numeric confidences are treated as absent.
		if c, ok := out["confidence"]; ok {
			if _, isNum := c.(float64); !isNum {
				delete(out, "confidence")
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = canonicalize(val)
		}
		return out
	default:
		return v
	}
}

// failureRecord is implemented by result records embedding Failure.
type failureRecord[T any] interface {
	*T
	setFailure(Failure)
}

// decodeResult normalizes raw and decodes it into a T. It returns an error
// only when the collaborator result cannot be re-encoded at all; every
// malformed response is reported in-band through the record's Failure.
//
// An object whose fields do not all fit T is decoded field by field; fields
// of the wrong shape are dropped. The record is a parse failure only when no
// field survives.
func decodeResult[T any, PT failureRecord[T]](raw any) (*T, error) {
	rec := new(T)
	normalized := Normalize(raw)

	if original, failed := isParseFailure(normalized); failed {
		PT(rec).setFailure(Failure{RawResponse: original, ParseError: true})
		return rec, nil
	}
	if msg, ok := errorMarker(normalized); ok {
		PT(rec).setFailure(Failure{Error: msg})
		return rec, nil
	}

	data, err := json.Marshal(canonicalize(normalized))
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	if err := json.Unmarshal(data, rec); err != nil {
		rec = new(T)
		if n, _ := decodeFields(data, rec); n == 0 || reflect.ValueOf(*rec).IsZero() {
			rec = new(T)
			PT(rec).setFailure(Failure{RawResponse: string(data), ParseError: true})
			return rec, nil
		}
	}

	if d, ok := any(rec).(interface{ dedupe() }); ok {
		d.dedupe()
	}
	return rec, nil
}

// errorMarker reports an explicit collaborator error: an object whose
// "error" key holds a non-empty string.
func errorMarker(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := m["error"].(string)
	return msg, ok && msg != ""
}

// decodeFields decodes a JSON object into dst one key at a time, skipping
// keys whose values do not fit. It returns the number of keys decoded.
func decodeFields[T any](data []byte, dst *T) (int, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return 0, err
	}
	n := 0
	for key, value := range fields {
		one, err := json.Marshal(map[string]json.RawMessage{key: value})
		if err != nil {
			continue
		}
		// Decode into scratch first so a failed key leaves dst untouched.
		var scratch T
		if json.Unmarshal(one, &scratch) != nil {
			continue
		}
		if json.Unmarshal(one, dst) == nil {
			n++
		}
	}
	return n, nil
}
