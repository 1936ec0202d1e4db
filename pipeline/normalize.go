package pipeline

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Normalize converts a raw collaborator result into structured data.
//
// Maps and slices are returned unchanged. Strings, byte slices and
// json.RawMessage are unwrapped from Markdown code fences and an optional
// "json" language tag, then decoded strictly. A result that does not decode
// becomes {"raw_response": <original>, "parse_error": true}. Values of any
// other type are returned unchanged. Normalize never panics.
func Normalize(raw any) any {
	switch v := raw.(type) {
	case map[string]any, []any:
		return v
	case string:
		return decodeText(v)
	case []byte:
		return decodeText(string(v))
	case json.RawMessage:
		return decodeText(string(v))
	default:
		return raw
	}
}

func decodeText(original string) any {
	body := stripFences(original)

	dec := json.NewDecoder(strings.NewReader(body))
	var out any
	if err := dec.Decode(&out); err != nil || !atEOF(dec) {
		return parseFailure(original)
	}
	return out
}

// atEOF reports whether only whitespace follows the decoded value.
func atEOF(dec *json.Decoder) bool {
	_, err := dec.Token()
	return errors.Is(err, io.EOF)
}

// stripFences removes surrounding backticks and a leading "json" tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = strings.TrimSpace(s[4:])
	}
	return s
}

func parseFailure(original string) map[string]any {
	return map[string]any{
		"raw_response": original,
		"parse_error":  true,
	}
}

// isParseFailure reports whether v is the marker produced by Normalize.
func isParseFailure(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	if flag, _ := m["parse_error"].(bool); !flag {
		return "", false
	}
	raw, _ := m["raw_response"].(string)
	return raw, true
}
