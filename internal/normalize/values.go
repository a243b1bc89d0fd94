package normalize

import (
	"fmt"
	"strings"
)

// Payload is one fully parsed match object as produced by encoding/json.
type Payload = map[string]any

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// textOf reads a field that may be a plain string or an object carrying a
// "name"/"id" label.
func textOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, k := range []string{"name", "id"} {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
	case nil:
	default:
		return fmt.Sprint(t)
	}
	return ""
}

func puuidOf(v any) any {
	if m := asMap(v); m != nil {
		return m["puuid"]
	}
	return nil
}

func teamOf(v any) any {
	if m := asMap(v); m != nil {
		return m["team"]
	}
	return nil
}

// clone deep-copies the JSON-shaped value so rewrites never touch the caller's payload.
func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = clone(val)
		}
		return out
	default:
		return t
	}
}

func lowerTeam(v any) string {
	s, _ := v.(string)
	return strings.ToLower(strings.TrimSpace(s))
}

func intOf(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}
