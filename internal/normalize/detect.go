// Package normalize converts Henrik match payloads of either schema version
// into the canonical (v3-shaped) layout and decodes it into model.Match.
package normalize

import "github.com/pable/valmetrics/internal/model"

// Detect reports which schema a payload uses. Checks run cheapest first and
// are evaluated in priority order, so the answer is never ambiguous.
func Detect(p Payload) model.SchemaVersion {
	if p == nil {
		return model.SchemaUnknown
	}
	if md := asMap(p["metadata"]); md != nil {
		if _, ok := md["match_id"]; ok {
			return model.SchemaV4
		}
	}
	if _, ok := p["players"].([]any); ok {
		return model.SchemaV4
	}
	if _, ok := p["teams"].([]any); ok {
		return model.SchemaV4
	}
	return model.SchemaV3
}
