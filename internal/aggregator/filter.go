package aggregator

import (
	"fmt"
	"strings"

	"github.com/pable/valmetrics/internal/model"
)

// Filter selects which matches feed a summary.
type Filter struct {
	CompetitiveOnly bool
}

// Signature is the stable string form used in cache keys.
func (f Filter) Signature() string {
	if f.CompetitiveOnly {
		return "competitive"
	}
	return "all"
}

// Check returns an error wrapping ErrFilterMismatch when r is excluded.
func (f Filter) Check(r model.PlayerMatchResult) error {
	if f.CompetitiveOnly && !IsCompetitive(r.Mode, r.ModeID, r.Queue) {
		return fmt.Errorf("%w: %s is %q, not competitive", ErrFilterMismatch, r.MatchID, describeMode(r))
	}
	return nil
}

func describeMode(r model.PlayerMatchResult) string {
	for _, s := range []string{r.Mode, r.ModeID, r.Queue.String()} {
		if s != "" {
			return s
		}
	}
	return "unknown"
}

// IsCompetitive reports whether any mode label or queue label names the
// competitive queue. Queue may be text or object shaped.
func IsCompetitive(mode, modeID string, q model.QueueRef) bool {
	labels := append([]string{mode, modeID}, q.Labels()...)
	for _, l := range labels {
		if isCompetitiveText(l) {
			return true
		}
	}
	return false
}

// IsCompetitiveValue checks a raw queue or mode value as found in a payload,
// string or {id, name, mode_type} object.
func IsCompetitiveValue(v any) bool {
	switch t := v.(type) {
	case string:
		return isCompetitiveText(t)
	case map[string]any:
		for _, k := range []string{"id", "name", "mode_type"} {
			if s, ok := t[k].(string); ok && isCompetitiveText(s) {
				return true
			}
		}
	}
	return false
}

func isCompetitiveText(s string) bool {
	return strings.Contains(strings.ToLower(s), "competitive")
}
