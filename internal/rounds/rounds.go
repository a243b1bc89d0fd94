// Package rounds turns a canonical match into an ordered, self-consistent
// round list that the calculators can rely on.
package rounds

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/pable/valmetrics/internal/model"
)

// ErrDataQuality is wrapped by every DataQualityError.
var ErrDataQuality = errors.New("round data quality")

// DataQualityError describes round detail that cannot be trusted. It is never
// fatal: callers fall back to match totals.
type DataQualityError struct {
	MatchID  string
	Problems []string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("match %s: %s", e.MatchID, strings.Join(e.Problems, "; "))
}

func (e *DataQualityError) Unwrap() error { return ErrDataQuality }

// HasRoundDetail reports whether the match carries any per-player round records.
func HasRoundDetail(m model.Match) bool {
	for _, r := range m.Rounds {
		if len(r.PlayerStats) > 0 {
			return true
		}
	}
	return false
}

// Extract returns a fresh copy of the match rounds ordered by index. Kill
// events of each player are stably sorted by time in round and missing
// collections become empty slices. Index gaps, duplicate indices and duplicate
// player records are reported as a *DataQualityError; the rounds are still
// returned so callers can inspect them.
func Extract(m model.Match) ([]model.Round, error) {
	out := make([]model.Round, len(m.Rounds))
	for i, r := range m.Rounds {
		out[i] = copyRound(r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })

	var problems []string
	for i, r := range out {
		if r.Index != i {
			problems = append(problems, fmt.Sprintf("round index %d at position %d (expected %d)", r.Index, i, i))
			break
		}
	}
	if len(out) > 0 && m.RoundsPlayed > 0 && len(out) != m.RoundsPlayed {
		problems = append(problems, fmt.Sprintf("%d rounds present, %d played", len(out), m.RoundsPlayed))
	}
	for _, r := range out {
		seen := make(map[string]bool, len(r.PlayerStats))
		for _, ps := range r.PlayerStats {
			if ps.PUUID == "" {
				problems = append(problems, fmt.Sprintf("round %d: player record without puuid", r.Index))
				continue
			}
			if seen[ps.PUUID] {
				problems = append(problems, fmt.Sprintf("round %d: duplicate record for %s", r.Index, ps.PUUID))
			}
			seen[ps.PUUID] = true
		}
	}

	if len(problems) > 0 {
		return out, &DataQualityError{MatchID: m.MatchID, Problems: problems}
	}
	return out, nil
}

func copyRound(r model.Round) model.Round {
	c := model.Round{
		Index:       r.Index,
		WinningTeam: r.WinningTeam,
		PlayerStats: make([]model.PlayerRoundStat, len(r.PlayerStats)),
		Plants:      append([]model.SiteEvent{}, r.Plants...),
		Defuses:     append([]model.SiteEvent{}, r.Defuses...),
	}
	for i, ps := range r.PlayerStats {
		c.PlayerStats[i] = copyStat(ps)
	}
	return c
}

func copyStat(ps model.PlayerRoundStat) model.PlayerRoundStat {
	c := ps
	c.KillEvents = make([]model.KillEvent, len(ps.KillEvents))
	for i, k := range ps.KillEvents {
		k.Assistants = append([]string{}, k.Assistants...)
		c.KillEvents[i] = k
	}
	slices.SortStableFunc(c.KillEvents, func(a, b model.KillEvent) int {
		return a.TimeInRound - b.TimeInRound
	})
	c.DamageEvents = append([]model.DamageEvent{}, ps.DamageEvents...)
	if c.Kills == 0 && len(c.KillEvents) > 0 {
		c.Kills = len(c.KillEvents)
	}
	return c
}
