package aggregator

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/pable/valmetrics/internal/model"
)

// Aggregate reduces per-match results of one player into a summary. Matches
// rejected by f are listed in Excluded and contribute nothing, rounds
// included. Results are taken oldest first unless every one carries a start
// time, in which case they are ordered by it before streaks are computed.
func Aggregate(results []model.PlayerMatchResult, f Filter) (model.PlayerSummary, error) {
	s := model.PlayerSummary{
		Filter:         f.Signature(),
		ClutchAttempts: map[string]int{},
		ClutchWins:     map[string]int{},
		MapsPlayed:     map[string]int{},
		AgentsPlayed:   map[string]int{},
	}
	if len(results) == 0 {
		return s, nil
	}

	s.PUUID = results[0].PUUID
	var included []model.PlayerMatchResult
	for _, r := range results {
		if r.PUUID != s.PUUID {
			return model.PlayerSummary{}, fmt.Errorf("%w: %s and %s", ErrMixedPlayers, s.PUUID, r.PUUID)
		}
		if err := f.Check(r); err != nil {
			if !errors.Is(err, ErrFilterMismatch) {
				return model.PlayerSummary{}, err
			}
			s.Excluded = append(s.Excluded, model.Exclusion{MatchID: r.MatchID, Reason: err.Error()})
			continue
		}
		included = append(included, r)
	}
	chronological(included)

	for _, r := range included {
		if r.Name != "" {
			s.Name = r.Name
		}
		s.Matches++
		if r.Won {
			s.Wins++
		} else {
			s.Losses++
		}
		s.RoundsPlayed += r.RoundsPlayed
		s.Totals = addTotals(s.Totals, r.Totals)
		s.KASTRounds += r.KASTRounds

		s.MultiKills += r.MultiKills
		s.ThreeK += r.ThreeK
		s.FourK += r.FourK
		s.FiveK += r.FiveK

		s.FirstKills += r.FirstKills
		s.FirstDeaths += r.FirstDeaths
		s.EntryAttempts += r.EntryAttempts
		s.EntryWins += r.EntryWins

		for k, v := range r.ClutchAttempts {
			s.ClutchAttempts[k] += v
		}
		for k, v := range r.ClutchWins {
			s.ClutchWins[k] += v
		}

		s.EcoRounds += r.EcoRounds
		s.EcoKills += r.EcoKills
		s.EcoWins += r.EcoWins

		s.DamagePerKillSum += r.DamagePerKillSum
		s.DamagePerKillRounds += r.DamagePerKillRounds

		s.Abilities = s.Abilities.Add(r.Abilities)
		s.Plants += r.Plants
		s.Defuses += r.Defuses

		if r.MapName != "" {
			s.MapsPlayed[r.MapName]++
		}
		if r.Agent != "" {
			s.AgentsPlayed[r.Agent]++
		}
		s.Estimated = mergeFields(s.Estimated, r.Estimated)
		s.Unavailable = mergeFields(s.Unavailable, r.Unavailable)

		if r.Won {
			s.CurrentWinStreak++
			s.CurrentLossStreak = 0
		} else {
			s.CurrentLossStreak++
			s.CurrentWinStreak = 0
		}
		s.MaxWinStreak = max(s.MaxWinStreak, s.CurrentWinStreak)
		s.MaxLossStreak = max(s.MaxLossStreak, s.CurrentLossStreak)
	}
	sort.Strings(s.Estimated)
	sort.Strings(s.Unavailable)
	return s, nil
}

func mergeFields(into, fields []string) []string {
	for _, f := range fields {
		if !slices.Contains(into, f) {
			into = append(into, f)
		}
	}
	return into
}

func chronological(rs []model.PlayerMatchResult) {
	for _, r := range rs {
		if r.StartedAt == "" {
			return
		}
	}
	// RFC 3339 timestamps in one zone sort lexically.
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].StartedAt < rs[j].StartedAt })
}

func addTotals(a, b model.PlayerTotals) model.PlayerTotals {
	return model.PlayerTotals{
		Kills:          a.Kills + b.Kills,
		Deaths:         a.Deaths + b.Deaths,
		Assists:        a.Assists + b.Assists,
		Score:          a.Score + b.Score,
		Headshots:      a.Headshots + b.Headshots,
		Bodyshots:      a.Bodyshots + b.Bodyshots,
		Legshots:       a.Legshots + b.Legshots,
		DamageMade:     a.DamageMade + b.DamageMade,
		DamageReceived: a.DamageReceived + b.DamageReceived,
	}
}
