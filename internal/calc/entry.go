package calc

import (
	"slices"

	"github.com/pable/valmetrics/internal/model"
)

// EntryResult counts opening duels. Attempts and wins are credited to the
// opener only; FirstDeaths counts rounds where the player was the first victim.
type EntryResult struct {
	FirstKills  int
	FirstDeaths int
	Attempts    int
	Wins        int
}

// WinRate is Wins/Attempts, or 0 without attempts. Callers gate on Attempts.
func (e EntryResult) WinRate() float64 {
	if e.Attempts == 0 {
		return 0
	}
	return float64(e.Wins) / float64(e.Attempts)
}

// OpeningKill returns the earliest kill of the round. Equal timestamps keep
// event-list order. Input order is not trusted.
func OpeningKill(r model.Round) (model.KillEvent, bool) {
	events := r.KillEvents()
	if len(events) == 0 {
		return model.KillEvent{}, false
	}
	slices.SortStableFunc(events, func(a, b model.KillEvent) int {
		return a.TimeInRound - b.TimeInRound
	})
	return events[0], true
}

// EntryDuels tallies the opening duels the player took part in.
func EntryDuels(puuid string, rounds []model.Round) EntryResult {
	var res EntryResult
	for _, r := range rounds {
		open, ok := OpeningKill(r)
		if !ok {
			continue
		}
		if open.KillerPUUID == puuid {
			res.FirstKills++
			res.Attempts++
			if team := r.TeamOf(puuid); team != "" && team == r.WinningTeam {
				res.Wins++
			}
		}
		if open.VictimPUUID == puuid {
			res.FirstDeaths++
		}
	}
	return res
}
