package calc

import "github.com/pable/valmetrics/internal/model"

// MultiKillMin is the kill count at which a round becomes a multi-kill round.
const MultiKillMin = 3

// MultiKillResult counts multi-kill rounds. Counting is per round: a 6-kill
// round is one multi-kill, a 2-kill round is none.
type MultiKillResult struct {
	Count  int
	ThreeK int
	FourK  int
	FiveK  int   // five or more
	Rounds []int // indices of qualifying rounds
}

// MultiKills counts rounds with two or more kills, bucketing three kills and up.
func MultiKills(puuid string, rounds []model.Round) MultiKillResult {
	var res MultiKillResult
	for _, r := range rounds {
		stat, ok := r.Stat(puuid)
		if !ok || stat.Kills < MultiKillMin {
			continue
		}
		res.Count++
		res.Rounds = append(res.Rounds, r.Index)
		switch {
		case stat.Kills >= 5:
			res.FiveK++
		case stat.Kills == 4:
			res.FourK++
		default:
			res.ThreeK++
		}
	}
	return res
}

// IsMultiKill reports whether puuid had a multi-kill in r.
func IsMultiKill(puuid string, r model.Round) bool {
	stat, ok := r.Stat(puuid)
	return ok && stat.Kills >= MultiKillMin
}
