package calc

import (
	"fmt"

	"github.com/pable/valmetrics/internal/model"
)

// ClutchResult counts clutch situations keyed "1v2".."1v5".
//
// Detection is an approximation: it only sees who was still alive when the
// round ended, so a 1-vs-many split caused by a timeout is counted as well.
type ClutchResult struct {
	Attempts map[string]int
	Wins     map[string]int
	Rounds   []int // indices of clutch wins
}

func (c ClutchResult) Totals() (attempts, wins int) {
	for _, n := range c.Attempts {
		attempts += n
	}
	for _, n := range c.Wins {
		wins += n
	}
	return attempts, wins
}

// ClutchKey formats the bucket for a clutch against enemies opponents.
func ClutchKey(enemies int) string {
	return fmt.Sprintf("1v%d", min(enemies, 5))
}

// Clutches counts clutch attempts and wins per 1vN bucket.
func Clutches(puuid string, rounds []model.Round) ClutchResult {
	res := ClutchResult{Attempts: make(map[string]int), Wins: make(map[string]int)}
	for _, r := range rounds {
		enemies, ok := ClutchInRound(puuid, r)
		if !ok {
			continue
		}
		key := ClutchKey(enemies)
		res.Attempts[key]++
		if r.TeamOf(puuid) == r.WinningTeam {
			res.Wins[key]++
			res.Rounds = append(res.Rounds, r.Index)
		}
	}
	return res
}

// ClutchInRound reports whether puuid was the last player alive on their team
// with at least two opponents alive, and how many opponents that was.
func ClutchInRound(puuid string, r model.Round) (enemies int, ok bool) {
	stat, present := r.Stat(puuid)
	if !present || stat.Team == "" || r.Died(puuid) {
		return 0, false
	}
	alive := make(map[string]int)
	for _, ps := range r.PlayerStats {
		if ps.Team != "" && !r.Died(ps.PUUID) {
			alive[ps.Team]++
		}
	}
	if alive[stat.Team] != 1 {
		return 0, false
	}
	for team, n := range alive {
		if team != stat.Team && n >= 2 {
			enemies = max(enemies, n)
		}
	}
	return enemies, enemies >= 2
}
