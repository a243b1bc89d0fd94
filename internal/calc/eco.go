package calc

import "github.com/pable/valmetrics/internal/model"

// EcoLoadoutThreshold is the loadout value below which a round is an eco
// round for that player.
const EcoLoadoutThreshold = 4000

// EcoResult reports eco counts. No blended score is derived.
type EcoResult struct {
	EcoRounds int
	EcoKills  int
	EcoWins   int
}

// IsEco reports whether the player's loadout made r an eco round.
func IsEco(stat model.PlayerRoundStat) bool {
	return stat.LoadoutValue < EcoLoadoutThreshold
}

// Eco counts the player's eco rounds and the kills and wins made in them.
func Eco(puuid string, rounds []model.Round) EcoResult {
	var res EcoResult
	for _, r := range rounds {
		stat, ok := r.Stat(puuid)
		if !ok || !IsEco(stat) {
			continue
		}
		res.EcoRounds++
		res.EcoKills += stat.Kills
		if stat.Team != "" && stat.Team == r.WinningTeam {
			res.EcoWins++
		}
	}
	return res
}
