package calc

import "github.com/pable/valmetrics/internal/model"

// AbilityResult sums round ability casts. Ultimate is available through the
// embedded counters.
type AbilityResult struct {
	model.AbilityCasts
	Total int
}

// Abilities sums the player's ability casts across rounds.
func Abilities(puuid string, rounds []model.Round) AbilityResult {
	var casts model.AbilityCasts
	for _, r := range rounds {
		if stat, ok := r.Stat(puuid); ok {
			casts = casts.Add(stat.Abilities)
		}
	}
	return AbilityResult{AbilityCasts: casts, Total: casts.Total()}
}

type ObjectiveResult struct {
	Plants  int
	Defuses int
}

// Objectives counts spike plants and defuses made by the player.
func Objectives(puuid string, rounds []model.Round) ObjectiveResult {
	var res ObjectiveResult
	for _, r := range rounds {
		for _, p := range r.Plants {
			if p.ActorPUUID == puuid {
				res.Plants++
			}
		}
		for _, d := range r.Defuses {
			if d.ActorPUUID == puuid {
				res.Defuses++
			}
		}
	}
	return res
}
