package calc

import "github.com/pable/valmetrics/internal/model"

// Thresholds for the "efficient" label. The raw average is always reported.
const (
	EfficientDamagePerKill = 155.0
	EfficientMinKills      = 10
)

type EfficiencyResult struct {
	Average       float64 // mean of per-round damage/kills
	RatioSum      float64
	RoundsCounted int // rounds with at least one kill
	Kills         int
}

// Efficient reports low damage per kill over a meaningful number of kills.
func (e EfficiencyResult) Efficient() bool {
	return e.RoundsCounted > 0 && e.Average <= EfficientDamagePerKill && e.Kills >= EfficientMinKills
}

// DamageEfficiency averages, over rounds with kills, the player's damage in
// the round divided by the kills in the round.
func DamageEfficiency(puuid string, rounds []model.Round) EfficiencyResult {
	var res EfficiencyResult
	for _, r := range rounds {
		stat, ok := r.Stat(puuid)
		if !ok || stat.Kills == 0 {
			continue
		}
		dmg := 0
		for _, d := range stat.DamageEvents {
			dmg += d.Damage
		}
		res.RatioSum += float64(dmg) / float64(stat.Kills)
		res.RoundsCounted++
		res.Kills += stat.Kills
	}
	if res.RoundsCounted > 0 {
		res.Average = res.RatioSum / float64(res.RoundsCounted)
	}
	return res
}
