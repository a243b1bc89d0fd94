// Package calc holds the round-level stat calculators. Every function is a
// pure function of a player puuid and rounds as returned by rounds.Extract.
package calc

import "github.com/pable/valmetrics/internal/model"

const (
	// TradeWindowMs is how long after a death a teammate has to kill the
	// killer for the death to count as traded.
	TradeWindowMs = 3000

	// DamageAssistMin is the damage a player must deal to a victim who died
	// that round to earn a damage assist.
	DamageAssistMin = 50
)

// KASTFlags are the per-round KAST criteria for one player.
type KASTFlags struct {
	Present      bool // player has a record for this round
	Kill         bool
	Assist       bool // official assist
	DamageAssist bool
	Survived     bool
	Traded       bool
}

// Earned reports whether the round counts toward KAST.
func (f KASTFlags) Earned() bool {
	return f.Present && (f.Kill || f.Assist || f.DamageAssist || f.Survived || f.Traded)
}

// KASTResult counts KAST rounds. A round that meets several criteria adds to
// each criterion counter but only once to KASTRounds.
type KASTResult struct {
	Rounds     int
	KASTRounds int
	Kill       int
	Assist     int
	Survive    int
	Trade      int
}

// Ratio returns KASTRounds/Rounds, or 0 when no rounds were played.
func (r KASTResult) Ratio() float64 {
	if r.Rounds == 0 {
		return 0
	}
	return float64(r.KASTRounds) / float64(r.Rounds)
}

// KAST counts the rounds in which puuid meets any KAST criterion.
func KAST(puuid string, rounds []model.Round) KASTResult {
	var res KASTResult
	for _, r := range rounds {
		f := KASTRound(puuid, r)
		if !f.Present {
			continue
		}
		res.Rounds++
		if f.Kill {
			res.Kill++
		}
		if f.Assist || f.DamageAssist {
			res.Assist++
		}
		if f.Survived {
			res.Survive++
		}
		if f.Traded {
			res.Trade++
		}
		if f.Earned() {
			res.KASTRounds++
		}
	}
	return res
}

// KASTRound evaluates the four KAST criteria for one round.
func KASTRound(puuid string, r model.Round) KASTFlags {
	stat, ok := r.Stat(puuid)
	if !ok {
		return KASTFlags{}
	}
	f := KASTFlags{Present: true}
	f.Kill = stat.Kills > 0 || len(stat.KillEvents) > 0

	events := r.KillEvents()
	for _, k := range events {
		for _, a := range k.Assistants {
			if a == puuid {
				f.Assist = true
			}
		}
	}

	dealt := make(map[string]int)
	for _, d := range stat.DamageEvents {
		dealt[d.ReceiverPUUID] += d.Damage
	}
	for receiver, dmg := range dealt {
		if receiver == puuid || (stat.Team != "" && r.TeamOf(receiver) == stat.Team) {
			continue
		}
		if dmg >= DamageAssistMin && r.Died(receiver) {
			f.DamageAssist = true
			break
		}
	}

	death, died := deathOf(puuid, events)
	f.Survived = !died
	if died {
		f.Traded = traded(puuid, stat.Team, death, r, events)
	}
	return f
}

// deathOf returns the earliest kill event where puuid is the victim.
func deathOf(puuid string, events []model.KillEvent) (model.KillEvent, bool) {
	var (
		best  model.KillEvent
		found bool
	)
	for _, k := range events {
		if k.VictimPUUID != puuid {
			continue
		}
		if !found || k.TimeInRound < best.TimeInRound {
			best, found = k, true
		}
	}
	return best, found
}

// traded reports whether a teammate killed the player's killer within
// (0, TradeWindowMs] after the death.
func traded(puuid, team string, death model.KillEvent, r model.Round, events []model.KillEvent) bool {
	if death.KillerPUUID == "" || death.KillerPUUID == puuid {
		return false
	}
	for _, k := range events {
		if k.VictimPUUID != death.KillerPUUID || k.KillerPUUID == puuid {
			continue
		}
		if team != "" && r.TeamOf(k.KillerPUUID) != team {
			continue
		}
		dt := k.TimeInRound - death.TimeInRound
		if dt > 0 && dt <= TradeWindowMs {
			return true
		}
	}
	return false
}
