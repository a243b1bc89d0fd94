// Package estimate produces lower-confidence KAST and multi-kill figures for
// matches that only carry match totals. Every value it returns is an
// approximation and must be presented as such.
package estimate

import "github.com/pable/valmetrics/internal/model"

// Kills-per-round brackets that imply multi-kill rounds.
const (
	KPRFiveK  = 4.0
	KPRFourK  = 3.0
	KPRThreeK = 2.5
)

type Result struct {
	RoundsPlayed int
	KASTRounds   int
	ThreeK       int
	FourK        int
	FiveK        int
	Won          bool

	// Estimated is always true; it travels with the value into results.
	Estimated bool
}

// Ratio returns the estimated KAST fraction, 0 when no rounds were played.
func (r Result) Ratio() float64 {
	if r.RoundsPlayed == 0 {
		return 0
	}
	return float64(r.KASTRounds) / float64(r.RoundsPlayed)
}

// MultiKills is the estimated number of multi-kill rounds.
func (r Result) MultiKills() int {
	return r.ThreeK + r.FourK + r.FiveK
}

// Estimate assumes every kill or assist landed in a distinct round, which
// caps KAST at min(rounds, kills+assists) and ignores survival and trades.
// Only the highest matching KPR bracket is filled.
func Estimate(t model.PlayerTotals, roundsPlayed int, matchWon bool) Result {
	res := Result{RoundsPlayed: max(roundsPlayed, 0), Won: matchWon, Estimated: true}
	if res.RoundsPlayed == 0 {
		return res
	}
	res.KASTRounds = min(res.RoundsPlayed, max(t.Kills+t.Assists, 0))

	kpr := float64(t.Kills) / float64(res.RoundsPlayed)
	switch {
	case kpr >= KPRFiveK:
		res.FiveK = max(1, t.Kills/5)
	case kpr >= KPRFourK:
		res.FourK = max(1, t.Kills/4)
	case kpr >= KPRThreeK:
		res.ThreeK = max(1, t.Kills/3)
	}
	return res
}
