package aggregator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pable/valmetrics/internal/calc"
	"github.com/pable/valmetrics/internal/estimate"
	"github.com/pable/valmetrics/internal/model"
	"github.com/pable/valmetrics/internal/rounds"
)

var (
	ErrPlayerNotInMatch = errors.New("player not in match")
	ErrFilterMismatch   = errors.New("match excluded by filter")
	ErrMixedPlayers     = errors.New("results belong to different players")
)

// Warning codes attached to results.
const (
	WarnDecode        = "decode"
	WarnRoundData     = "round_data"
	WarnNoRoundDetail = "no_round_detail"
)

// AnalyzeMatch computes one player's stats for one match. Round-level
// calculators are used when the match carries clean round detail for the
// player; otherwise the estimator fills KAST and multi-kills and the
// round-only fields are marked unavailable. Data problems never fail the call.
func AnalyzeMatch(m model.Match, puuid string) (model.PlayerMatchResult, error) {
	id, ok := m.Player(puuid)
	if !ok {
		return model.PlayerMatchResult{}, fmt.Errorf("%w: %s in %s", ErrPlayerNotInMatch, puuid, m.MatchID)
	}

	res := model.PlayerMatchResult{
		MatchID:       m.MatchID,
		MapName:       m.MapName,
		Mode:          m.Mode,
		ModeID:        m.ModeID,
		Queue:         m.Queue,
		StartedAt:     m.StartedAt,
		SchemaVersion: m.SchemaVersion,
		PUUID:         id.PUUID,
		Name:          id.Name,
		Tag:           id.Tag,
		Team:          id.Team,
		Agent:         id.Agent,
		Won:           m.TeamWon(id.Team),
		Totals:        id.Totals,
	}
	for _, issue := range m.Issues {
		res.Warnings = append(res.Warnings, model.Warning{Code: WarnDecode, Message: issue})
	}

	rs, err := rounds.Extract(m)
	var dq *rounds.DataQualityError
	switch {
	case errors.As(err, &dq):
		res.Warnings = append(res.Warnings, model.Warning{Code: WarnRoundData, Message: dq.Error()})
		applyEstimate(&res, id, m.RoundsPlayed)
	case err != nil:
		return model.PlayerMatchResult{}, fmt.Errorf("extract rounds %s: %w", m.MatchID, err)
	case !playedRounds(rs, puuid):
		res.Warnings = append(res.Warnings, model.Warning{Code: WarnNoRoundDetail, Message: "match has no round-level data for this player"})
		applyEstimate(&res, id, m.RoundsPlayed)
	default:
		applyExact(&res, id, rs)
	}
	return res, nil
}

func playedRounds(rs []model.Round, puuid string) bool {
	for _, r := range rs {
		if _, ok := r.Stat(puuid); ok {
			return true
		}
	}
	return false
}

func applyExact(res *model.PlayerMatchResult, id model.PlayerIdentity, rs []model.Round) {
	puuid := id.PUUID
	res.Source = model.SourceExact

	kast := calc.KAST(puuid, rs)
	res.RoundsPlayed = kast.Rounds
	res.KASTRounds = kast.KASTRounds
	res.KAST = kast.Ratio()

	mk := calc.MultiKills(puuid, rs)
	res.MultiKills = mk.Count
	res.ThreeK, res.FourK, res.FiveK = mk.ThreeK, mk.FourK, mk.FiveK
	res.MultiKillRounds = mk.Rounds

	entry := calc.EntryDuels(puuid, rs)
	res.FirstKills = entry.FirstKills
	res.FirstDeaths = entry.FirstDeaths
	res.EntryAttempts = entry.Attempts
	res.EntryWins = entry.Wins

	cl := calc.Clutches(puuid, rs)
	res.ClutchAttempts = cl.Attempts
	res.ClutchWins = cl.Wins
	res.ClutchRounds = cl.Rounds

	eco := calc.Eco(puuid, rs)
	res.EcoRounds, res.EcoKills, res.EcoWins = eco.EcoRounds, eco.EcoKills, eco.EcoWins

	eff := calc.DamageEfficiency(puuid, rs)
	res.DamagePerKill = eff.Average
	res.DamagePerKillSum = eff.RatioSum
	res.DamagePerKillRounds = eff.RoundsCounted

	// Some v3 payloads leave round casts null while the match totals are set.
	ab := calc.Abilities(puuid, rs)
	res.Abilities = ab.AbilityCasts
	if ab.Total == 0 {
		res.Abilities = id.Abilities
	}

	obj := calc.Objectives(puuid, rs)
	res.Plants, res.Defuses = obj.Plants, obj.Defuses
}

func applyEstimate(res *model.PlayerMatchResult, id model.PlayerIdentity, roundsPlayed int) {
	est := estimate.Estimate(id.Totals, roundsPlayed, res.Won)
	res.Source = model.SourceEstimated
	res.RoundsPlayed = est.RoundsPlayed
	res.KASTRounds = est.KASTRounds
	res.KAST = est.Ratio()
	res.MultiKills = est.MultiKills()
	res.ThreeK, res.FourK, res.FiveK = est.ThreeK, est.FourK, est.FiveK
	res.ClutchAttempts = map[string]int{}
	res.ClutchWins = map[string]int{}
	res.Abilities = id.Abilities

	res.Estimated = []string{model.FieldKAST, model.FieldMultiKills}
	res.Unavailable = []string{
		model.FieldEntryDuels,
		model.FieldClutches,
		model.FieldEco,
		model.FieldDamagePerKill,
		model.FieldObjectives,
	}
	if id.Abilities.Total() == 0 {
		res.Unavailable = append(res.Unavailable, model.FieldAbilities)
	}
}

// AnalyzeAll runs AnalyzeMatch for every player, sorted by kills descending.
func AnalyzeAll(m model.Match) ([]model.PlayerMatchResult, error) {
	out := make([]model.PlayerMatchResult, 0, len(m.Players))
	for _, p := range m.Players {
		res, err := AnalyzeMatch(m, p.PUUID)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Totals.Kills > out[j].Totals.Kills
	})
	return out, nil
}

// RoundBreakdown returns one row per round the player took part in. When the
// round data has quality problems the rows are still returned together with
// the *rounds.DataQualityError.
func RoundBreakdown(m model.Match, puuid string) ([]model.PlayerRoundBreakdown, error) {
	if _, ok := m.Player(puuid); !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrPlayerNotInMatch, puuid, m.MatchID)
	}
	rs, extractErr := rounds.Extract(m)

	var out []model.PlayerRoundBreakdown
	for _, r := range rs {
		stat, ok := r.Stat(puuid)
		if !ok {
			continue
		}
		flags := calc.KASTRound(puuid, r)
		row := model.PlayerRoundBreakdown{
			MatchID:      m.MatchID,
			PUUID:        puuid,
			Round:        r.Index,
			Team:         stat.Team,
			Kills:        stat.Kills,
			LoadoutValue: stat.LoadoutValue,
			GotKill:      flags.Kill,
			GotAssist:    flags.Assist,
			DamageAssist: flags.DamageAssist,
			Survived:     flags.Survived,
			WasTraded:    flags.Traded,
			KASTEarned:   flags.Earned(),
			IsMultiKill:  calc.IsMultiKill(puuid, r),
			IsEco:        calc.IsEco(stat),
			WonRound:     stat.Team != "" && stat.Team == r.WinningTeam,
		}
		for _, d := range stat.DamageEvents {
			row.Damage += d.Damage
		}
		if open, ok := calc.OpeningKill(r); ok {
			row.IsOpeningKill = open.KillerPUUID == puuid
			row.IsOpeningDeath = open.VictimPUUID == puuid
		}
		row.ClutchEnemies, row.InClutch = calc.ClutchInRound(puuid, r)
		out = append(out, row)
	}
	return out, extractErr
}
