package aggregator

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/pable/valmetrics/internal/model"
	"github.com/pable/valmetrics/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// IDs for test players. A and A2 play red, B, B2 and B3 blue.
const (
	playerA  = "puuid-a"
	playerA2 = "puuid-a2"
	playerB  = "puuid-b"
	playerB2 = "puuid-b2"
	playerB3 = "puuid-b3"
)

func kill(t int, killer, victim string) model.KillEvent {
	return model.KillEvent{TimeInRound: t, KillerPUUID: killer, VictimPUUID: victim}
}

// makeRound builds a round with every test player present. kills are
// attributed to their killer's record.
func makeRound(idx int, winner string, loadoutA int, kills ...model.KillEvent) model.Round {
	teams := []struct{ id, team string }{
		{playerA, "red"}, {playerA2, "red"},
		{playerB, "blue"}, {playerB2, "blue"}, {playerB3, "blue"},
	}
	r := model.Round{Index: idx, WinningTeam: winner}
	for _, p := range teams {
		ps := model.PlayerRoundStat{PUUID: p.id, Team: p.team, LoadoutValue: 4500}
		if p.id == playerA {
			ps.LoadoutValue = loadoutA
		}
		for _, k := range kills {
			if k.KillerPUUID == p.id {
				ps.KillEvents = append(ps.KillEvents, k)
				ps.Kills++
			}
		}
		r.PlayerStats = append(r.PlayerStats, ps)
	}
	return r
}

func makeMatch(id string, rounds []model.Round, redWon bool) model.Match {
	return model.Match{
		MatchID:      id,
		MapName:      "Bind",
		Mode:         "Competitive",
		ModeID:       "competitive",
		Queue:        model.TextQueue("competitive"),
		RoundsPlayed: len(rounds),
		Rounds:       rounds,
		Players: []model.PlayerIdentity{
			{PUUID: playerA, Name: "A", Tag: "1", Team: "red", Agent: "Jett", Totals: model.PlayerTotals{Kills: 5, Deaths: 1}},
			{PUUID: playerA2, Name: "A2", Team: "red"},
			{PUUID: playerB, Name: "B", Team: "blue"},
			{PUUID: playerB2, Name: "B2", Team: "blue"},
			{PUUID: playerB3, Name: "B3", Team: "blue"},
		},
		Teams: map[string]model.TeamResult{
			"red":  {Won: redWon},
			"blue": {Won: !redWon},
		},
	}
}

// thirteenRounds: A kills 1/1/3 in rounds 0-2, eco in round 0, dies once in
// round 1 after the kill and survives every later round.
func thirteenRounds() []model.Round {
	rounds := []model.Round{
		makeRound(0, "red", 800, kill(4000, playerA, playerB)),
		makeRound(1, "blue", 4500, kill(2000, playerA, playerB), kill(9000, playerB2, playerA)),
		makeRound(2, "red", 4500, kill(1000, playerA, playerB), kill(2000, playerA, playerB2), kill(3000, playerA, playerB3)),
	}
	for i := 3; i < 13; i++ {
		rounds = append(rounds, makeRound(i, "blue", 4500))
	}
	return rounds
}

func TestAnalyzeMatch_ThirteenRoundScenario(t *testing.T) {
	m := makeMatch("m13", thirteenRounds(), false)

	res, err := AnalyzeMatch(m, playerA)
	require.NoError(t, err)

	assert.Equal(t, model.SourceExact, res.Source)
	assert.Equal(t, 13, res.RoundsPlayed)
	assert.Equal(t, 1, res.MultiKills)
	assert.Equal(t, 1, res.ThreeK)
	assert.Equal(t, []int{2}, res.MultiKillRounds)
	assert.GreaterOrEqual(t, res.EcoKills, 1)
	assert.Equal(t, 1, res.EcoRounds)
	assert.Equal(t, 1, res.EcoWins)
	assert.Equal(t, 13, res.KASTRounds)
	assert.InDelta(t, 1.0, res.KAST, 1e-9)
	assert.Equal(t, 3, res.FirstKills)
	assert.Equal(t, 3, res.EntryAttempts)
	assert.Equal(t, 2, res.EntryWins)
	assert.Empty(t, res.Estimated)
	assert.Empty(t, res.Warnings)
}

func loadPayload(t *testing.T, name string) normalize.Payload {
	t.Helper()
	raw, err := os.ReadFile("../normalize/testdata/" + name)
	require.NoError(t, err)
	var env struct {
		Data normalize.Payload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	return env.Data
}

func TestAnalyzeMatch_V4PayloadNormalizedFirst(t *testing.T) {
	p := loadPayload(t, "match_v4.json")
	require.Equal(t, model.SchemaV4, normalize.Detect(p))

	m, err := normalize.Parse(p)
	require.NoError(t, err)

	res, err := AnalyzeMatch(m, "pu-a")
	require.NoError(t, err)

	assert.Equal(t, model.SchemaV4, res.SchemaVersion)
	assert.Equal(t, model.SourceExact, res.Source)
	assert.Equal(t, 2, res.RoundsPlayed)
	assert.Equal(t, 2, res.KASTRounds)
	assert.Equal(t, 1, res.FirstKills)
	assert.Equal(t, 1, res.EntryWins)
	assert.Equal(t, 1, res.EcoRounds)
	assert.Equal(t, 1, res.EcoKills)
	assert.Equal(t, 1, res.EcoWins)
	assert.InDelta(t, 155.0, res.DamagePerKill, 1e-9)
	assert.Equal(t, 2, res.Plants)
	assert.Equal(t, 10, res.Abilities.Total())
	assert.False(t, res.Won)

	m3, err := normalize.Parse(loadPayload(t, "match_v3.json"))
	require.NoError(t, err)
	res3, err := AnalyzeMatch(m3, "pu-a")
	require.NoError(t, err)
	res3.SchemaVersion = res.SchemaVersion
	assert.Equal(t, res, res3)
}

func TestAnalyzeMatch_FallbackWithoutRounds(t *testing.T) {
	m := makeMatch("m-agg", nil, true)
	m.RoundsPlayed = 10
	m.Players[0].Totals = model.PlayerTotals{Kills: 30, Assists: 2, Deaths: 4}
	m.Players[0].Abilities = model.AbilityCasts{Ultimate: 2}

	res, err := AnalyzeMatch(m, playerA)
	require.NoError(t, err)

	assert.Equal(t, model.SourceEstimated, res.Source)
	assert.True(t, res.IsEstimated(model.FieldKAST))
	assert.True(t, res.IsEstimated(model.FieldMultiKills))
	assert.True(t, res.IsUnavailable(model.FieldClutches))
	assert.False(t, res.IsUnavailable(model.FieldAbilities))
	assert.Equal(t, 10, res.KASTRounds)
	assert.Equal(t, 7, res.FourK)
	assert.Equal(t, 2, res.Abilities.Ultimate)
	assert.True(t, res.Won)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnNoRoundDetail, res.Warnings[0].Code)
}

func TestAnalyzeMatch_RoundGapFallsBack(t *testing.T) {
	rounds := thirteenRounds()
	rounds = append(rounds[:5], rounds[6:]...)
	m := makeMatch("m-gap", rounds, false)
	m.RoundsPlayed = 13

	res, err := AnalyzeMatch(m, playerA)
	require.NoError(t, err)
	assert.Equal(t, model.SourceEstimated, res.Source)
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, WarnRoundData, res.Warnings[0].Code)
	assert.Equal(t, 13, res.RoundsPlayed)
}

func TestAnalyzeMatch_PlayerNotInMatch(t *testing.T) {
	_, err := AnalyzeMatch(makeMatch("m1", thirteenRounds(), true), "stranger")
	require.ErrorIs(t, err, ErrPlayerNotInMatch)
}

func TestAnalyzeAll(t *testing.T) {
	m := makeMatch("m13", thirteenRounds(), false)
	all, err := AnalyzeAll(m)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, playerA, all[0].PUUID, "sorted by kills")
}

func TestRoundBreakdown(t *testing.T) {
	rows, err := RoundBreakdown(makeMatch("m13", thirteenRounds(), false), playerA)
	require.NoError(t, err)
	require.Len(t, rows, 13)

	assert.True(t, rows[0].IsEco)
	assert.True(t, rows[0].IsOpeningKill)
	assert.True(t, rows[0].WonRound)
	assert.False(t, rows[1].Survived)
	assert.True(t, rows[1].KASTEarned)
	assert.True(t, rows[2].IsMultiKill)
	assert.Equal(t, 3, rows[2].Kills)
	assert.True(t, rows[12].Survived)
	assert.False(t, rows[12].WonRound)
}

func result(matchID string, competitive bool, rounds, kastRounds int, won bool) model.PlayerMatchResult {
	r := model.PlayerMatchResult{
		MatchID:      matchID,
		PUUID:        playerA,
		Name:         "A",
		MapName:      "Haven",
		Agent:        "Sova",
		Won:          won,
		RoundsPlayed: rounds,
		KASTRounds:   kastRounds,
		Totals:       model.PlayerTotals{Kills: rounds, Deaths: rounds / 2, DamageMade: rounds * 150},
		ClutchAttempts: map[string]int{
			"1v2": 1,
		},
		ClutchWins: map[string]int{},
		Source:     model.SourceExact,
	}
	if competitive {
		r.Mode, r.Queue = "Competitive", model.TextQueue("competitive")
	} else {
		r.Mode, r.Queue = "Unrated", model.ObjectQueue("unrated", "Unrated", "Standard")
	}
	return r
}

func TestAggregate_CompetitiveOnlyExcludesRounds(t *testing.T) {
	results := []model.PlayerMatchResult{
		result("comp", true, 13, 10, true),
		result("casual", false, 20, 5, false),
	}

	s, err := Aggregate(results, Filter{CompetitiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Matches)
	assert.Equal(t, 13, s.RoundsPlayed)
	assert.InDelta(t, 10.0/13.0, s.KAST(), 1e-9)
	require.Len(t, s.Excluded, 1)
	assert.Equal(t, "casual", s.Excluded[0].MatchID)
	assert.Equal(t, "competitive", s.Filter)

	all, err := Aggregate(results, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 33, all.RoundsPlayed)
	assert.InDelta(t, 15.0/33.0, all.KAST(), 1e-9)
	assert.Equal(t, 2, all.ClutchAttempts["1v2"])
	assert.Empty(t, all.Excluded)
}

func TestAggregate_KASTIsRoundWeighted(t *testing.T) {
	s, err := Aggregate([]model.PlayerMatchResult{
		result("short", true, 2, 2, true),
		result("long", true, 20, 10, true),
	}, Filter{})
	require.NoError(t, err)
	// per-match average would be 0.75
	assert.InDelta(t, 12.0/22.0, s.KAST(), 1e-9)
}

func TestAggregate_Streaks(t *testing.T) {
	outcomes := []bool{true, true, true, false, false, true, false, false, false, false}
	var results []model.PlayerMatchResult
	for i, won := range outcomes {
		results = append(results, result(string(rune('a'+i)), true, 13, 7, won))
	}
	s, err := Aggregate(results, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Wins)
	assert.Equal(t, 6, s.Losses)
	assert.Equal(t, 3, s.MaxWinStreak)
	assert.Equal(t, 4, s.MaxLossStreak)
	assert.Equal(t, 4, s.CurrentLossStreak)
	assert.Equal(t, 0, s.CurrentWinStreak)
	assert.InDelta(t, 40.0, s.WinRate(), 1e-9)
	assert.Equal(t, 10, s.MapsPlayed["Haven"])
}

func TestAggregate_OrdersByStartTime(t *testing.T) {
	older := result("older", true, 13, 7, false)
	older.StartedAt = "2025-01-01T10:00:00Z"
	newer := result("newer", true, 13, 7, true)
	newer.StartedAt = "2025-01-02T10:00:00Z"

	s, err := Aggregate([]model.PlayerMatchResult{newer, older}, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentWinStreak)
}

func TestAggregate_EstimatedTagsCarry(t *testing.T) {
	est := result("est", true, 13, 9, true)
	est.Source = model.SourceEstimated
	est.Estimated = []string{model.FieldMultiKills, model.FieldKAST}

	s, err := Aggregate([]model.PlayerMatchResult{result("x", true, 13, 7, true), est}, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{model.FieldKAST, model.FieldMultiKills}, s.Estimated)
	assert.True(t, s.IsEstimated(model.FieldKAST))
}

func TestAggregate_UnavailableTagsCarry(t *testing.T) {
	est := result("est", true, 13, 9, true)
	est.Source = model.SourceEstimated
	est.Unavailable = []string{model.FieldEco, model.FieldEntryDuels}

	s, err := Aggregate([]model.PlayerMatchResult{result("x", true, 13, 7, true), est, est}, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{model.FieldEntryDuels, model.FieldEco}, s.Unavailable)
	assert.True(t, s.IsPartial(model.FieldEco))
	assert.False(t, s.IsPartial(model.FieldKAST))

	exact, err := Aggregate([]model.PlayerMatchResult{result("x", true, 13, 7, true)}, Filter{})
	require.NoError(t, err)
	assert.Empty(t, exact.Unavailable)
}

func TestAggregate_MixedPlayers(t *testing.T) {
	other := result("m2", true, 13, 7, true)
	other.PUUID = playerB
	_, err := Aggregate([]model.PlayerMatchResult{result("m1", true, 13, 7, true), other}, Filter{})
	require.ErrorIs(t, err, ErrMixedPlayers)
}

func TestAggregate_Empty(t *testing.T) {
	s, err := Aggregate(nil, Filter{CompetitiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Matches)
	assert.Equal(t, 0.0, s.KAST())
}

func TestFilterCheck(t *testing.T) {
	err := Filter{CompetitiveOnly: true}.Check(result("c", false, 13, 7, true))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFilterMismatch))
	assert.NoError(t, Filter{}.Check(result("c", false, 13, 7, true)))
}

func TestIsCompetitive(t *testing.T) {
	assert.True(t, IsCompetitive("Competitive", "", model.QueueRef{}))
	assert.True(t, IsCompetitive("", "competitive", model.QueueRef{}))
	assert.True(t, IsCompetitive("", "", model.TextQueue("competitive")))
	assert.True(t, IsCompetitive("", "", model.ObjectQueue("competitive", "Competitive", "Standard")))
	assert.False(t, IsCompetitive("Unrated", "unrated", model.ObjectQueue("unrated", "Unrated", "Standard")))

	assert.True(t, IsCompetitiveValue("COMPETITIVE"))
	assert.True(t, IsCompetitiveValue(map[string]any{"id": "competitive", "name": "Competitive"}))
	assert.False(t, IsCompetitiveValue(map[string]any{"id": "swiftplay"}))
	assert.False(t, IsCompetitiveValue(nil))
}
