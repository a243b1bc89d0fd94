package calc

import (
	"testing"

	"github.com/pable/valmetrics/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two teams: a, a2, a3 on red; b, b2, b3 on blue.

func stat(puuid, team string, kills ...model.KillEvent) model.PlayerRoundStat {
	return model.PlayerRoundStat{
		PUUID:        puuid,
		Team:         team,
		Kills:        len(kills),
		KillEvents:   kills,
		LoadoutValue: 4500,
	}
}

func kill(t int, killer, victim string, assistants ...string) model.KillEvent {
	return model.KillEvent{TimeInRound: t, KillerPUUID: killer, VictimPUUID: victim, Assistants: assistants}
}

func makeRound(idx int, winner string, stats ...model.PlayerRoundStat) model.Round {
	return model.Round{Index: idx, WinningTeam: winner, PlayerStats: stats}
}

// lobby returns a full six-player round with the given per-player overrides.
func lobby(idx int, winner string, overrides ...model.PlayerRoundStat) model.Round {
	base := []model.PlayerRoundStat{
		stat("a", "red"), stat("a2", "red"), stat("a3", "red"),
		stat("b", "blue"), stat("b2", "blue"), stat("b3", "blue"),
	}
	for _, o := range overrides {
		for i := range base {
			if base[i].PUUID == o.PUUID {
				base[i] = o
			}
		}
	}
	return makeRound(idx, winner, base...)
}

func TestKASTZeroRounds(t *testing.T) {
	res := KAST("a", nil)
	assert.Equal(t, 0, res.Rounds)
	assert.Equal(t, 0.0, res.Ratio())

	res = KAST("nobody", []model.Round{lobby(0, "red")})
	assert.Equal(t, 0.0, res.Ratio())
}

func TestKASTCriteria(t *testing.T) {
	withDamage := func(s model.PlayerRoundStat, events ...model.DamageEvent) model.PlayerRoundStat {
		s.DamageEvents = events
		return s
	}

	cases := []struct {
		name  string
		round model.Round
		want  KASTFlags
	}{
		{
			"kill",
			lobby(0, "red", stat("a", "red", kill(1000, "a", "b")), stat("b2", "blue", kill(2000, "b2", "a"))),
			KASTFlags{Present: true, Kill: true},
		},
		{
			"official assist",
			lobby(0, "red", stat("a2", "red", kill(1000, "a2", "b", "a")), stat("b2", "blue", kill(2000, "b2", "a"))),
			KASTFlags{Present: true, Assist: true},
		},
		{
			"damage assist summed per receiver",
			lobby(0, "red",
				withDamage(stat("a", "red"), model.DamageEvent{ReceiverPUUID: "b", Damage: 30}, model.DamageEvent{ReceiverPUUID: "b", Damage: 25}),
				stat("a2", "red", kill(1000, "a2", "b")),
				stat("b2", "blue", kill(2000, "b2", "a"))),
			KASTFlags{Present: true, DamageAssist: true},
		},
		{
			"damage to survivor is no assist",
			lobby(0, "red",
				withDamage(stat("a", "red"), model.DamageEvent{ReceiverPUUID: "b", Damage: 140}),
				stat("b2", "blue", kill(2000, "b2", "a"))),
			KASTFlags{Present: true},
		},
		{
			"damage to a teammate is no assist",
			lobby(0, "red",
				withDamage(stat("a", "red"), model.DamageEvent{ReceiverPUUID: "a2", Damage: 80}),
				stat("b", "blue", kill(1000, "b", "a2"), kill(9000, "b", "a"))),
			KASTFlags{Present: true},
		},
		{
			"survived",
			lobby(0, "red"),
			KASTFlags{Present: true, Survived: true},
		},
		{
			"traded at window edge",
			lobby(0, "red", stat("b", "blue", kill(5000, "b", "a")), stat("a2", "red", kill(8000, "a2", "b"))),
			KASTFlags{Present: true, Traded: true},
		},
		{
			"trade too late",
			lobby(0, "red", stat("b", "blue", kill(5000, "b", "a")), stat("a2", "red", kill(8001, "a2", "b"))),
			KASTFlags{Present: true},
		},
		{
			"same instant is not a trade",
			lobby(0, "red", stat("b", "blue", kill(5000, "b", "a")), stat("a2", "red", kill(5000, "a2", "b"))),
			KASTFlags{Present: true},
		},
		{
			"enemy killing the killer is not a trade",
			lobby(0, "red", stat("b", "blue", kill(5000, "b", "a")), stat("b2", "blue", kill(6000, "b2", "b"))),
			KASTFlags{Present: true},
		},
		{
			"absent",
			makeRound(0, "red", stat("b", "blue")),
			KASTFlags{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := KASTRound("a", tc.round)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want != KASTFlags{} && tc.want != KASTFlags{Present: true}, got.Earned())
		})
	}
}

func TestKASTCountsRoundOnce(t *testing.T) {
	rounds := []model.Round{
		// kill + assist + survive in one round
		lobby(0, "red", stat("a", "red", kill(1000, "a", "b")), stat("a2", "red", kill(2000, "a2", "b2", "a"))),
		// died untraded, nothing else
		lobby(1, "blue", stat("b", "blue", kill(1000, "b", "a"))),
		lobby(2, "red"),
	}
	res := KAST("a", rounds)
	assert.Equal(t, 3, res.Rounds)
	assert.Equal(t, 2, res.KASTRounds)
	assert.Equal(t, 1, res.Kill)
	assert.Equal(t, 1, res.Assist)
	assert.Equal(t, 2, res.Survive)
	assert.InDelta(t, 2.0/3.0, res.Ratio(), 1e-9)
}

func TestMultiKillsRoundBased(t *testing.T) {
	kills := func(n int) []model.KillEvent {
		out := make([]model.KillEvent, n)
		for i := range out {
			out[i] = kill(1000*(i+1), "a", "b")
		}
		return out
	}
	rounds := []model.Round{
		makeRound(0, "red", stat("a", "red", kills(2)...)),
		makeRound(1, "red", stat("a", "red", kills(3)...)),
		makeRound(2, "red", stat("a", "red", kills(6)...)),
		makeRound(3, "red", stat("a", "red", kills(4)...)),
	}

	assert.Equal(t, 0, MultiKills("a", rounds[:1]).Count, "2 kills is not a multi-kill")
	assert.Equal(t, 1, MultiKills("a", rounds[1:2]).Count, "3 kills counts once")
	assert.Equal(t, 1, MultiKills("a", rounds[2:3]).Count, "6 kills still counts once")

	res := MultiKills("a", rounds)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 1, res.ThreeK)
	assert.Equal(t, 1, res.FourK)
	assert.Equal(t, 1, res.FiveK)
	assert.Equal(t, []int{1, 2, 3}, res.Rounds)

	assert.True(t, IsMultiKill("a", rounds[1]))
	assert.False(t, IsMultiKill("a", rounds[0]))
}

func TestMultiKillsUsesReportedKills(t *testing.T) {
	s := stat("a", "red")
	s.Kills = 3
	res := MultiKills("a", []model.Round{makeRound(0, "red", s)})
	assert.Equal(t, 1, res.Count)
}

func TestOpeningKill(t *testing.T) {
	_, ok := OpeningKill(makeRound(0, "red", stat("a", "red")))
	assert.False(t, ok)

	// events out of order; earliest wins regardless of position
	r := makeRound(0, "red",
		stat("a", "red", kill(9000, "a", "b2")),
		stat("b", "blue", kill(4000, "b", "a2"), kill(2000, "b", "a3")),
	)
	open, ok := OpeningKill(r)
	require.True(t, ok)
	assert.Equal(t, "a3", open.VictimPUUID)

	// ties resolve to event-list order: player records first to last
	tie := makeRound(0, "red",
		stat("b", "blue", kill(3000, "b", "a2")),
		stat("a", "red", kill(3000, "a", "b2")),
	)
	open, ok = OpeningKill(tie)
	require.True(t, ok)
	assert.Equal(t, "b", open.KillerPUUID)

	// OpeningKill must not reorder the round's own slices
	assert.Equal(t, 9000, r.PlayerStats[0].KillEvents[0].TimeInRound)
	assert.Equal(t, 4000, r.PlayerStats[1].KillEvents[0].TimeInRound)
}

func TestEntryDuels(t *testing.T) {
	rounds := []model.Round{
		lobby(0, "red", stat("a", "red", kill(1000, "a", "b"))),
		lobby(1, "blue", stat("a", "red", kill(1500, "a", "b"))),
		lobby(2, "blue", stat("b", "blue", kill(800, "b", "a"))),
		lobby(3, "red"),
	}
	res := EntryDuels("a", rounds)
	assert.Equal(t, 2, res.FirstKills)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 1, res.Wins)
	assert.Equal(t, 1, res.FirstDeaths)
	assert.InDelta(t, 0.5, res.WinRate(), 1e-9)

	assert.Equal(t, 0.0, EntryResult{}.WinRate())
}

func TestClutches(t *testing.T) {
	// a alone vs three blues, red wins
	won := lobby(0, "red",
		stat("b", "blue", kill(1000, "b", "a2"), kill(2000, "b", "a3")),
	)
	// a alone vs two blues, blue wins
	lost := lobby(1, "blue",
		stat("b", "blue", kill(1000, "b", "a2")),
		stat("b2", "blue", kill(1500, "b2", "a3")),
		stat("a", "red", kill(3000, "a", "b3")),
	)
	// a alone vs one blue: not a clutch
	even := lobby(2, "red",
		stat("b", "blue", kill(1000, "b", "a2"), kill(1200, "b", "a3")),
		stat("a", "red", kill(3000, "a", "b2"), kill(3100, "a", "b3")),
	)
	// a dead
	dead := lobby(3, "blue", stat("b", "blue", kill(1000, "b", "a")))

	res := Clutches("a", []model.Round{won, lost, even, dead})
	assert.Equal(t, map[string]int{"1v3": 1, "1v2": 1}, res.Attempts)
	assert.Equal(t, map[string]int{"1v3": 1}, res.Wins)
	assert.Equal(t, []int{0}, res.Rounds)

	attempts, wins := res.Totals()
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, wins)

	enemies, ok := ClutchInRound("a", won)
	assert.True(t, ok)
	assert.Equal(t, 3, enemies)
}

func TestClutchKey(t *testing.T) {
	assert.Equal(t, "1v2", ClutchKey(2))
	assert.Equal(t, "1v5", ClutchKey(5))
	assert.Equal(t, "1v5", ClutchKey(7))
}

func TestEco(t *testing.T) {
	eco := func(s model.PlayerRoundStat, loadout int) model.PlayerRoundStat {
		s.LoadoutValue = loadout
		return s
	}
	rounds := []model.Round{
		makeRound(0, "red", eco(stat("a", "red", kill(1000, "a", "b")), 800)),
		makeRound(1, "blue", eco(stat("a", "red", kill(1000, "a", "b"), kill(2000, "a", "b2")), 3999)),
		makeRound(2, "red", eco(stat("a", "red", kill(1000, "a", "b")), 4000)),
	}
	assert.Equal(t, EcoResult{EcoRounds: 2, EcoKills: 3, EcoWins: 1}, Eco("a", rounds))
}

func TestDamageEfficiency(t *testing.T) {
	withDamage := func(s model.PlayerRoundStat, dmg ...int) model.PlayerRoundStat {
		for _, d := range dmg {
			s.DamageEvents = append(s.DamageEvents, model.DamageEvent{ReceiverPUUID: "b", Damage: d})
		}
		return s
	}
	rounds := []model.Round{
		makeRound(0, "red", withDamage(stat("a", "red", kill(1, "a", "b")), 150)),
		makeRound(1, "red", withDamage(stat("a", "red", kill(1, "a", "b"), kill(2, "a", "b2")), 150, 150, 40)),
		makeRound(2, "red", withDamage(stat("a", "red"), 90)),
	}
	res := DamageEfficiency("a", rounds)
	assert.Equal(t, 2, res.RoundsCounted)
	assert.Equal(t, 3, res.Kills)
	assert.InDelta(t, (150.0+170.0)/2, res.Average, 1e-9)
	assert.False(t, res.Efficient(), "too few kills")

	assert.True(t, EfficiencyResult{Average: 150, RoundsCounted: 8, Kills: 10}.Efficient())
	assert.False(t, EfficiencyResult{Average: 156, RoundsCounted: 8, Kills: 12}.Efficient())
	assert.Equal(t, EfficiencyResult{}, DamageEfficiency("a", nil))
}

func TestAbilitiesAndObjectives(t *testing.T) {
	s0 := stat("a", "red")
	s0.Abilities = model.AbilityCasts{Basic1: 1, Basic2: 2, Signature: 1, Ultimate: 1}
	s1 := stat("a", "red")
	s1.Abilities = model.AbilityCasts{Basic1: 1, Signature: 2}

	r0 := makeRound(0, "red", s0)
	r0.Plants = []model.SiteEvent{{ActorPUUID: "a", Site: "A"}}
	r1 := makeRound(1, "blue", s1)
	r1.Plants = []model.SiteEvent{{ActorPUUID: "a2"}}
	r1.Defuses = []model.SiteEvent{{ActorPUUID: "a"}}

	ab := Abilities("a", []model.Round{r0, r1})
	assert.Equal(t, 8, ab.Total)
	assert.Equal(t, 1, ab.Ultimate)
	assert.Equal(t, 3, ab.Signature)

	assert.Equal(t, ObjectiveResult{Plants: 1, Defuses: 1}, Objectives("a", []model.Round{r0, r1}))
}
