package model

import "strings"

// SchemaVersion identifies which provider response layout a payload used.
type SchemaVersion int

const (
	SchemaUnknown SchemaVersion = 0
	SchemaV3      SchemaVersion = 3
	SchemaV4      SchemaVersion = 4
)

func (v SchemaVersion) String() string {
	switch v {
	case SchemaV3:
		return "v3"
	case SchemaV4:
		return "v4"
	default:
		return "?"
	}
}

// CanonicalTeam folds a team label to its comparison form ("Red" -> "red").
func CanonicalTeam(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// ---- Canonical match, produced by the normalizer ----

type Match struct {
	MatchID      string
	MapName      string
	Mode         string
	ModeID       string
	Queue        QueueRef
	StartedAt    string
	RoundsPlayed int
	Rounds       []Round
	Players      []PlayerIdentity
	Teams        map[string]TeamResult // keyed by CanonicalTeam label

	// SchemaVersion records the layout the payload arrived in. It is
	// provenance only and is ignored when comparing matches.
	SchemaVersion SchemaVersion

	// Issues lists non-fatal decode problems, e.g. an undecodable rounds block.
	Issues []string
}

// Player returns the identity record for puuid.
func (m Match) Player(puuid string) (PlayerIdentity, bool) {
	for _, p := range m.Players {
		if p.PUUID == puuid {
			return p, true
		}
	}
	return PlayerIdentity{}, false
}

// TeamWon reports whether the given team label won the match.
func (m Match) TeamWon(team string) bool {
	return m.Teams[CanonicalTeam(team)].Won
}

type TeamResult struct {
	Won        bool
	RoundsWon  int
	RoundsLost int
}

type PlayerIdentity struct {
	PUUID string
	Name  string
	Tag   string
	Team  string
	Agent string

	// Match-level totals as reported by the provider.
	Totals    PlayerTotals
	Abilities AbilityCasts
}

// DisplayName returns "name#tag". It is for display only and never an identity key.
func (p PlayerIdentity) DisplayName() string {
	if p.Tag == "" {
		return p.Name
	}
	return p.Name + "#" + p.Tag
}

type PlayerTotals struct {
	Kills, Deaths, Assists     int
	Score                      int
	Headshots, Bodyshots       int
	Legshots                   int
	DamageMade, DamageReceived int
}

type Round struct {
	Index       int
	WinningTeam string
	PlayerStats []PlayerRoundStat
	Plants      []SiteEvent
	Defuses     []SiteEvent
}

// Stat returns the round record for puuid.
func (r Round) Stat(puuid string) (PlayerRoundStat, bool) {
	for _, ps := range r.PlayerStats {
		if ps.PUUID == puuid {
			return ps, true
		}
	}
	return PlayerRoundStat{}, false
}

// TeamOf returns the team label puuid played for in this round, or "".
func (r Round) TeamOf(puuid string) string {
	if ps, ok := r.Stat(puuid); ok {
		return ps.Team
	}
	return ""
}

// KillEvents returns every kill of the round in event-list order: player
// records in the order given, each player's kills in the order given.
func (r Round) KillEvents() []KillEvent {
	var out []KillEvent
	for _, ps := range r.PlayerStats {
		out = append(out, ps.KillEvents...)
	}
	return out
}

// Died reports whether puuid was the victim of any kill in the round.
func (r Round) Died(puuid string) bool {
	for _, ps := range r.PlayerStats {
		for _, k := range ps.KillEvents {
			if k.VictimPUUID == puuid {
				return true
			}
		}
	}
	return false
}

type PlayerRoundStat struct {
	PUUID        string
	Team         string
	Kills        int
	KillEvents   []KillEvent // ascending TimeInRound once extracted
	DamageEvents []DamageEvent
	LoadoutValue int
	Abilities    AbilityCasts
}

type AbilityCasts struct {
	Basic1    int // C
	Basic2    int // Q
	Signature int // E
	Ultimate  int // X
}

func (a AbilityCasts) Total() int {
	return a.Basic1 + a.Basic2 + a.Signature + a.Ultimate
}

func (a AbilityCasts) Add(o AbilityCasts) AbilityCasts {
	return AbilityCasts{
		Basic1:    a.Basic1 + o.Basic1,
		Basic2:    a.Basic2 + o.Basic2,
		Signature: a.Signature + o.Signature,
		Ultimate:  a.Ultimate + o.Ultimate,
	}
}

type KillEvent struct {
	TimeInRound int // ms
	TimeInMatch int // ms
	KillerPUUID string
	VictimPUUID string
	Assistants  []string
	Weapon      string
}

type DamageEvent struct {
	ReceiverPUUID string
	Damage        int
	Bodyshots     int
	Headshots     int
	Legshots      int
}

// SiteEvent is a spike plant or defuse.
type SiteEvent struct {
	ActorPUUID  string
	TimeInRound int
	Site        string
}
