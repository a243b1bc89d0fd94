package model

import "slices"

// Source tells whether a result came from round-level data or from the
// aggregate-only fallback.
type Source string

const (
	SourceExact     Source = "exact"
	SourceEstimated Source = "estimated"
)

// Field names used to tag estimated or unavailable values. Presentation
// code matches on these, so they must not change.
const (
	FieldKAST          = "kast"
	FieldMultiKills    = "multi_kills"
	FieldEntryDuels    = "entry_duels"
	FieldClutches      = "clutches"
	FieldEco           = "eco"
	FieldDamagePerKill = "damage_per_kill"
	FieldAbilities     = "ability_casts"
	FieldObjectives    = "objectives"
)

// ClutchKeys lists the clutch buckets in display order.
var ClutchKeys = []string{"1v2", "1v3", "1v4", "1v5"}

// Warning is a non-fatal data-quality note attached to a result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlayerMatchResult is the per-match, per-player output of the engine.
type PlayerMatchResult struct {
	MatchID       string        `json:"match_id"`
	MapName       string        `json:"map_name"`
	Mode          string        `json:"mode"`
	ModeID        string        `json:"mode_id,omitempty"`
	Queue         QueueRef      `json:"queue"`
	StartedAt     string        `json:"started_at,omitempty"`
	SchemaVersion SchemaVersion `json:"schema_version"`

	PUUID string `json:"puuid"`
	Name  string `json:"name"`
	Tag   string `json:"tag"`
	Team  string `json:"team"`
	Agent string `json:"agent"`
	Won   bool   `json:"won"`

	RoundsPlayed int          `json:"rounds_played"`
	Totals       PlayerTotals `json:"totals"`

	KASTRounds int     `json:"kast_rounds"`
	KAST       float64 `json:"kast"`

	MultiKills      int   `json:"multi_kills"`
	ThreeK          int   `json:"three_k"`
	FourK           int   `json:"four_k"`
	FiveK           int   `json:"five_k"`
	MultiKillRounds []int `json:"multi_kill_rounds,omitempty"`

	FirstKills    int `json:"first_kills"`
	FirstDeaths   int `json:"first_deaths"`
	EntryAttempts int `json:"entry_attempts"`
	EntryWins     int `json:"entry_wins"`

	ClutchAttempts map[string]int `json:"clutch_attempts"`
	ClutchWins     map[string]int `json:"clutch_wins"`
	ClutchRounds   []int          `json:"clutch_rounds,omitempty"`

	EcoRounds int `json:"eco_rounds"`
	EcoKills  int `json:"eco_kills"`
	EcoWins   int `json:"eco_wins"`

	DamagePerKill       float64 `json:"damage_per_kill"`
	DamagePerKillSum    float64 `json:"damage_per_kill_sum"`
	DamagePerKillRounds int     `json:"damage_per_kill_rounds"`

	Abilities AbilityCasts `json:"abilities"`

	Plants  int `json:"plants"`
	Defuses int `json:"defuses"`

	Source      Source    `json:"source"`
	Estimated   []string  `json:"estimated,omitempty"`
	Unavailable []string  `json:"unavailable,omitempty"`
	Warnings    []Warning `json:"warnings,omitempty"`
}

// IsEstimated reports whether field was produced by the fallback estimator.
func (r *PlayerMatchResult) IsEstimated(field string) bool {
	return slices.Contains(r.Estimated, field)
}

// IsUnavailable reports whether field could not be computed for this match.
func (r *PlayerMatchResult) IsUnavailable(field string) bool {
	return slices.Contains(r.Unavailable, field)
}

func (r *PlayerMatchResult) KDRatio() float64 {
	if r.Totals.Deaths == 0 {
		return float64(r.Totals.Kills)
	}
	return float64(r.Totals.Kills) / float64(r.Totals.Deaths)
}

func (r *PlayerMatchResult) ADR() float64 {
	if r.RoundsPlayed == 0 {
		return 0
	}
	return float64(r.Totals.DamageMade) / float64(r.RoundsPlayed)
}

func (r *PlayerMatchResult) HSPercent() float64 {
	return hsPercent(r.Totals)
}

func (r *PlayerMatchResult) KASTPct() float64 {
	return r.KAST * 100
}

func (r *PlayerMatchResult) EntryWinRate() float64 {
	if r.EntryAttempts == 0 {
		return 0
	}
	return float64(r.EntryWins) / float64(r.EntryAttempts)
}

func (r *PlayerMatchResult) ClutchTotals() (attempts, wins int) {
	return sumCounts(r.ClutchAttempts), sumCounts(r.ClutchWins)
}

// Exclusion records a match left out of a summary and why.
type Exclusion struct {
	MatchID string `json:"match_id"`
	Reason  string `json:"reason"`
}

// PlayerSummary is the cross-match reduction for one player.
type PlayerSummary struct {
	PUUID  string `json:"puuid"`
	Name   string `json:"name"`
	Filter string `json:"filter"`

	Matches int `json:"matches"`
	Wins    int `json:"wins"`
	Losses  int `json:"losses"`

	RoundsPlayed int          `json:"rounds_played"`
	Totals       PlayerTotals `json:"totals"`
	KASTRounds   int          `json:"kast_rounds"`

	MultiKills int `json:"multi_kills"`
	ThreeK     int `json:"three_k"`
	FourK      int `json:"four_k"`
	FiveK      int `json:"five_k"`

	FirstKills    int `json:"first_kills"`
	FirstDeaths   int `json:"first_deaths"`
	EntryAttempts int `json:"entry_attempts"`
	EntryWins     int `json:"entry_wins"`

	ClutchAttempts map[string]int `json:"clutch_attempts"`
	ClutchWins     map[string]int `json:"clutch_wins"`

	EcoRounds int `json:"eco_rounds"`
	EcoKills  int `json:"eco_kills"`
	EcoWins   int `json:"eco_wins"`

	DamagePerKillSum    float64 `json:"damage_per_kill_sum"`
	DamagePerKillRounds int     `json:"damage_per_kill_rounds"`

	Abilities AbilityCasts `json:"abilities"`
	Plants    int          `json:"plants"`
	Defuses   int          `json:"defuses"`

	MapsPlayed   map[string]int `json:"maps_played"`
	AgentsPlayed map[string]int `json:"agents_played"`

	CurrentWinStreak  int `json:"current_win_streak"`
	CurrentLossStreak int `json:"current_loss_streak"`
	MaxWinStreak      int `json:"max_win_streak"`
	MaxLossStreak     int `json:"max_loss_streak"`

	Estimated   []string    `json:"estimated,omitempty"`
	Unavailable []string    `json:"unavailable,omitempty"`
	Excluded    []Exclusion `json:"excluded,omitempty"`
}

func (s *PlayerSummary) IsEstimated(field string) bool {
	return slices.Contains(s.Estimated, field)
}

// IsPartial reports whether field was unavailable in at least one included
// match, so its sum covers only part of the summary.
func (s *PlayerSummary) IsPartial(field string) bool {
	return slices.Contains(s.Unavailable, field)
}

// KAST is recomputed from round totals, never averaged across matches.
func (s *PlayerSummary) KAST() float64 {
	if s.RoundsPlayed == 0 {
		return 0
	}
	return float64(s.KASTRounds) / float64(s.RoundsPlayed)
}

func (s *PlayerSummary) KASTPct() float64 {
	return s.KAST() * 100
}

func (s *PlayerSummary) KDRatio() float64 {
	if s.Totals.Deaths == 0 {
		return float64(s.Totals.Kills)
	}
	return float64(s.Totals.Kills) / float64(s.Totals.Deaths)
}

func (s *PlayerSummary) ADR() float64 {
	if s.RoundsPlayed == 0 {
		return 0
	}
	return float64(s.Totals.DamageMade) / float64(s.RoundsPlayed)
}

func (s *PlayerSummary) HSPercent() float64 {
	return hsPercent(s.Totals)
}

func (s *PlayerSummary) WinRate() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Matches) * 100
}

func (s *PlayerSummary) EntryWinRate() float64 {
	if s.EntryAttempts == 0 {
		return 0
	}
	return float64(s.EntryWins) / float64(s.EntryAttempts)
}

// DamagePerKill averages the per-round damage/kill ratios of every counted round.
func (s *PlayerSummary) DamagePerKill() float64 {
	if s.DamagePerKillRounds == 0 {
		return 0
	}
	return s.DamagePerKillSum / float64(s.DamagePerKillRounds)
}

func (s *PlayerSummary) ClutchTotals() (attempts, wins int) {
	return sumCounts(s.ClutchAttempts), sumCounts(s.ClutchWins)
}

// ClutchSuccessRate is wins over attempts as a percentage.
func (s *PlayerSummary) ClutchSuccessRate() float64 {
	attempts, wins := s.ClutchTotals()
	if attempts == 0 {
		return 0
	}
	return float64(wins) / float64(attempts) * 100
}

// PlayerRoundBreakdown is one row of the per-round drill-down.
type PlayerRoundBreakdown struct {
	MatchID string
	PUUID   string
	Round   int
	Team    string

	Kills        int
	Damage       int
	LoadoutValue int

	GotKill      bool
	GotAssist    bool
	DamageAssist bool
	Survived     bool
	WasTraded    bool
	KASTEarned   bool

	IsOpeningKill  bool
	IsOpeningDeath bool
	IsMultiKill    bool
	IsEco          bool
	InClutch       bool
	ClutchEnemies  int
	WonRound       bool
}

// MatchSummary is a lightweight record for list/show commands.
type MatchSummary struct {
	MatchID       string
	MapName       string
	Mode          string
	Queue         string
	StartedAt     string
	RoundsPlayed  int
	SchemaVersion SchemaVersion
	RedRounds     int
	BlueRounds    int
	HasRounds     bool
}

func hsPercent(t PlayerTotals) float64 {
	shots := t.Headshots + t.Bodyshots + t.Legshots
	if shots == 0 {
		return 0
	}
	return float64(t.Headshots) / float64(shots) * 100
}

func sumCounts(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
