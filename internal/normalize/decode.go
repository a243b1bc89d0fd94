package normalize

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pable/valmetrics/internal/model"
)

// Wire types mirror the canonical payload. Aliased keys observed in the wild
// (c_cast/c_casts, assistant_puuid/puuid, player_team/team) are all declared
// and resolved after decoding.

type wireMetadata struct {
	MatchID      any    `mapstructure:"matchid"`
	Map          any    `mapstructure:"map"`
	Mode         any    `mapstructure:"mode"`
	ModeID       string `mapstructure:"mode_id"`
	Queue        any    `mapstructure:"queue"`
	RoundsPlayed any    `mapstructure:"rounds_played"`
	StartedAt    string `mapstructure:"started_at"`
}

type wireStats struct {
	Score     int `mapstructure:"score"`
	Kills     int `mapstructure:"kills"`
	Deaths    int `mapstructure:"deaths"`
	Assists   int `mapstructure:"assists"`
	Headshots int `mapstructure:"headshots"`
	Bodyshots int `mapstructure:"bodyshots"`
	Legshots  int `mapstructure:"legshots"`
}

type wireAbilities struct {
	C  int `mapstructure:"c_cast"`
	CS int `mapstructure:"c_casts"`
	Q  int `mapstructure:"q_cast"`
	QS int `mapstructure:"q_casts"`
	E  int `mapstructure:"e_cast"`
	ES int `mapstructure:"e_casts"`
	X  int `mapstructure:"x_cast"`
	XS int `mapstructure:"x_casts"`
}

func (a wireAbilities) casts() model.AbilityCasts {
	return model.AbilityCasts{
		Basic1:    firstNonZero(a.C, a.CS),
		Basic2:    firstNonZero(a.Q, a.QS),
		Signature: firstNonZero(a.E, a.ES),
		Ultimate:  firstNonZero(a.X, a.XS),
	}
}

type wirePlayer struct {
	PUUID          any           `mapstructure:"puuid"`
	Name           string        `mapstructure:"name"`
	Tag            string        `mapstructure:"tag"`
	Team           string        `mapstructure:"team"`
	Character      string        `mapstructure:"character"`
	Stats          wireStats     `mapstructure:"stats"`
	AbilityCasts   wireAbilities `mapstructure:"ability_casts"`
	DamageMade     int           `mapstructure:"damage_made"`
	DamageReceived int           `mapstructure:"damage_received"`
}

type wireTeam struct {
	HasWon     bool `mapstructure:"has_won"`
	RoundsWon  int  `mapstructure:"rounds_won"`
	RoundsLost int  `mapstructure:"rounds_lost"`
}

type wireRef struct {
	PUUID string `mapstructure:"puuid"`
}

type wirePlant struct {
	PlantedBy   wireRef `mapstructure:"planted_by"`
	PlayerPUUID string  `mapstructure:"player_puuid"`
	Site        string  `mapstructure:"plant_site"`
	TimeInRound int     `mapstructure:"plant_time_in_round"`
}

type wireDefuse struct {
	DefusedBy    wireRef `mapstructure:"defused_by"`
	DefuserPUUID string  `mapstructure:"defuser_puuid"`
	TimeInRound  int     `mapstructure:"defuse_time_in_round"`
}

type wireAssistant struct {
	AssistantPUUID string `mapstructure:"assistant_puuid"`
	PUUID          string `mapstructure:"puuid"`
}

type wireKill struct {
	TimeInRound int             `mapstructure:"kill_time_in_round"`
	TimeInMatch int             `mapstructure:"kill_time_in_match"`
	KillerPUUID string          `mapstructure:"killer_puuid"`
	VictimPUUID string          `mapstructure:"victim_puuid"`
	Assistants  []wireAssistant `mapstructure:"assistants"`
	Weapon      string          `mapstructure:"damage_weapon_name"`
}

type wireDamage struct {
	ReceiverPUUID string `mapstructure:"receiver_puuid"`
	Damage        int    `mapstructure:"damage"`
	Headshots     int    `mapstructure:"headshots"`
	Bodyshots     int    `mapstructure:"bodyshots"`
	Legshots      int    `mapstructure:"legshots"`
}

type wireEconomy struct {
	LoadoutValue int `mapstructure:"loadout_value"`
}

type wirePlayerRound struct {
	PlayerPUUID  string        `mapstructure:"player_puuid"`
	PlayerTeam   string        `mapstructure:"player_team"`
	Team         string        `mapstructure:"team"`
	Kills        int           `mapstructure:"kills"`
	KillEvents   []wireKill    `mapstructure:"kill_events"`
	DamageEvents []wireDamage  `mapstructure:"damage_events"`
	Economy      wireEconomy   `mapstructure:"economy"`
	AbilityCasts wireAbilities `mapstructure:"ability_casts"`
}

type wireRound struct {
	RoundIndex   *int              `mapstructure:"round_index"`
	WinningTeam  string            `mapstructure:"winning_team"`
	PlayerStats  []wirePlayerRound `mapstructure:"player_stats"`
	PlantEvents  []wirePlant       `mapstructure:"plant_events"`
	DefuseEvents []wireDefuse      `mapstructure:"defuse_events"`
}

// Parse normalizes p and decodes the result.
func Parse(p Payload) (model.Match, error) {
	m, err := Decode(Normalize(p))
	if err != nil {
		return model.Match{}, err
	}
	m.SchemaVersion = Detect(p)
	return m, nil
}

// Decode converts a canonical payload into a typed Match. Only a missing match
// id or player puuid is fatal. A rounds block that cannot be decoded is
// dropped and noted in Match.Issues so callers fall back to match totals.
func Decode(p Payload) (model.Match, error) {
	if p == nil {
		return model.Match{}, &SchemaError{Field: "payload", Reason: "empty"}
	}

	var md wireMetadata
	issues := prefixed("metadata", decodeLenient(p["metadata"], &md))
	matchID, ok := md.MatchID.(string)
	if !ok || matchID == "" {
		return model.Match{}, &SchemaError{Field: "metadata.matchid", Reason: "missing or not a string"}
	}

	m := model.Match{
		MatchID:       matchID,
		MapName:       textOf(md.Map),
		Mode:          textOf(md.Mode),
		ModeID:        md.ModeID,
		Queue:         ParseQueueRef(md.Queue),
		StartedAt:     md.StartedAt,
		SchemaVersion: Detect(p),
		Issues:        issues,
	}

	players, issues, err := decodePlayers(matchID, asMap(p["players"]))
	if err != nil {
		return model.Match{}, err
	}
	m.Players = players
	m.Issues = append(m.Issues, issues...)

	m.Teams = make(map[string]model.TeamResult)
	for label, raw := range asMap(p["teams"]) {
		var t wireTeam
		if err := decode(raw, &t, nil); err != nil {
			m.Issues = append(m.Issues, fmt.Sprintf("team %s: %v", label, err))
			continue
		}
		m.Teams[model.CanonicalTeam(label)] = model.TeamResult{
			Won:        t.HasWon,
			RoundsWon:  t.RoundsWon,
			RoundsLost: t.RoundsLost,
		}
	}

	rounds, err := decodeRounds(asSlice(p["rounds"]))
	if err != nil {
		m.Issues = append(m.Issues, err.Error())
	} else {
		m.Rounds = rounds
	}

	m.RoundsPlayed = len(asSlice(p["rounds"]))
	if md.RoundsPlayed != nil {
		if n, ok := countOf(md.RoundsPlayed); ok {
			m.RoundsPlayed = n
		} else {
			m.Issues = append(m.Issues, fmt.Sprintf("metadata: rounds_played %v is not a number", md.RoundsPlayed))
		}
	}
	return m, nil
}

// decodePlayers fails only on a missing or non-string puuid. Other fields
// with an unexpected shape are zeroed and reported as issues.
func decodePlayers(matchID string, block map[string]any) ([]model.PlayerIdentity, []string, error) {
	raw := asSlice(block["all_players"])
	if raw == nil {
		for _, label := range teamLabels(block) {
			raw = append(raw, asSlice(block[label])...)
		}
	}

	var issues []string
	seen := make(map[string]bool, len(raw))
	out := make([]model.PlayerIdentity, 0, len(raw))
	for i, r := range raw {
		var wp wirePlayer
		bad := decodeLenient(r, &wp)
		puuid, ok := wp.PUUID.(string)
		if !ok || puuid == "" {
			return nil, nil, &SchemaError{MatchID: matchID, Field: fmt.Sprintf("players[%d].puuid", i), Reason: "missing or not a string"}
		}
		issues = append(issues, prefixed("player "+puuid, bad)...)
		if seen[puuid] {
			continue
		}
		seen[puuid] = true
		out = append(out, model.PlayerIdentity{
			PUUID: puuid,
			Name:  wp.Name,
			Tag:   wp.Tag,
			Team:  model.CanonicalTeam(wp.Team),
			Agent: wp.Character,
			Totals: model.PlayerTotals{
				Kills:          wp.Stats.Kills,
				Deaths:         wp.Stats.Deaths,
				Assists:        wp.Stats.Assists,
				Score:          wp.Stats.Score,
				Headshots:      wp.Stats.Headshots,
				Bodyshots:      wp.Stats.Bodyshots,
				Legshots:       wp.Stats.Legshots,
				DamageMade:     wp.DamageMade,
				DamageReceived: wp.DamageReceived,
			},
			Abilities: wp.AbilityCasts.casts(),
		})
	}
	return out, issues, nil
}

func decodeRounds(raw []any) ([]model.Round, error) {
	out := make([]model.Round, 0, len(raw))
	for pos, r := range raw {
		var wr wireRound
		if err := decode(r, &wr, nil); err != nil {
			return nil, fmt.Errorf("round %d: %w", pos, err)
		}
		round := model.Round{
			Index:       pos,
			WinningTeam: model.CanonicalTeam(wr.WinningTeam),
		}
		if wr.RoundIndex != nil {
			round.Index = *wr.RoundIndex
		}
		for _, ps := range wr.PlayerStats {
			round.PlayerStats = append(round.PlayerStats, convertPlayerRound(ps))
		}
		for _, pe := range wr.PlantEvents {
			actor := firstNonEmpty(pe.PlantedBy.PUUID, pe.PlayerPUUID)
			if actor == "" {
				continue
			}
			round.Plants = append(round.Plants, model.SiteEvent{ActorPUUID: actor, TimeInRound: pe.TimeInRound, Site: pe.Site})
		}
		for _, de := range wr.DefuseEvents {
			actor := firstNonEmpty(de.DefusedBy.PUUID, de.DefuserPUUID)
			if actor == "" {
				continue
			}
			round.Defuses = append(round.Defuses, model.SiteEvent{ActorPUUID: actor, TimeInRound: de.TimeInRound})
		}
		out = append(out, round)
	}
	return out, nil
}

func convertPlayerRound(ps wirePlayerRound) model.PlayerRoundStat {
	stat := model.PlayerRoundStat{
		PUUID:        ps.PlayerPUUID,
		Team:         model.CanonicalTeam(firstNonEmpty(ps.PlayerTeam, ps.Team)),
		Kills:        ps.Kills,
		LoadoutValue: ps.Economy.LoadoutValue,
		Abilities:    ps.AbilityCasts.casts(),
	}
	for _, k := range ps.KillEvents {
		ev := model.KillEvent{
			TimeInRound: k.TimeInRound,
			TimeInMatch: k.TimeInMatch,
			KillerPUUID: firstNonEmpty(k.KillerPUUID, ps.PlayerPUUID),
			VictimPUUID: k.VictimPUUID,
			Weapon:      k.Weapon,
		}
		for _, a := range k.Assistants {
			if id := firstNonEmpty(a.AssistantPUUID, a.PUUID); id != "" {
				ev.Assistants = append(ev.Assistants, id)
			}
		}
		stat.KillEvents = append(stat.KillEvents, ev)
	}
	for _, d := range ps.DamageEvents {
		stat.DamageEvents = append(stat.DamageEvents, model.DamageEvent{
			ReceiverPUUID: d.ReceiverPUUID,
			Damage:        d.Damage,
			Headshots:     d.Headshots,
			Bodyshots:     d.Bodyshots,
			Legshots:      d.Legshots,
		})
	}
	return stat
}

// ParseQueueRef resolves a queue field that may be a string or a
// {id, name, mode_type} object.
func ParseQueueRef(v any) model.QueueRef {
	switch t := v.(type) {
	case string:
		return model.TextQueue(t)
	case map[string]any:
		id, _ := t["id"].(string)
		name, _ := t["name"].(string)
		modeType, _ := t["mode_type"].(string)
		return model.ObjectQueue(id, name, modeType)
	default:
		return model.QueueRef{}
	}
}

func decode(input, out any, hook mapstructure.DecodeHookFunc) error {
	if input == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       hook,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// decodeLenient decodes input into out. When a strict pass fails, out is
// decoded again with unconvertible values zeroed and the strict errors are
// returned one per field.
func decodeLenient(input, out any) []string {
	err := decode(input, out, nil)
	if err == nil {
		return nil
	}
	rv := reflect.ValueOf(out).Elem()
	rv.Set(reflect.Zero(rv.Type()))

	var issues []string
	var merr *mapstructure.Error
	if errors.As(err, &merr) {
		issues = append(issues, merr.Errors...)
	} else {
		issues = append(issues, err.Error())
	}
	if err := decode(input, out, zeroUnconvertible); err != nil {
		issues = append(issues, err.Error())
	}
	return issues
}

// zeroUnconvertible swaps a value whose shape cannot fill the target field
// for the field's zero value.
func zeroUnconvertible(from, to reflect.Type, data any) (any, error) {
	fk := from.Kind()
	composite := fk == reflect.Map || fk == reflect.Slice
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if composite {
			return 0, nil
		}
		if fk == reflect.String {
			f, err := strconv.ParseFloat(strings.TrimSpace(reflect.ValueOf(data).String()), 64)
			if err != nil {
				return 0, nil
			}
			return int(f), nil
		}
	case reflect.Bool:
		if composite {
			return false, nil
		}
		if fk == reflect.String {
			s := reflect.ValueOf(data).String()
			if _, err := strconv.ParseBool(s); err != nil && s != "" {
				return false, nil
			}
		}
	case reflect.String:
		if composite {
			return "", nil
		}
	case reflect.Struct:
		if fk != reflect.Map {
			return map[string]any{}, nil
		}
	case reflect.Slice:
		if !composite {
			return []any{}, nil
		}
	}
	return data, nil
}

func prefixed(scope string, issues []string) []string {
	if len(issues) == 0 {
		return nil
	}
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, scope+": "+is)
	}
	return out
}

func countOf(v any) (int, bool) {
	if s, ok := v.(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		return n, err == nil
	}
	return intOf(v)
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
