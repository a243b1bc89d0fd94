package normalize

import (
	"sort"

	"github.com/pable/valmetrics/internal/model"
)

// Normalize rewrites a v4 payload into the canonical v3 layout. A payload that
// is already canonical is returned as is, so Normalize(Normalize(p)) equals
// Normalize(p). The input is never modified.
func Normalize(p Payload) Payload {
	if Detect(p) != model.SchemaV4 {
		return p
	}
	out := clone(p).(map[string]any)

	rounds := asSlice(out["rounds"])
	normalizeMetadata(out, len(rounds))
	normalizePlayers(out)
	normalizeTeams(out)
	normalizeRounds(out)
	return out
}

func normalizeMetadata(out map[string]any, roundCount int) {
	md := asMap(out["metadata"])
	if md == nil {
		return
	}
	if id, ok := md["match_id"]; ok {
		if _, has := md["matchid"]; !has {
			md["matchid"] = id
		}
		delete(md, "match_id")
	}
	if m := asMap(md["map"]); m != nil {
		md["map"] = textOf(m)
	}
	if q := asMap(md["queue"]); q != nil {
		if _, has := md["mode"]; !has {
			md["mode"] = q["name"]
		}
		md["mode_id"] = q["id"]
		md["queue"] = q["id"]
	}
	if s := asMap(md["season"]); s != nil {
		md["season_id"] = s["id"]
		delete(md, "season")
	}
	if _, ok := md["rounds_played"]; !ok && roundCount > 0 {
		md["rounds_played"] = roundCount
	}
}

func normalizePlayers(out map[string]any) {
	list, ok := out["players"].([]any)
	if !ok {
		return
	}
	groups := map[string]any{"all_players": []any{}}
	all := make([]any, 0, len(list))
	for _, raw := range list {
		pl := asMap(raw)
		if pl == nil {
			continue
		}
		if t, ok := pl["team_id"]; ok {
			pl["team"] = t
			delete(pl, "team_id")
		}
		if a := asMap(pl["agent"]); a != nil {
			pl["character"] = a["name"]
			delete(pl, "agent")
		}
		if st := asMap(pl["stats"]); st != nil {
			if dmg := asMap(st["damage"]); dmg != nil {
				pl["damage_made"] = dmg["dealt"]
				pl["damage_received"] = dmg["received"]
				delete(st, "damage")
			}
		}
		if ac := asMap(pl["ability_casts"]); ac != nil {
			pl["ability_casts"] = renameAbilities(ac, "_cast")
		}
		all = append(all, pl)
		if team := lowerTeam(pl["team"]); team != "" {
			members, _ := groups[team].([]any)
			groups[team] = append(members, pl)
		}
	}
	groups["all_players"] = all
	out["players"] = groups
}

// renameAbilities maps grenade/ability1/ability2/ultimate onto c/q/e/x keys.
func renameAbilities(ac map[string]any, suffix string) map[string]any {
	names := [][2]string{
		{"grenade", "c"},
		{"ability1", "q"},
		{"ability2", "e"},
		{"ultimate", "x"},
	}
	for _, n := range names {
		if v, ok := ac[n[0]]; ok {
			ac[n[1]+suffix] = v
			delete(ac, n[0])
		}
	}
	return ac
}

func normalizeTeams(out map[string]any) {
	list, ok := out["teams"].([]any)
	if !ok {
		return
	}
	teams := make(map[string]any, len(list))
	for _, raw := range list {
		t := asMap(raw)
		if t == nil {
			continue
		}
		label := lowerTeam(t["team_id"])
		if label == "" {
			continue
		}
		entry := map[string]any{"has_won": t["won"]}
		if r := asMap(t["rounds"]); r != nil {
			entry["rounds_won"] = r["won"]
			entry["rounds_lost"] = r["lost"]
		}
		teams[label] = entry
	}
	out["teams"] = teams
}

func normalizeRounds(out map[string]any) {
	rounds := asSlice(out["rounds"])
	kills := killsByRound(asSlice(out["kills"]))
	delete(out, "kills")

	for pos, raw := range rounds {
		r := asMap(raw)
		if r == nil {
			continue
		}
		idx := pos
		if id, ok := intOf(r["id"]); ok {
			idx = id
			r["round_index"] = id
			delete(r, "id")
		}
		if stats, ok := r["stats"].([]any); ok {
			if _, has := r["player_stats"]; !has {
				r["player_stats"] = roundPlayerStats(stats, kills[idx])
			}
			delete(r, "stats")
		}
		if p := asMap(r["plant"]); p != nil {
			r["plant_events"] = map[string]any{
				"planted_by":          map[string]any{"puuid": puuidOf(p["player"]), "team": teamOf(p["player"])},
				"plant_site":          p["site"],
				"plant_time_in_round": p["round_time_in_ms"],
			}
		}
		delete(r, "plant")
		if d := asMap(r["defuse"]); d != nil {
			r["defuse_events"] = map[string]any{
				"defused_by":           map[string]any{"puuid": puuidOf(d["player"]), "team": teamOf(d["player"])},
				"defuse_time_in_round": d["round_time_in_ms"],
			}
		}
		delete(r, "defuse")
	}
}

// killsByRound groups the v4 top-level kill list by round, keeping list order.
// Kills without a round number are dropped.
func killsByRound(kills []any) map[int][]map[string]any {
	out := make(map[int][]map[string]any)
	for _, raw := range kills {
		k := asMap(raw)
		if k == nil {
			continue
		}
		r, ok := countOf(k["round"])
		if !ok {
			continue
		}
		out[r] = append(out[r], convertKill(k))
	}
	return out
}

func convertKill(k map[string]any) map[string]any {
	var assistants []any
	for _, a := range asSlice(k["assistants"]) {
		assistants = append(assistants, map[string]any{
			"assistant_puuid": puuidOf(a),
			"assistant_team":  teamOf(a),
		})
	}
	if assistants == nil {
		assistants = []any{}
	}
	return map[string]any{
		"kill_time_in_round": k["time_in_round_in_ms"],
		"kill_time_in_match": k["time_in_match_in_ms"],
		"killer_puuid":       puuidOf(k["killer"]),
		"killer_team":        teamOf(k["killer"]),
		"victim_puuid":       puuidOf(k["victim"]),
		"victim_team":        teamOf(k["victim"]),
		"damage_weapon_name": textOf(k["weapon"]),
		"assistants":         assistants,
	}
}

func roundPlayerStats(stats []any, kills []map[string]any) []any {
	out := make([]any, 0, len(stats))
	byPUUID := make(map[string]map[string]any, len(stats))
	for _, raw := range stats {
		s := asMap(raw)
		if s == nil {
			continue
		}
		puuid, _ := puuidOf(s["player"]).(string)
		entry := map[string]any{
			"player_puuid": puuid,
			"player_team":  teamOf(s["player"]),
			"kill_events":  []any{},
		}
		if inner := asMap(s["stats"]); inner != nil {
			for _, k := range []string{"kills", "score", "headshots", "bodyshots", "legshots"} {
				if v, ok := inner[k]; ok {
					entry[k] = v
				}
			}
		}
		if ac := asMap(s["ability_casts"]); ac != nil {
			entry["ability_casts"] = renameAbilities(ac, "_casts")
		}
		if eco, ok := s["economy"]; ok {
			entry["economy"] = eco
		}
		damage := make([]any, 0)
		for _, d := range asSlice(s["damage_events"]) {
			dm := asMap(d)
			if dm == nil {
				continue
			}
			ev := map[string]any{"receiver_puuid": puuidOf(dm["player"])}
			for _, k := range []string{"damage", "headshots", "bodyshots", "legshots"} {
				ev[k] = dm[k]
			}
			damage = append(damage, ev)
		}
		entry["damage_events"] = damage
		out = append(out, entry)
		if puuid != "" {
			byPUUID[puuid] = entry
		}
	}

	for _, k := range kills {
		killer, _ := k["killer_puuid"].(string)
		entry, ok := byPUUID[killer]
		if !ok {
			// Killer has no stats row for this round; keep the event anyway.
			entry = map[string]any{
				"player_puuid":  killer,
				"player_team":   k["killer_team"],
				"kill_events":   []any{},
				"damage_events": []any{},
			}
			byPUUID[killer] = entry
			out = append(out, entry)
		}
		entry["kill_events"] = append(entry["kill_events"].([]any), k)
	}
	for _, raw := range out {
		entry := raw.(map[string]any)
		if _, ok := entry["kills"]; !ok {
			entry["kills"] = len(entry["kill_events"].([]any))
		}
	}
	return out
}

// teamLabels returns the sorted team keys of a canonical players block.
func teamLabels(players map[string]any) []string {
	var out []string
	for k := range players {
		if k != "all_players" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
