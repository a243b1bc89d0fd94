package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pable/valmetrics/internal/model"
)

// MatchExists returns true if a match with the given id is already stored.
func (db *DB) MatchExists(matchID string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM matches WHERE match_id = ?", matchID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertMatch stores a match record and its canonical payload (JSON),
// compressed. Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertMatch(s model.MatchSummary, payload []byte) error {
	var blob []byte
	if len(payload) > 0 {
		blob = db.enc.EncodeAll(payload, nil)
	}
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO matches(match_id, map_name, mode, queue, started_at, rounds_played,
			schema_version, red_rounds, blue_rounds, has_rounds, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.MatchID, s.MapName, s.Mode, s.Queue, s.StartedAt, s.RoundsPlayed,
		int(s.SchemaVersion), s.RedRounds, s.BlueRounds, boolInt(s.HasRounds), blob,
	)
	return err
}

// MatchPayload returns the stored canonical payload JSON, or nil if none was kept.
func (db *DB) MatchPayload(matchID string) ([]byte, error) {
	var blob []byte
	err := db.conn.QueryRow("SELECT payload FROM matches WHERE match_id = ?", matchID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("match %s not found", matchID)
	}
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, nil
	}
	out, err := db.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress payload %s: %w", matchID, err)
	}
	return out, nil
}

// DeleteMatch removes a match with its results, round rows and cache entries.
func (db *DB) DeleteMatch(matchID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM player_round_stats WHERE match_id = ?",
		"DELETE FROM player_match_results WHERE match_id = ?",
		"DELETE FROM result_cache WHERE match_id = ?",
		"DELETE FROM matches WHERE match_id = ?",
	} {
		if _, err := tx.Exec(q, matchID); err != nil {
			return fmt.Errorf("delete match %s: %w", matchID, err)
		}
	}
	return tx.Commit()
}

// InsertPlayerMatchResults bulk-inserts per-player results in a transaction.
// Scalar columns serve ad-hoc SQL; result_json is the source of truth.
func (db *DB) InsertPlayerMatchResults(results []model.PlayerMatchResult) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_match_results(
			match_id, puuid, name, tag, team, agent, won, rounds_played,
			kills, deaths, assists, damage_made, kast_rounds, multi_kills,
			first_kills, first_deaths, entry_attempts, entry_wins,
			clutch_attempts, clutch_wins, eco_rounds, eco_kills, eco_wins,
			plants, defuses, source, result_json
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range results {
		body, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode result %s/%s: %w", r.MatchID, r.PUUID, err)
		}
		clutchAttempts, clutchWins := r.ClutchTotals()
		_, err = stmt.Exec(
			r.MatchID, r.PUUID, r.Name, r.Tag, r.Team, r.Agent, boolInt(r.Won), r.RoundsPlayed,
			r.Totals.Kills, r.Totals.Deaths, r.Totals.Assists, r.Totals.DamageMade,
			r.KASTRounds, r.MultiKills,
			r.FirstKills, r.FirstDeaths, r.EntryAttempts, r.EntryWins,
			clutchAttempts, clutchWins, r.EcoRounds, r.EcoKills, r.EcoWins,
			r.Plants, r.Defuses, string(r.Source), string(body),
		)
		if err != nil {
			return fmt.Errorf("insert player_match_results for %s: %w", r.PUUID, err)
		}
	}
	return tx.Commit()
}

// InsertPlayerRoundStats bulk-inserts per-round rows in a transaction.
func (db *DB) InsertPlayerRoundStats(rows []model.PlayerRoundBreakdown) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_round_stats(
			match_id, puuid, round_number, team, kills, damage, loadout_value,
			got_kill, got_assist, damage_assist, survived, was_traded, kast_earned,
			is_opening_kill, is_opening_death, is_multi_kill, is_eco,
			in_clutch, clutch_enemies, won_round
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range rows {
		_, err = stmt.Exec(
			s.MatchID, s.PUUID, s.Round, s.Team, s.Kills, s.Damage, s.LoadoutValue,
			boolInt(s.GotKill), boolInt(s.GotAssist), boolInt(s.DamageAssist),
			boolInt(s.Survived), boolInt(s.WasTraded), boolInt(s.KASTEarned),
			boolInt(s.IsOpeningKill), boolInt(s.IsOpeningDeath),
			boolInt(s.IsMultiKill), boolInt(s.IsEco),
			boolInt(s.InClutch), s.ClutchEnemies, boolInt(s.WonRound),
		)
		if err != nil {
			return fmt.Errorf("insert player_round_stats: %w", err)
		}
	}
	return tx.Commit()
}

const matchColumns = `match_id, map_name, mode, queue, started_at, rounds_played,
	schema_version, red_rounds, blue_rounds, has_rounds`

func scanMatch(sc interface{ Scan(...any) error }) (model.MatchSummary, error) {
	var (
		s         model.MatchSummary
		version   int
		hasRounds int
	)
	err := sc.Scan(&s.MatchID, &s.MapName, &s.Mode, &s.Queue, &s.StartedAt, &s.RoundsPlayed,
		&version, &s.RedRounds, &s.BlueRounds, &hasRounds)
	s.SchemaVersion = model.SchemaVersion(version)
	s.HasRounds = hasRounds != 0
	return s, err
}

// ListMatches returns all stored matches, newest first.
func (db *DB) ListMatches() ([]model.MatchSummary, error) {
	rows, err := db.conn.Query(`SELECT ` + matchColumns + ` FROM matches ORDER BY started_at DESC, match_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchSummary
	for rows.Next() {
		s, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetMatchByPrefix finds the first match whose id starts with the given prefix.
func (db *DB) GetMatchByPrefix(prefix string) (*model.MatchSummary, error) {
	row := db.conn.QueryRow(`SELECT `+matchColumns+` FROM matches WHERE match_id LIKE ? ORDER BY match_id LIMIT 1`, prefix+"%")
	s, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanResults(rows *sql.Rows) ([]model.PlayerMatchResult, error) {
	defer rows.Close()
	var out []model.PlayerMatchResult
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var r model.PlayerMatchResult
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("decode stored result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetPlayerMatchResults returns every player's result for a match, most kills first.
func (db *DB) GetPlayerMatchResults(matchID string) ([]model.PlayerMatchResult, error) {
	rows, err := db.conn.Query(`
		SELECT result_json FROM player_match_results
		WHERE match_id = ? ORDER BY kills DESC, puuid`, matchID)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

// GetAllPlayerMatchResults returns one player's results across all matches,
// oldest first.
func (db *DB) GetAllPlayerMatchResults(puuid string) ([]model.PlayerMatchResult, error) {
	rows, err := db.conn.Query(`
		SELECT p.result_json
		FROM player_match_results p
		JOIN matches m ON m.match_id = p.match_id
		WHERE p.puuid = ?
		ORDER BY m.started_at ASC, m.match_id ASC`, puuid)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

// GetPlayerRoundStats returns the stored per-round rows of one player in one match.
func (db *DB) GetPlayerRoundStats(matchID, puuid string) ([]model.PlayerRoundBreakdown, error) {
	rows, err := db.conn.Query(`
		SELECT round_number, team, kills, damage, loadout_value,
		       got_kill, got_assist, damage_assist, survived, was_traded, kast_earned,
		       is_opening_kill, is_opening_death, is_multi_kill, is_eco,
		       in_clutch, clutch_enemies, won_round
		FROM player_round_stats
		WHERE match_id = ? AND puuid = ?
		ORDER BY round_number`, matchID, puuid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerRoundBreakdown
	for rows.Next() {
		s := model.PlayerRoundBreakdown{MatchID: matchID, PUUID: puuid}
		var gk, ga, da, sv, wt, ke, fk, fd, mk, eco, ic, wr int
		if err := rows.Scan(&s.Round, &s.Team, &s.Kills, &s.Damage, &s.LoadoutValue,
			&gk, &ga, &da, &sv, &wt, &ke, &fk, &fd, &mk, &eco, &ic, &s.ClutchEnemies, &wr); err != nil {
			return nil, err
		}
		s.GotKill, s.GotAssist, s.DamageAssist = gk != 0, ga != 0, da != 0
		s.Survived, s.WasTraded, s.KASTEarned = sv != 0, wt != 0, ke != 0
		s.IsOpeningKill, s.IsOpeningDeath = fk != 0, fd != 0
		s.IsMultiKill, s.IsEco, s.InClutch, s.WonRound = mk != 0, eco != 0, ic != 0, wr != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
