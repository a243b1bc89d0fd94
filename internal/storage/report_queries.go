package storage

import (
	"database/sql"
	"fmt"
	"strings"
)

// Overview holds database-wide counts for the summary command.
type Overview struct {
	Matches      int
	Players      int
	Rounds       int
	Results      int
	Estimated    int // results produced by the fallback estimator
	CacheEntries int
	Maps         []LabelCount
	Modes        []LabelCount
}

type LabelCount struct {
	Label string
	Count int
}

// Overview returns the counts shown by the summary command.
func (db *DB) Overview() (Overview, error) {
	var o Overview
	err := db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(1) FROM matches),
			(SELECT COUNT(DISTINCT puuid) FROM player_match_results),
			(SELECT COALESCE(SUM(rounds_played), 0) FROM matches),
			(SELECT COUNT(1) FROM player_match_results),
			(SELECT COUNT(1) FROM player_match_results WHERE source = 'estimated'),
			(SELECT COUNT(1) FROM result_cache)`).
		Scan(&o.Matches, &o.Players, &o.Rounds, &o.Results, &o.Estimated, &o.CacheEntries)
	if err != nil {
		return o, err
	}
	if o.Maps, err = db.labelCounts("map_name"); err != nil {
		return o, err
	}
	if o.Modes, err = db.labelCounts("mode"); err != nil {
		return o, err
	}
	return o, nil
}

func (db *DB) labelCounts(column string) ([]LabelCount, error) {
	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT %[1]s, COUNT(1) FROM matches GROUP BY %[1]s ORDER BY COUNT(1) DESC, %[1]s`, column))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LabelCount
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

// PlayerRef is one known player and how many stored matches they appear in.
type PlayerRef struct {
	PUUID   string
	Name    string
	Tag     string
	Matches int
}

// ListPlayers returns every player with stored results, most matches first.
func (db *DB) ListPlayers() ([]PlayerRef, error) {
	rows, err := db.conn.Query(`
		SELECT puuid, MAX(name), MAX(tag), COUNT(DISTINCT match_id)
		FROM player_match_results
		GROUP BY puuid
		ORDER BY COUNT(DISTINCT match_id) DESC, MAX(name)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerRef
	for rows.Next() {
		var p PlayerRef
		if err := rows.Scan(&p.PUUID, &p.Name, &p.Tag, &p.Matches); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MapStats is one player's record on one map.
type MapStats struct {
	PUUID        string
	MapName      string
	Matches      int
	Wins         int
	RoundsPlayed int
	KASTRounds   int
	Kills        int
	Deaths       int
}

func (m MapStats) KAST() float64 {
	if m.RoundsPlayed == 0 {
		return 0
	}
	return float64(m.KASTRounds) / float64(m.RoundsPlayed)
}

// MapStatsFor returns per-map totals for the given players, restricted to
// matchIDs when it is non-empty.
func (db *DB) MapStatsFor(puuids []string, matchIDs []string) ([]MapStats, error) {
	if len(puuids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(puuids)+len(matchIDs))
	for _, p := range puuids {
		args = append(args, p)
	}
	where := fmt.Sprintf("p.puuid IN (%s)", placeholders(len(puuids)))
	if len(matchIDs) > 0 {
		where += fmt.Sprintf(" AND p.match_id IN (%s)", placeholders(len(matchIDs)))
		for _, id := range matchIDs {
			args = append(args, id)
		}
	}

	query := fmt.Sprintf(`
		SELECT p.puuid, m.map_name, COUNT(1), SUM(p.won), SUM(p.rounds_played),
		       SUM(p.kast_rounds), SUM(p.kills), SUM(p.deaths)
		FROM player_match_results p
		JOIN matches m ON m.match_id = p.match_id
		WHERE %s
		GROUP BY p.puuid, m.map_name
		ORDER BY p.puuid, COUNT(1) DESC, m.map_name`, where)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MapStats
	for rows.Next() {
		var s MapStats
		if err := rows.Scan(&s.PUUID, &s.MapName, &s.Matches, &s.Wins, &s.RoundsPlayed,
			&s.KASTRounds, &s.Kills, &s.Deaths); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary read query and returns column names and rows
// rendered as strings. NULL becomes an empty string.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = v.String
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
