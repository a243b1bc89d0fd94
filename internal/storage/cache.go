package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pable/valmetrics/internal/aggregator"
	"github.com/pable/valmetrics/internal/model"
)

var _ aggregator.ResultCache = (*DB)(nil)

// Get returns a cached result keyed by the key's deterministic ID.
func (db *DB) Get(key aggregator.CacheKey) (model.PlayerMatchResult, bool, error) {
	var body string
	err := db.conn.QueryRow("SELECT result_json FROM result_cache WHERE id = ?", key.ID().String()).Scan(&body)
	if err == sql.ErrNoRows {
		return model.PlayerMatchResult{}, false, nil
	}
	if err != nil {
		return model.PlayerMatchResult{}, false, err
	}
	var r model.PlayerMatchResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return model.PlayerMatchResult{}, false, fmt.Errorf("decode cached result %s: %w", key, err)
	}
	return r, true, nil
}

func (db *DB) Put(key aggregator.CacheKey, r model.PlayerMatchResult) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`
		INSERT OR REPLACE INTO result_cache(id, match_id, puuid, filter, result_json)
		VALUES (?, ?, ?, ?, ?)`,
		key.ID().String(), key.MatchID, key.PUUID, key.Filter, string(body))
	return err
}

// Invalidate drops every cached result of the match.
func (db *DB) Invalidate(matchID string) error {
	_, err := db.conn.Exec("DELETE FROM result_cache WHERE match_id = ?", matchID)
	return err
}
