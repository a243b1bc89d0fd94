package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pable/valmetrics/internal/aggregator"
	"github.com/pable/valmetrics/internal/model"
	"github.com/pable/valmetrics/internal/normalize"
	"github.com/pable/valmetrics/internal/payload"
	"github.com/pable/valmetrics/internal/storage"
)

func loadRefs(t *testing.T, names ...string) []payloadRef {
	t.Helper()
	var refs []payloadRef
	for _, name := range names {
		path := filepath.Join("..", "internal", "normalize", "testdata", name)
		ps, err := payload.Load(path)
		require.NoError(t, err)
		for _, p := range ps {
			refs = append(refs, payloadRef{source: path, payload: p})
		}
	}
	return refs
}

func TestAnalyzePayload(t *testing.T) {
	refs := loadRefs(t, "match_v4.json")
	a := analyzePayload(refs[0].source, refs[0].payload)
	require.NoError(t, a.err)

	require.Equal(t, "6f1c0a2e-match-0001", a.summary.MatchID)
	require.Equal(t, model.SchemaV4, a.summary.SchemaVersion)
	require.Equal(t, 1, a.summary.RedRounds)
	require.Equal(t, 1, a.summary.BlueRounds)
	require.True(t, a.summary.HasRounds)
	require.Len(t, a.results, 4)
	require.Len(t, a.rounds, 8)
	require.NotEmpty(t, a.canonical)
}

func TestAnalyzePayloadRejectsBadSchema(t *testing.T) {
	a := analyzePayload("inline", normalize.Payload{"metadata": map[string]any{}})
	require.ErrorIs(t, a.err, normalize.ErrSchema)
}

func TestAnalyzeAllKeepsOrder(t *testing.T) {
	refs := loadRefs(t, "match_v3.json", "match_v4.json")
	refs = append(refs, payloadRef{source: "bad", payload: normalize.Payload{}})

	items, err := analyzeAll(context.Background(), refs, 3)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.NoError(t, items[0].err)
	require.NoError(t, items[1].err)
	require.Error(t, items[2].err)
	for i := range items[1].results {
		items[1].results[i].SchemaVersion = items[0].results[i].SchemaVersion
	}
	require.Equal(t, items[0].results, items[1].results)
}

func TestStore(t *testing.T) {
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	refs := loadRefs(t, "match_v3.json")
	a := analyzePayload(refs[0].source, refs[0].payload)
	require.NoError(t, a.err)

	stored, err := store(db, a, false)
	require.NoError(t, err)
	require.True(t, stored)

	stored, err = store(db, a, false)
	require.NoError(t, err)
	require.False(t, stored, "second ingest is skipped")

	stored, err = store(db, a, true)
	require.NoError(t, err)
	require.True(t, stored)

	results, err := db.GetPlayerMatchResults(a.match.MatchID)
	require.NoError(t, err)
	require.Len(t, results, 4)

	rows, err := db.GetPlayerRoundStats(a.match.MatchID, "pu-a")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	body, err := db.MatchPayload(a.match.MatchID)
	require.NoError(t, err)
	decoded, err := payload.Decode(body)
	require.NoError(t, err)
	m, err := normalize.Parse(decoded[0])
	require.NoError(t, err)
	require.Equal(t, a.match.MatchID, m.MatchID)
}

func TestFilterRounds(t *testing.T) {
	rows := []model.PlayerRoundBreakdown{
		{Round: 0, IsEco: true, KASTEarned: true},
		{Round: 1, InClutch: true},
		{Round: 2, IsEco: true, InClutch: true},
	}
	require.Len(t, filterRounds(rows, false, false, ""), 3)
	require.Len(t, filterRounds(rows, true, false, ""), 2)
	require.Len(t, filterRounds(rows, true, true, ""), 1)
	require.Len(t, filterRounds(rows, false, false, "yes"), 1)
	require.Len(t, filterRounds(rows, false, true, "no"), 2)
}

func TestStoredRefsReanalyze(t *testing.T) {
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	refs := loadRefs(t, "match_v4.json")
	a := analyzePayload(refs[0].source, refs[0].payload)
	require.NoError(t, a.err)
	_, err = store(db, a, false)
	require.NoError(t, err)

	stored, err := storedRefs(db, nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, model.SchemaV4, stored[0].schema)

	items, err := analyzeAll(context.Background(), stored, 2)
	require.NoError(t, err)
	require.NoError(t, items[0].err)
	require.Equal(t, model.SchemaV4, items[0].summary.SchemaVersion)
	require.Equal(t, a.results, items[0].results)

	again, err := store(db, items[0], true)
	require.NoError(t, err)
	require.True(t, again)

	byPrefix, err := storedRefs(db, []string{"6f1c"})
	require.NoError(t, err)
	require.Len(t, byPrefix, 1)

	_, err = storedRefs(db, []string{"nope"})
	require.Error(t, err)
}

func TestStoreForceInvalidatesSessionCache(t *testing.T) {
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	refs := loadRefs(t, "match_v3.json")
	a := analyzePayload(refs[0].source, refs[0].payload)
	require.NoError(t, a.err)
	_, err = store(db, a, false)
	require.NoError(t, err)

	key := aggregator.NewCacheKey(a.match.MatchID, "pu-a", aggregator.Filter{})
	require.NoError(t, sessionCache.Put(key, a.results[0]))
	_, err = store(db, a, true)
	require.NoError(t, err)
	_, ok, err := sessionCache.Get(key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCompetitivePayload(t *testing.T) {
	for _, ref := range loadRefs(t, "match_v3.json", "match_v4.json") {
		require.True(t, competitivePayload(ref.payload), ref.source)
	}
	require.False(t, competitivePayload(normalize.Payload{
		"metadata": map[string]any{"queue": map[string]any{"id": "unrated", "name": "Unrated"}},
	}))
	require.False(t, competitivePayload(normalize.Payload{}))
}

func TestResultCache(t *testing.T) {
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	c, err := resultCache(db, "db")
	require.NoError(t, err)
	require.Same(t, db, c)

	c, err = resultCache(db, "memory")
	require.NoError(t, err)
	require.Same(t, sessionCache, c)

	_, err = resultCache(db, "redis")
	require.Error(t, err)
}

func TestPlayerResultsFromDirUsesCache(t *testing.T) {
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dir := t.TempDir()
	body, err := os.ReadFile(filepath.Join("..", "internal", "normalize", "testdata", "match_v3.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.json"), body, 0o644))

	cache := aggregator.NewMemoryCache()
	src := payload.DirSource{Dir: dir, Workers: 2}
	results, err := playerResults(context.Background(), db, cache, src, "pu-a", aggregator.Filter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 1, cache.Len())

	again, err := playerResults(context.Background(), db, cache, src, "pu-a", aggregator.Filter{})
	require.NoError(t, err)
	require.Equal(t, results, again)
	require.Equal(t, 1, cache.Len())
}
