package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pable/valmetrics/internal/aggregator"
	"github.com/pable/valmetrics/internal/logging"
	"github.com/pable/valmetrics/internal/model"
	"github.com/pable/valmetrics/internal/normalize"
	"github.com/pable/valmetrics/internal/payload"
	"github.com/pable/valmetrics/internal/rounds"
	"github.com/pable/valmetrics/internal/storage"
)

// analyzed is one payload carried through normalization and analysis.
type analyzed struct {
	source    string
	match     model.Match
	summary   model.MatchSummary
	canonical []byte
	results   []model.PlayerMatchResult
	rounds    []model.PlayerRoundBreakdown
	err       error
}

func summarize(m model.Match) model.MatchSummary {
	return model.MatchSummary{
		MatchID:       m.MatchID,
		MapName:       m.MapName,
		Mode:          m.Mode,
		Queue:         m.Queue.String(),
		StartedAt:     m.StartedAt,
		RoundsPlayed:  m.RoundsPlayed,
		SchemaVersion: m.SchemaVersion,
		RedRounds:     m.Teams["red"].RoundsWon,
		BlueRounds:    m.Teams["blue"].RoundsWon,
		HasRounds:     rounds.HasRoundDetail(m),
	}
}

// analyzePayload runs the whole engine on one raw payload.
func analyzePayload(source string, p normalize.Payload) analyzed {
	a := analyzed{source: source}
	m, err := normalize.Parse(p)
	if err != nil {
		a.err = err
		return a
	}
	a.match = m
	a.summary = summarize(m)

	if a.canonical, err = json.Marshal(normalize.Normalize(p)); err != nil {
		a.err = fmt.Errorf("encode canonical payload: %w", err)
		return a
	}
	if a.results, err = aggregator.AnalyzeAll(m); err != nil {
		a.err = err
		return a
	}
	for _, pl := range m.Players {
		rows, err := aggregator.RoundBreakdown(m, pl.PUUID)
		if err != nil {
			slog.Debug("Round breakdown incomplete", slog.String("match_id", m.MatchID),
				slog.String("puuid", pl.PUUID), logging.ErrAttr(err))
		}
		a.rounds = append(a.rounds, rows...)
	}
	return a
}

// keepSchema restores the layout a stored match originally arrived in, since
// stored payloads are already canonical.
func (a *analyzed) keepSchema(v model.SchemaVersion) {
	if a.err != nil || v == model.SchemaUnknown {
		return
	}
	a.match.SchemaVersion = v
	a.summary.SchemaVersion = v
	for i := range a.results {
		a.results[i].SchemaVersion = v
	}
}

type payloadRef struct {
	source  string
	payload normalize.Payload
	schema  model.SchemaVersion // set for payloads read back from storage
}

// competitivePayload screens a raw payload on its metadata labels before any
// decoding work.
func competitivePayload(p normalize.Payload) bool {
	md, _ := p["metadata"].(map[string]any)
	for _, k := range []string{"mode", "mode_id", "queue"} {
		if aggregator.IsCompetitiveValue(md[k]) {
			return true
		}
	}
	return false
}

// storedRefs reads back the canonical payloads kept with stored matches. No
// prefixes selects every stored match.
func storedRefs(db *storage.DB, prefixes []string) ([]payloadRef, error) {
	var matches []model.MatchSummary
	if len(prefixes) == 0 {
		all, err := db.ListMatches()
		if err != nil {
			return nil, fmt.Errorf("list matches: %w", err)
		}
		matches = all
	}
	for _, prefix := range prefixes {
		m, err := db.GetMatchByPrefix(prefix)
		if err != nil {
			return nil, fmt.Errorf("find match %s: %w", prefix, err)
		}
		if m == nil {
			return nil, fmt.Errorf("match not found: %s", prefix)
		}
		matches = append(matches, *m)
	}

	refs := make([]payloadRef, 0, len(matches))
	for _, m := range matches {
		body, err := db.MatchPayload(m.MatchID)
		if err != nil {
			return nil, err
		}
		if body == nil {
			slog.Warn("Match has no stored payload", slog.String("match_id", m.MatchID))
			continue
		}
		ps, err := payload.Decode(body)
		if err != nil {
			return nil, fmt.Errorf("decode stored payload %s: %w", m.MatchID, err)
		}
		for _, p := range ps {
			refs = append(refs, payloadRef{source: "stored:" + m.MatchID, payload: p, schema: m.SchemaVersion})
		}
	}
	return refs, nil
}

// analyzeAll fans payload analysis out over workers. Per-payload failures
// are kept on the returned items; order follows refs.
func analyzeAll(ctx context.Context, refs []payloadRef, workers int) ([]analyzed, error) {
	out := make([]analyzed, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, ref := range refs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = analyzePayload(ref.source, ref.payload)
			out[i].keepSchema(ref.schema)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// store persists an analyzed match. Existing rows are replaced when force
// is set; otherwise a stored match is left alone and stored is false.
func store(db *storage.DB, a analyzed, force bool) (stored bool, err error) {
	id := a.match.MatchID
	exists, err := db.MatchExists(id)
	if err != nil {
		return false, fmt.Errorf("check match: %w", err)
	}
	if exists && !force {
		return false, nil
	}
	if exists {
		if err := db.DeleteMatch(id); err != nil {
			return false, fmt.Errorf("delete match: %w", err)
		}
		_ = sessionCache.Invalidate(id)
	}
	if err := db.InsertMatch(a.summary, a.canonical); err != nil {
		return false, fmt.Errorf("insert match: %w", err)
	}
	if err := db.InsertPlayerMatchResults(a.results); err != nil {
		return false, fmt.Errorf("insert player results: %w", err)
	}
	if err := db.InsertPlayerRoundStats(a.rounds); err != nil {
		return false, fmt.Errorf("insert round stats: %w", err)
	}
	return true, nil
}
