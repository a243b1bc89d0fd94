package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pable/valmetrics/internal/model"
	"github.com/pable/valmetrics/internal/storage"
)

const missing = "—"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// cell renders a value of r according to its provenance tags: "—" when the
// field could not be computed, a "~" prefix when it was estimated.
func cell(r *model.PlayerMatchResult, field, value string) string {
	switch {
	case r.IsUnavailable(field):
		return missing
	case r.IsEstimated(field):
		return "~" + value
	default:
		return value
	}
}

// summaryCell prefixes estimated values with "~" and suffixes values summed
// over only some matches with "*".
func summaryCell(s *model.PlayerSummary, field, value string) string {
	if s.IsEstimated(field) {
		value = "~" + value
	}
	if s.IsPartial(field) && value != missing {
		value += "*"
	}
	return value
}

func pct(f float64) string {
	return fmt.Sprintf("%.0f%%", f)
}

// When formats an RFC 3339 start time as a date plus a relative age.
func When(startedAt string, now time.Time) string {
	if startedAt == "" {
		return missing
	}
	t, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return startedAt
	}
	return t.Format("2006-01-02") + " (" + humanize.RelTime(t, now, "ago", "from now") + ")"
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// PrintMatchSummary prints a one-line summary header for the match.
func PrintMatchSummary(w io.Writer, s model.MatchSummary) {
	detail := "round detail"
	if !s.HasRounds {
		detail = "aggregate only"
	}
	fmt.Fprintf(w, "\nMap: %s  |  Mode: %s  |  Started: %s  |  Score: Red %d – Blue %d  |  %s %s  |  ID: %s\n\n",
		s.MapName, s.Mode, When(s.StartedAt, time.Now()), s.RedRounds, s.BlueRounds,
		s.SchemaVersion, detail, shortID(s.MatchID))
}

// PrintMatchList prints stored matches, newest first.
func PrintMatchList(w io.Writer, matches []model.MatchSummary) {
	table := newTable(w)
	table.Header("ID", "MAP", "MODE", "STARTED", "ROUNDS", "SCORE", "SCHEMA", "DETAIL")
	now := time.Now()
	for _, s := range matches {
		detail := "rounds"
		if !s.HasRounds {
			detail = "totals"
		}
		table.Append(
			shortID(s.MatchID),
			s.MapName,
			s.Mode,
			When(s.StartedAt, now),
			strconv.Itoa(s.RoundsPlayed),
			fmt.Sprintf("%d-%d", s.RedRounds, s.BlueRounds),
			s.SchemaVersion.String(),
			detail,
		)
	}
	table.Render()
}

// PrintPlayerTable prints the per-match player stats table.
// If focus is non-empty, that player's row is marked with ">".
func PrintPlayerTable(w io.Writer, results []model.PlayerMatchResult, focus string) {
	table := newTable(w)
	table.Header(
		" ", "NAME", "TEAM", "AGENT", "K", "D", "A", "K/D", "HS%", "ADR", "KAST%",
		"MK", "FK", "FD", "ENTRY", "CLUTCH", "ECO_K", "DMG/K", "UTIL", "PL/DF",
	)

	for i := range results {
		r := &results[i]
		marker := " "
		if focus != "" && r.PUUID == focus {
			marker = ">"
		}
		entry := missing
		if r.EntryAttempts > 0 {
			entry = fmt.Sprintf("%d/%d", r.EntryWins, r.EntryAttempts)
		}
		attempts, wins := r.ClutchTotals()
		dpk := missing
		if r.DamagePerKillRounds > 0 {
			dpk = fmt.Sprintf("%.0f", r.DamagePerKill)
		}
		table.Append(
			marker,
			r.Name,
			r.Team,
			r.Agent,
			strconv.Itoa(r.Totals.Kills),
			strconv.Itoa(r.Totals.Deaths),
			strconv.Itoa(r.Totals.Assists),
			fmt.Sprintf("%.2f", r.KDRatio()),
			pct(r.HSPercent()),
			fmt.Sprintf("%.1f", r.ADR()),
			cell(r, model.FieldKAST, pct(r.KASTPct())),
			cell(r, model.FieldMultiKills, strconv.Itoa(r.MultiKills)),
			cell(r, model.FieldEntryDuels, strconv.Itoa(r.FirstKills)),
			cell(r, model.FieldEntryDuels, strconv.Itoa(r.FirstDeaths)),
			cell(r, model.FieldEntryDuels, entry),
			cell(r, model.FieldClutches, fmt.Sprintf("%d/%d", wins, attempts)),
			cell(r, model.FieldEco, strconv.Itoa(r.EcoKills)),
			cell(r, model.FieldDamagePerKill, dpk),
			cell(r, model.FieldAbilities, strconv.Itoa(r.Abilities.Total())),
			cell(r, model.FieldObjectives, fmt.Sprintf("%d/%d", r.Plants, r.Defuses)),
		)
	}
	table.Render()
}

// PrintWarnings lists data-quality notes of the given results, one per line.
func PrintWarnings(w io.Writer, results []model.PlayerMatchResult) {
	seen := make(map[string]bool)
	for _, r := range results {
		for _, wn := range r.Warnings {
			line := wn.Code + ": " + wn.Message
			if seen[line] {
				continue
			}
			seen[line] = true
			fmt.Fprintf(w, "  ! %s\n", line)
		}
	}
}

func flag(b bool) string {
	if b {
		return "✓"
	}
	return ""
}

// PrintRoundTable prints the per-round drill-down of one player.
func PrintRoundTable(w io.Writer, rows []model.PlayerRoundBreakdown) {
	table := newTable(w)
	table.Header("RND", "TEAM", "K", "DMG", "LOADOUT", "KILL", "AST", "DMG_AST", "SURV", "TRADED", "KAST",
		"OPEN", "MK", "ECO", "CLUTCH", "WON")

	for _, s := range rows {
		open := ""
		switch {
		case s.IsOpeningKill:
			open = "K"
		case s.IsOpeningDeath:
			open = "D"
		}
		clutch := ""
		if s.InClutch {
			clutch = fmt.Sprintf("1v%d", s.ClutchEnemies)
		}
		table.Append(
			strconv.Itoa(s.Round+1),
			s.Team,
			strconv.Itoa(s.Kills),
			strconv.Itoa(s.Damage),
			humanize.Comma(int64(s.LoadoutValue)),
			flag(s.GotKill),
			flag(s.GotAssist),
			flag(s.DamageAssist),
			flag(s.Survived),
			flag(s.WasTraded),
			flag(s.KASTEarned),
			open,
			flag(s.IsMultiKill),
			flag(s.IsEco),
			clutch,
			flag(s.WonRound),
		)
	}
	table.Render()
}

// PrintPlayerSummary prints the cross-match overview of each summary.
func PrintPlayerSummary(w io.Writer, sums []model.PlayerSummary) {
	table := newTable(w)
	table.Header("PLAYER", "FILTER", "MATCHES", "W-L", "WIN%", "STREAK", "K", "D", "A", "K/D", "HS%", "ADR",
		"KAST%", "MK", "3K/4K/5K", "ENTRY", "CLUTCH%", "ECO_K", "DMG/K", "DAMAGE")

	for i := range sums {
		s := &sums[i]
		streak := missing
		switch {
		case s.CurrentWinStreak > 0:
			streak = fmt.Sprintf("W%d", s.CurrentWinStreak)
		case s.CurrentLossStreak > 0:
			streak = fmt.Sprintf("L%d", s.CurrentLossStreak)
		}
		entry := missing
		if s.EntryAttempts > 0 {
			entry = fmt.Sprintf("%d/%d", s.EntryWins, s.EntryAttempts)
		}
		clutch := missing
		if attempts, _ := s.ClutchTotals(); attempts > 0 {
			clutch = pct(s.ClutchSuccessRate())
		}
		dpk := missing
		if s.DamagePerKillRounds > 0 {
			dpk = fmt.Sprintf("%.0f", s.DamagePerKill())
		}
		table.Append(
			s.Name,
			s.Filter,
			strconv.Itoa(s.Matches),
			fmt.Sprintf("%d-%d", s.Wins, s.Losses),
			pct(s.WinRate()),
			streak,
			strconv.Itoa(s.Totals.Kills),
			strconv.Itoa(s.Totals.Deaths),
			strconv.Itoa(s.Totals.Assists),
			fmt.Sprintf("%.2f", s.KDRatio()),
			pct(s.HSPercent()),
			fmt.Sprintf("%.1f", s.ADR()),
			summaryCell(s, model.FieldKAST, pct(s.KASTPct())),
			summaryCell(s, model.FieldMultiKills, strconv.Itoa(s.MultiKills)),
			summaryCell(s, model.FieldMultiKills, fmt.Sprintf("%d/%d/%d", s.ThreeK, s.FourK, s.FiveK)),
			summaryCell(s, model.FieldEntryDuels, entry),
			summaryCell(s, model.FieldClutches, clutch),
			summaryCell(s, model.FieldEco, strconv.Itoa(s.EcoKills)),
			summaryCell(s, model.FieldDamagePerKill, dpk),
			humanize.Comma(int64(s.Totals.DamageMade)),
		)
	}
	table.Render()

	for _, s := range sums {
		if len(s.Unavailable) > 0 {
			fmt.Fprintf(w, "  * %s: %s missing from fallback matches\n", s.Name, strings.Join(s.Unavailable, ", "))
		}
	}
}

// PrintExclusions lists matches a summary left out.
func PrintExclusions(w io.Writer, s model.PlayerSummary) {
	if len(s.Excluded) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s excluded from %s:\n", english.Plural(len(s.Excluded), "match", "matches"), s.Name)
	for _, e := range s.Excluded {
		fmt.Fprintf(w, "  - %s: %s\n", shortID(e.MatchID), e.Reason)
	}
}

// PrintTrendTable prints one row per match in chronological order.
func PrintTrendTable(w io.Writer, results []model.PlayerMatchResult) {
	table := newTable(w)
	table.Header("STARTED", "MAP", "MODE", "AGENT", "RESULT", "K/D/A", "K/D", "ADR", "KAST%", "MK", "ENTRY", "SOURCE")

	now := time.Now()
	for i := range results {
		r := &results[i]
		outcome := "L"
		if r.Won {
			outcome = "W"
		}
		entry := missing
		if r.EntryAttempts > 0 {
			entry = fmt.Sprintf("%d/%d", r.EntryWins, r.EntryAttempts)
		}
		table.Append(
			When(r.StartedAt, now),
			r.MapName,
			r.Mode,
			r.Agent,
			outcome,
			fmt.Sprintf("%d/%d/%d", r.Totals.Kills, r.Totals.Deaths, r.Totals.Assists),
			fmt.Sprintf("%.2f", r.KDRatio()),
			fmt.Sprintf("%.1f", r.ADR()),
			cell(r, model.FieldKAST, pct(r.KASTPct())),
			cell(r, model.FieldMultiKills, strconv.Itoa(r.MultiKills)),
			cell(r, model.FieldEntryDuels, entry),
			string(r.Source),
		)
	}
	table.Render()
}

// PrintMapTable prints per-map records. names maps puuid to a display name.
func PrintMapTable(w io.Writer, stats []storage.MapStats, names map[string]string) {
	table := newTable(w)
	table.Header("PLAYER", "MAP", "MATCHES", "WIN%", "ROUNDS", "K", "D", "KAST%")
	for _, s := range stats {
		name := names[s.PUUID]
		if name == "" {
			name = s.PUUID
		}
		winRate := 0.0
		if s.Matches > 0 {
			winRate = float64(s.Wins) / float64(s.Matches) * 100
		}
		table.Append(
			name,
			s.MapName,
			strconv.Itoa(s.Matches),
			pct(winRate),
			strconv.Itoa(s.RoundsPlayed),
			strconv.Itoa(s.Kills),
			strconv.Itoa(s.Deaths),
			pct(s.KAST()*100),
		)
	}
	table.Render()
}

// PrintOverview prints database-wide counts followed by map and mode tallies.
func PrintOverview(w io.Writer, o storage.Overview) {
	fmt.Fprintf(w, "Matches: %s  |  Players: %s  |  Rounds: %s  |  Results: %s (%d estimated)  |  Cached: %s\n\n",
		humanize.Comma(int64(o.Matches)), humanize.Comma(int64(o.Players)), humanize.Comma(int64(o.Rounds)),
		humanize.Comma(int64(o.Results)), o.Estimated, humanize.Comma(int64(o.CacheEntries)))

	for _, group := range []struct {
		title  string
		counts []storage.LabelCount
	}{{"MAP", o.Maps}, {"MODE", o.Modes}} {
		if len(group.counts) == 0 {
			continue
		}
		table := newTable(w)
		table.Header(group.title, "MATCHES", "SHARE")
		for _, lc := range group.counts {
			label := lc.Label
			if label == "" {
				label = missing
			}
			table.Append(label, strconv.Itoa(lc.Count), pct(float64(lc.Count)/float64(o.Matches)*100))
		}
		table.Render()
		fmt.Fprintln(w)
	}
}

// PrintRows prints an arbitrary result set such as the output of the sql command.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = strings.ToUpper(c)
	}
	table.Header(header...)
	for _, row := range rows {
		vals := make([]any, len(row))
		for i, v := range row {
			vals[i] = v
		}
		table.Append(vals...)
	}
	table.Render()
	fmt.Fprintf(w, "(%s)\n", english.Plural(len(rows), "row", "rows"))
}
