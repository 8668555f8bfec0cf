// Package stats computes win-rate analytics over match records. Every
// function is pure: total over any input (including empty), no I/O, no
// mutation of the given slice. Zero-denominator rates come back nil, never
// an error and never 0.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/mdtracker/mdtrack/pkg/tracker"
)

// UnknownDeckLabel groups matchup-matrix entries whose deck name snapshot
// is empty. Such matches are counted, not dropped.
const UnknownDeckLabel = "(unknown)"

// FilterMode selects how a tag filter combines multiple selected names.
type FilterMode int

const (
	FilterOr FilterMode = iota
	FilterAnd
)

// Rate returns num/den as a percentage with 0.1-point resolution, or nil
// when the denominator is zero.
func Rate(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	r := math.Round(float64(num)/float64(den)*1000) / 10
	return &r
}

// KPIs are the headline aggregate rates over a set of matches.
type KPIs struct {
	Total         int      `json:"total"`
	FirstCount    int      `json:"firstCount"`
	SecondCount   int      `json:"secondCount"`
	WinRate       *float64 `json:"winRate"`
	FirstRate     *float64 `json:"firstRate"`
	SecondRate    *float64 `json:"secondRate"`
	FirstWinRate  *float64 `json:"firstWinRate"`
	SecondWinRate *float64 `json:"secondWinRate"`
}

// ComputeKPIs tallies wins and turn-order splits over matches.
func ComputeKPIs(matches []tracker.Match) KPIs {
	var wins, firstCount, secondCount, firstWins, secondWins int
	for _, m := range matches {
		won := m.Result == tracker.ResultWin
		if won {
			wins++
		}
		switch m.TurnOrder {
		case tracker.TurnFirst:
			firstCount++
			if won {
				firstWins++
			}
		case tracker.TurnSecond:
			secondCount++
			if won {
				secondWins++
			}
		}
	}

	total := len(matches)
	return KPIs{
		Total:         total,
		FirstCount:    firstCount,
		SecondCount:   secondCount,
		WinRate:       Rate(wins, total),
		FirstRate:     Rate(firstCount, total),
		SecondRate:    Rate(secondCount, total),
		FirstWinRate:  Rate(firstWins, firstCount),
		SecondWinRate: Rate(secondWins, secondCount),
	}
}

// TagRow is the per-tag breakdown for one distinct tag name.
type TagRow struct {
	Name          string   `json:"name"`
	Count         int      `json:"count"`
	WinRate       *float64 `json:"winRate"`
	FirstRate     *float64 `json:"firstRate"`
	SecondRate    *float64 `json:"secondRate"`
	FirstWinRate  *float64 `json:"firstWinRate"`
	SecondWinRate *float64 `json:"secondWinRate"`
}

type tagTally struct {
	count, wins, first, firstWins, second, secondWins int
}

// TagStats accumulates one row per distinct non-empty tag name appearing
// on any match, sorted descending by count; ties keep first-encounter
// order.
func TagStats(matches []tracker.Match) []TagRow {
	tallies := make(map[string]*tagTally)
	var order []string

	for _, m := range matches {
		won := m.Result == tracker.ResultWin
		for _, ref := range m.Tags {
			if ref.TagName == "" {
				continue
			}
			tally, ok := tallies[ref.TagName]
			if !ok {
				tally = &tagTally{}
				tallies[ref.TagName] = tally
				order = append(order, ref.TagName)
			}
			tally.count++
			if won {
				tally.wins++
			}
			switch m.TurnOrder {
			case tracker.TurnFirst:
				tally.first++
				if won {
					tally.firstWins++
				}
			case tracker.TurnSecond:
				tally.second++
				if won {
					tally.secondWins++
				}
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return tallies[order[i]].count > tallies[order[j]].count
	})

	rows := make([]TagRow, 0, len(order))
	for _, name := range order {
		t := tallies[name]
		rows = append(rows, TagRow{
			Name:          name,
			Count:         t.count,
			WinRate:       Rate(t.wins, t.count),
			FirstRate:     Rate(t.first, t.count),
			SecondRate:    Rate(t.second, t.count),
			FirstWinRate:  Rate(t.firstWins, t.first),
			SecondWinRate: Rate(t.secondWins, t.second),
		})
	}
	return rows
}

// Point is one sample of the rating series: X is the played-at instant in
// milliseconds since the Unix epoch, Y the rating.
type Point struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

// RateSeries extracts (instant, rating) points from matches with a rating
// and a parseable played-at instant, ascending by instant. Entries that
// cannot contribute are dropped silently.
func RateSeries(matches []tracker.Match) []Point {
	var series []Point
	for _, m := range matches {
		if m.Rating == nil {
			continue
		}
		t, err := time.Parse(time.RFC3339, m.PlayedAt)
		if err != nil {
			continue
		}
		series = append(series, Point{X: t.UnixMilli(), Y: *m.Rating})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].X < series[j].X })
	return series
}

// Cell is one matchup-matrix entry. WinRate is nil when no match of the
// pairing exists, rendered "N/A" by callers, never 0%.
type Cell struct {
	Wins    int      `json:"wins"`
	Total   int      `json:"total"`
	WinRate *float64 `json:"winRate"`
}

// Matrix is the deck-vs-opponent-deck grid. Rows and Cols are sorted
// lexicographically; Data is indexed [row][col].
type Matrix struct {
	Rows []string `json:"rows"`
	Cols []string `json:"cols"`
	Data [][]Cell `json:"data"`
}

// MatchupMatrix builds win/loss tallies for every (my deck, opponent deck)
// pairing seen in matches.
func MatchupMatrix(matches []tracker.Match) Matrix {
	type tally struct{ wins, total int }
	type key struct{ row, col string }

	rowSet := make(map[string]bool)
	colSet := make(map[string]bool)
	cells := make(map[key]*tally)

	for _, m := range matches {
		row := m.MyDeckName
		if row == "" {
			row = UnknownDeckLabel
		}
		col := m.OpDeckName
		if col == "" {
			col = UnknownDeckLabel
		}
		rowSet[row] = true
		colSet[col] = true

		k := key{row, col}
		t, ok := cells[k]
		if !ok {
			t = &tally{}
			cells[k] = t
		}
		t.total++
		if m.Result == tracker.ResultWin {
			t.wins++
		}
	}

	rows := make([]string, 0, len(rowSet))
	for r := range rowSet {
		rows = append(rows, r)
	}
	sort.Strings(rows)

	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	data := make([][]Cell, len(rows))
	for ri, r := range rows {
		data[ri] = make([]Cell, len(cols))
		for ci, c := range cols {
			if t, ok := cells[key{r, c}]; ok {
				data[ri][ci] = Cell{Wins: t.wins, Total: t.total, WinRate: Rate(t.wins, t.total)}
			}
		}
	}

	return Matrix{Rows: rows, Cols: cols, Data: data}
}

// FilterByTags returns the matches passing a tag-name selection. An empty
// selection passes everything unchanged. In FilterAnd mode a match needs
// every selected name in its tag-name set; in FilterOr mode at least one.
// A match with no tags never passes a non-empty selection.
func FilterByTags(matches []tracker.Match, selected []string, mode FilterMode) []tracker.Match {
	if len(selected) == 0 {
		return matches
	}

	var out []tracker.Match
	for _, m := range matches {
		names := make(map[string]bool, len(m.Tags))
		for _, ref := range m.Tags {
			if ref.TagName != "" {
				names[ref.TagName] = true
			}
		}
		if len(names) == 0 {
			continue
		}

		pass := mode == FilterAnd
		for _, want := range selected {
			if mode == FilterAnd {
				if !names[want] {
					pass = false
					break
				}
			} else if names[want] {
				pass = true
				break
			}
		}
		if pass {
			out = append(out, m)
		}
	}
	return out
}
