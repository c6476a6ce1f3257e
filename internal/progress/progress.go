// Package progress builds the practice history view: lifetime completion
// counts per module, cap progress and category totals.
package progress

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/prepday/internal/catalog"
	"github.com/abhisek/prepday/internal/clock"
	"github.com/abhisek/prepday/internal/planner"
	"github.com/abhisek/prepday/internal/store"
)

// SortKey orders the rows of a Report.
type SortKey string

const (
	SortGroup  SortKey = "group"
	SortCount  SortKey = "count"
	SortRecent SortKey = "recent"
)

// ParseSort parses a sort key; "" means SortGroup.
func ParseSort(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "", SortGroup, "part":
		return SortGroup, nil
	case SortCount, SortRecent:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort %q (want group, count or recent)", s)
	}
}

// Level buckets progress toward a cap: 0 below 25%, 1 from 25%, 2 from
// 50%, 3 from 75% and 4 at or over the cap.
type Level int

const (
	LevelNone Level = iota
	LevelLow
	LevelMedium
	LevelHigh
	LevelCapped
)

// LevelFor returns the cap level of count against limit.
func LevelFor(count, limit int) Level {
	if limit <= 0 {
		return LevelCapped
	}
	pct := count * 100 / limit
	switch {
	case pct >= 100:
		return LevelCapped
	case pct >= 75:
		return LevelHigh
	case pct >= 50:
		return LevelMedium
	case pct >= 25:
		return LevelLow
	default:
		return LevelNone
	}
}

// Row is one module's lifetime record.
type Row struct {
	Module            catalog.Module `json:"module"`
	CompletedCount    int            `json:"completedCount"`
	LastCompletedDate string         `json:"lastCompletedDate,omitempty"`
	// DaysSince is the number of days since the last completion, or -1.
	DaysSince int   `json:"daysSince"`
	Cap       int   `json:"cap"`
	Level     Level `json:"level"`
}

// CategoryTotals summarizes one category.
type CategoryTotals struct {
	Completions int `json:"completions"`
	// Tracked counts modules with a stat entry.
	Tracked int     `json:"tracked"`
	Average float64 `json:"average"`
	Capped  int     `json:"capped"`
}

// Report is the history view of one user.
type Report struct {
	UserID      string                              `json:"userId"`
	Rows        []Row                               `json:"rows"`
	Totals      map[catalog.Category]CategoryTotals `json:"totals"`
	Completions int                                 `json:"completions"`
}

// Options filter and order a Report.
type Options struct {
	Sort     SortKey
	Category catalog.Category // "" for all
	// Today is the civil date DaysSince is measured against. Empty
	// leaves DaysSince at -1.
	Today string
}

// Build joins the catalog with st's stats. Totals cover every category
// regardless of the filter; stats of modules no longer in the catalog are
// ignored.
func Build(cat *catalog.Catalog, st *store.UserState, p planner.Policy, opts Options) *Report {
	r := &Report{
		UserID: st.UserID,
		Rows:   []Row{},
		Totals: make(map[catalog.Category]CategoryTotals, len(catalog.Categories)),
	}
	for _, c := range catalog.Categories {
		r.Totals[c] = CategoryTotals{}
	}

	for _, m := range cat.All() {
		row := Row{Module: m, DaysSince: -1, Cap: p.Cap(m.Category)}
		if stat := st.Stat(m.ID); stat != nil {
			row.CompletedCount = stat.CompletedCount
			row.LastCompletedDate = stat.LastCompletedDate

			t := r.Totals[m.Category]
			t.Tracked++
			t.Completions += stat.CompletedCount
			if stat.CompletedCount >= row.Cap {
				t.Capped++
			}
			r.Totals[m.Category] = t
			r.Completions += stat.CompletedCount
		}
		row.Level = LevelFor(row.CompletedCount, row.Cap)
		if opts.Today != "" && row.LastCompletedDate != "" {
			if d, ok := clock.DaysBetween(row.LastCompletedDate, opts.Today); ok {
				row.DaysSince = d
			}
		}
		if opts.Category == "" || opts.Category == m.Category {
			r.Rows = append(r.Rows, row)
		}
	}

	for c, t := range r.Totals {
		if t.Tracked > 0 {
			t.Average = float64(t.Completions) / float64(t.Tracked)
			r.Totals[c] = t
		}
	}

	sortRows(r.Rows, opts.Sort)
	return r
}

// sortRows orders rows in place. Rows start in catalog order, and the
// stable sort keeps it as the tie-break.
func sortRows(rows []Row, key SortKey) {
	switch key {
	case SortCount:
		slices.SortStableFunc(rows, func(a, b Row) int {
			return cmp.Compare(b.CompletedCount, a.CompletedCount)
		})
	case SortRecent:
		slices.SortStableFunc(rows, func(a, b Row) int {
			switch {
			case a.LastCompletedDate == b.LastCompletedDate:
				return 0
			case a.LastCompletedDate == "":
				return 1
			case b.LastCompletedDate == "":
				return -1
			}
			return strings.Compare(b.LastCompletedDate, a.LastCompletedDate)
		})
	}
}
