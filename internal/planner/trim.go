package planner

import (
	"github.com/abhisek/prepday/internal/catalog"
)

// BudgetStatus describes where the final total lies relative to the band.
type BudgetStatus string

const (
	InBand      BudgetStatus = "in-band"
	UnderBudget BudgetStatus = "under"
	OverBudget  BudgetStatus = "over"
)

func budgetStatus(total int, p Policy) BudgetStatus {
	switch {
	case total > p.MaxMinutes:
		return OverBudget
	case total < p.MinMinutes:
		return UnderBudget
	default:
		return InBand
	}
}

// trim removes modules while the total exceeds MaxMinutes and more modules
// remain than there are groups. A removal is legal when the module's group
// keeps another representative and the module was not carried over.
//
// Among legal removals, those that keep the total at or above MinMinutes
// come first; then modules of the category furthest over its share of the
// current total; then the highest completion count; then the most
// recently added. If every legal removal would undershoot, the one landing
// closest to the band is taken only when it ends nearer than staying over.
// Returns the removed modules in removal order.
func trim(sel *selection, groups int, counts map[string]int, p Policy) []catalog.Module {
	var removed []catalog.Module
	for {
		total := sel.total()
		if total <= p.MaxMinutes || len(sel.picks) <= groups {
			return removed
		}

		over := overShareCategory(sel, total, p)
		reps := sel.groupCounts()

		best, bestUndershoot := -1, 0
		safe := false
		for i, pk := range sel.picks {
			if pk.Source == FromCarryOver || reps[pk.Group] < 2 {
				continue
			}
			after := total - pk.Duration
			isSafe := after >= p.MinMinutes
			undershoot := max(0, p.MinMinutes-after)

			if best < 0 {
				best, bestUndershoot, safe = i, undershoot, isSafe
				continue
			}
			if isSafe != safe {
				if isSafe {
					best, bestUndershoot, safe = i, undershoot, true
				}
				continue
			}
			if !safe && undershoot != bestUndershoot {
				if undershoot < bestUndershoot {
					best, bestUndershoot = i, undershoot
				}
				continue
			}
			if preferRemoval(pk, sel.picks[best], over, counts) {
				best, bestUndershoot = i, undershoot
			}
		}

		if best < 0 {
			return removed
		}
		if !safe && bestUndershoot >= total-p.MaxMinutes {
			return removed
		}
		removed = append(removed, sel.picks[best].Module)
		sel.remove(best)
	}
}

// preferRemoval reports whether a should be removed before b. Later picks
// win remaining ties, so callers iterating in order pass the later pick as a.
func preferRemoval(a, b Pick, over catalog.Category, counts map[string]int) bool {
	aOver, bOver := a.Category == over, b.Category == over
	if aOver != bOver {
		return aOver
	}
	if counts[a.ID] != counts[b.ID] {
		return counts[a.ID] > counts[b.ID]
	}
	return true
}

// overShareCategory returns the category whose minutes exceed its ideal
// share of total by the most.
func overShareCategory(sel *selection, total int, p Policy) catalog.Category {
	best := catalog.Category("")
	bestExcess := 0.0
	for _, c := range catalog.Categories {
		excess := float64(sel.minutes(c)) - float64(total)*p.Share(c)
		if best == "" || excess > bestExcess {
			best, bestExcess = c, excess
		}
	}
	return best
}
