package planner

import (
	"slices"

	"github.com/abhisek/prepday/internal/catalog"
)

// Eligible returns the modules usable for fresh selection, in catalog order.
//
// A module is excluded when its completion count has reached its category
// cap, or when it appears in the recent history and is not carried over.
func Eligible(modules []catalog.Module, counts map[string]int, history, carryOver []string, p Policy) []catalog.Module {
	recent := toSet(history)
	carried := toSet(carryOver)

	out := make([]catalog.Module, 0, len(modules))
	for _, m := range modules {
		if counts[m.ID] >= p.Cap(m.Category) {
			continue
		}
		if recent[m.ID] && !carried[m.ID] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// capped reports whether m has reached its lifetime cap.
func capped(m catalog.Module, counts map[string]int, p Policy) bool {
	return counts[m.ID] >= p.Cap(m.Category)
}

func toSet(ids []string) map[string]bool {
	s := make(map[string]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func byCategory(modules []catalog.Module, c catalog.Category) []catalog.Module {
	return slices.DeleteFunc(slices.Clone(modules), func(m catalog.Module) bool {
		return m.Category != c
	})
}
