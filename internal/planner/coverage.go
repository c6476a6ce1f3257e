package planner

import (
	"github.com/abhisek/prepday/internal/catalog"
)

// ensureCoverage adds one module for every catalog group missing from the
// selection. It prefers eligible modules, then modules excluded only by
// recency; capped modules are never added. Within a tier the shortest
// module wins. Returns the groups that could not be covered.
func ensureCoverage(sel *selection, cat *catalog.Catalog, eligible map[string]bool, counts map[string]int, p Policy) []catalog.Group {
	present := sel.groupCounts()

	var uncovered []catalog.Group
	for _, g := range cat.Groups() {
		if present[g] > 0 {
			continue
		}

		var preferred, relaxed []catalog.Module
		for _, m := range cat.ByGroup(g) {
			if sel.has(m.ID) || capped(m, counts, p) {
				continue
			}
			if eligible[m.ID] {
				preferred = append(preferred, m)
			} else {
				relaxed = append(relaxed, m)
			}
		}

		switch {
		case len(preferred) > 0:
			sel.add(shortest(preferred, counts), FromCoverage)
		case len(relaxed) > 0:
			sel.add(shortest(relaxed, counts), FromCoverage)
		default:
			uncovered = append(uncovered, g)
		}
	}
	return uncovered
}
