package planner

import (
	"math"

	"github.com/abhisek/prepday/internal/catalog"
)

// FillTargets returns the fresh minutes each category should receive given
// the carried-over minutes per category.
//
// The fresh total is TargetMinutes minus all carry-over. It is split in
// proportion to each category's remaining deficit against its share of the
// target, so a category whose carry-over already covers its share gets no
// fresh intake.
func FillTargets(p Policy, carry map[catalog.Category]int) map[catalog.Category]int {
	carryTotal := 0
	for _, m := range carry {
		carryTotal += m
	}
	fresh := max(0, p.TargetMinutes-carryTotal)

	audioDef := max(0, p.CategoryTarget(catalog.Audio, p.TargetMinutes)-carry[catalog.Audio])
	textDef := max(0, p.CategoryTarget(catalog.Text, p.TargetMinutes)-carry[catalog.Text])

	targets := map[catalog.Category]int{catalog.Audio: 0, catalog.Text: 0}
	if fresh == 0 || audioDef+textDef == 0 {
		return targets
	}
	audio := int(math.Round(float64(fresh) * float64(audioDef) / float64(audioDef+textDef)))
	targets[catalog.Audio] = audio
	targets[catalog.Text] = fresh - audio
	return targets
}

// fill draws modules of one category from pool until target minutes are
// met. A draw only considers candidates that fit within the remaining
// minutes plus the overshoot tolerance; when none fit and more than the
// tolerance is still missing, the shortest remaining module is taken.
func fill(sel *selection, pool []catalog.Module, target int, counts map[string]int, p Policy, r Rand) int {
	added := 0
	remaining := target
	for remaining > 0 {
		var fits, rest []catalog.Module
		for _, m := range pool {
			if sel.has(m.ID) {
				continue
			}
			rest = append(rest, m)
			if m.Duration <= remaining+p.OvershootMinutes {
				fits = append(fits, m)
			}
		}
		if len(rest) == 0 {
			break
		}

		var pick catalog.Module
		if len(fits) > 0 {
			pick, _ = Draw(r, fits, counts)
		} else {
			if remaining <= p.OvershootMinutes {
				break
			}
			pick = shortest(rest, counts)
		}
		sel.add(pick, FromSample)
		added += pick.Duration
		remaining -= pick.Duration
	}
	return added
}

// shortest returns the module with the smallest duration, then the lowest
// completion count, then the earliest catalog position.
func shortest(ms []catalog.Module, counts map[string]int) catalog.Module {
	best := ms[0]
	for _, m := range ms[1:] {
		switch {
		case m.Duration < best.Duration:
			best = m
		case m.Duration == best.Duration && counts[m.ID] < counts[best.ID]:
			best = m
		}
	}
	return best
}
