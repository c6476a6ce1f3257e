package planner

import (
	"github.com/abhisek/prepday/internal/catalog"
)

// Rand is the randomness source for sampling. *math/rand/v2.Rand
// satisfies it; tests inject seeded or scripted sources.
type Rand interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

// Weight is the sampling weight of a module completed count times.
// Never-practiced modules weigh 1; the weight decays toward 0 without
// reaching it.
func Weight(count int) float64 {
	if count < 0 {
		count = 0
	}
	return 1 / float64(count+1)
}

// Draw picks one candidate with probability proportional to its weight.
// It returns false only when candidates is empty. If every weight is zero
// the first candidate is returned.
func Draw(r Rand, candidates []catalog.Module, counts map[string]int) (catalog.Module, bool) {
	if len(candidates) == 0 {
		return catalog.Module{}, false
	}

	weights := make([]float64, len(candidates))
	var total float64
	for i, m := range candidates {
		weights[i] = Weight(counts[m.ID])
		total += weights[i]
	}
	if total <= 0 {
		return candidates[0], true
	}

	u := r.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if cum >= u {
			return candidates[i], true
		}
	}
	// Floating-point rounding can leave u just above the final sum.
	return candidates[len(candidates)-1], true
}
