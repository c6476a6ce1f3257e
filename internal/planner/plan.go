// Package planner selects a day's practice set: eligibility filtering,
// weighted sampling, category-budgeted fill, group coverage and budget
// trimming. It is a pure function of its inputs and the random source.
package planner

import (
	"errors"
	"fmt"
	"slices"

	"github.com/abhisek/prepday/internal/catalog"
)

// ErrNoEligibleModules is returned when nothing is carried over and the
// eligible pool cannot support an allocation.
var ErrNoEligibleModules = errors.New("no eligible modules")

// Input is everything a plan depends on besides the random source.
type Input struct {
	Catalog       *catalog.Catalog
	Counts        map[string]int
	RecentHistory []string
	CarryOver     []string
}

// Outcome is the result of a successful plan.
type Outcome struct {
	// Picks are the selected modules in catalog order.
	Picks []Pick

	TotalMinutes    int
	CategoryMinutes map[catalog.Category]int

	// FillTargets are the fresh minutes each category was filled toward.
	FillTargets map[catalog.Category]int

	// CarryOver lists the carried-over ids that were seeded.
	CarryOver []string
	// DroppedCarryOver lists carried-over ids not found in the catalog.
	DroppedCarryOver []string

	// Trimmed lists the modules removed to fit the budget.
	Trimmed []string
	// UncoveredGroups lists groups with no usable module.
	UncoveredGroups []catalog.Group

	Budget      BudgetStatus
	Diagnostics []string
}

// IDs returns the selected module ids in order.
func (o *Outcome) IDs() []string {
	ids := make([]string, len(o.Picks))
	for i, p := range o.Picks {
		ids[i] = p.ID
	}
	return ids
}

// Satisfied reports whether the set is within budget and covers every group.
func (o *Outcome) Satisfied() bool {
	return o.Budget == InBand && len(o.UncoveredGroups) == 0
}

// Plan runs the allocation pipeline.
func Plan(in Input, p Policy, r Rand) (*Outcome, error) {
	if in.Catalog == nil {
		return nil, errors.New("planner: nil catalog")
	}
	counts := in.Counts
	if counts == nil {
		counts = map[string]int{}
	}
	out := &Outcome{}
	sel := newSelection()

	// Seed carry-over.
	carryMinutes := map[catalog.Category]int{}
	for _, id := range in.CarryOver {
		m, ok := in.Catalog.Get(id)
		if !ok {
			out.DroppedCarryOver = append(out.DroppedCarryOver, id)
			continue
		}
		if sel.add(m, FromCarryOver) {
			carryMinutes[m.Category] += m.Duration
			out.CarryOver = append(out.CarryOver, id)
		}
	}
	if len(out.DroppedCarryOver) > 0 {
		out.Diagnostics = append(out.Diagnostics,
			fmt.Sprintf("dropped unknown carry-over modules: %v", out.DroppedCarryOver))
	}

	eligible := Eligible(in.Catalog.All(), counts, in.RecentHistory, out.CarryOver, p)
	if len(out.CarryOver) == 0 {
		if err := checkPool(eligible, len(in.Catalog.Groups())); err != nil {
			return nil, err
		}
	}

	// Fresh fill, audio before text. Minutes a category cannot fill from
	// its own pool spill over to the other category.
	out.FillTargets = FillTargets(p, carryMinutes)
	audioPool, textPool := byCategory(eligible, catalog.Audio), byCategory(eligible, catalog.Text)

	audioTarget := out.FillTargets[catalog.Audio]
	audioShort := max(0, audioTarget-fill(sel, audioPool, audioTarget, counts, p, r))

	textTarget := out.FillTargets[catalog.Text] + audioShort
	textShort := max(0, textTarget-fill(sel, textPool, textTarget, counts, p, r))
	if audioShort > p.OvershootMinutes {
		out.Diagnostics = append(out.Diagnostics,
			fmt.Sprintf("audio pool short by %d minutes, moved to text", audioShort))
	}
	if textShort > p.OvershootMinutes {
		got := fill(sel, audioPool, textShort, counts, p, r)
		out.Diagnostics = append(out.Diagnostics,
			fmt.Sprintf("text pool short by %d minutes, moved %d to audio", textShort, got))
	}

	eligibleSet := make(map[string]bool, len(eligible))
	for _, m := range eligible {
		eligibleSet[m.ID] = true
	}
	out.UncoveredGroups = ensureCoverage(sel, in.Catalog, eligibleSet, counts, p)
	for _, g := range out.UncoveredGroups {
		out.Diagnostics = append(out.Diagnostics, fmt.Sprintf("%s has no module under its cap", g))
	}

	for _, m := range trim(sel, len(in.Catalog.Groups()), counts, p) {
		out.Trimmed = append(out.Trimmed, m.ID)
	}

	out.Picks = slices.Clone(sel.picks)
	slices.SortFunc(out.Picks, func(a, b Pick) int {
		return in.Catalog.Index(a.ID) - in.Catalog.Index(b.ID)
	})
	out.TotalMinutes = sel.total()
	out.CategoryMinutes = map[catalog.Category]int{}
	for _, c := range catalog.Categories {
		out.CategoryMinutes[c] = sel.minutes(c)
	}

	out.Budget = budgetStatus(out.TotalMinutes, p)
	if out.Budget != InBand {
		out.Diagnostics = append(out.Diagnostics, fmt.Sprintf(
			"total %d minutes is outside %d-%d", out.TotalMinutes, p.MinMinutes, p.MaxMinutes))
	}
	return out, nil
}

// checkPool fails when a category has no eligible module or there are
// fewer eligible modules than groups to cover.
func checkPool(eligible []catalog.Module, groups int) error {
	for _, c := range catalog.Categories {
		if len(byCategory(eligible, c)) == 0 {
			return fmt.Errorf("%w: no %s modules available", ErrNoEligibleModules, c.DisplayName())
		}
	}
	if len(eligible) < groups {
		return fmt.Errorf("%w: only %d modules available for %d groups", ErrNoEligibleModules, len(eligible), groups)
	}
	return nil
}
