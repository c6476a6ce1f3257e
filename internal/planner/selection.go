package planner

import (
	"github.com/abhisek/prepday/internal/catalog"
)

// Source records why a module is in the selection.
type Source string

const (
	FromCarryOver Source = "carry-over"
	FromSample    Source = "sampled"
	FromCoverage  Source = "coverage"
)

// Pick is one selected module.
type Pick struct {
	catalog.Module
	Source Source
}

// selection is the working set shared by the pipeline stages. Picks keep
// the order in which they were added.
type selection struct {
	picks []Pick
	ids   map[string]bool
}

func newSelection() *selection {
	return &selection{ids: make(map[string]bool)}
}

func (s *selection) add(m catalog.Module, src Source) bool {
	if s.ids[m.ID] {
		return false
	}
	s.ids[m.ID] = true
	s.picks = append(s.picks, Pick{Module: m, Source: src})
	return true
}

func (s *selection) remove(i int) {
	delete(s.ids, s.picks[i].ID)
	s.picks = append(s.picks[:i], s.picks[i+1:]...)
}

func (s *selection) has(id string) bool { return s.ids[id] }

func (s *selection) total() int {
	t := 0
	for _, p := range s.picks {
		t += p.Duration
	}
	return t
}

func (s *selection) minutes(c catalog.Category) int {
	t := 0
	for _, p := range s.picks {
		if p.Category == c {
			t += p.Duration
		}
	}
	return t
}

func (s *selection) groupCounts() map[catalog.Group]int {
	g := make(map[catalog.Group]int)
	for _, p := range s.picks {
		g[p.Group]++
	}
	return g
}
