package store

import (
	"slices"
)

// DailyAssignment is one module's inclusion in a day's set.
type DailyAssignment struct {
	ModuleID     string `json:"moduleId"`
	IsCompleted  bool   `json:"isCompleted"`
	AssignedDate string `json:"assignedDate"`
}

// PracticeStat is the lifetime completion record of a module. Absence of a
// stat means the module was never completed.
type PracticeStat struct {
	ModuleID          string `json:"moduleId"`
	CompletedCount    int    `json:"completedCount"`
	LastCompletedDate string `json:"lastCompletedDate,omitempty"`
}

// UserState is the persisted root document for one learner. It is always
// read and replaced whole.
type UserState struct {
	UserID           string            `json:"userId"`
	CurrentDate      string            `json:"currentDate"`
	DailyAssignments []DailyAssignment `json:"dailyAssignments"`
	Stats            []PracticeStat    `json:"stats"`
	RecentHistory    []string          `json:"recentHistory"`
	CarryOver        []string          `json:"carryOver"`

	// Version is managed by the repository and is not part of the document.
	// Zero means the state has never been stored.
	Version int64 `json:"-"`
}

// NewUserState returns the zero-value state for a learner seen for the
// first time.
func NewUserState(userID string) *UserState {
	s := &UserState{UserID: userID}
	s.Normalize()
	return s
}

// Normalize replaces missing collections with empty ones so callers never
// distinguish nil from empty.
func (s *UserState) Normalize() {
	if s.DailyAssignments == nil {
		s.DailyAssignments = []DailyAssignment{}
	}
	if s.Stats == nil {
		s.Stats = []PracticeStat{}
	}
	if s.RecentHistory == nil {
		s.RecentHistory = []string{}
	}
	if s.CarryOver == nil {
		s.CarryOver = []string{}
	}
}

// Clone returns a deep copy.
func (s *UserState) Clone() *UserState {
	c := *s
	c.DailyAssignments = slices.Clone(s.DailyAssignments)
	c.Stats = slices.Clone(s.Stats)
	c.RecentHistory = slices.Clone(s.RecentHistory)
	c.CarryOver = slices.Clone(s.CarryOver)
	c.Normalize()
	return &c
}

// CompletedCounts returns the lifetime completion count per module id.
func (s *UserState) CompletedCounts() map[string]int {
	m := make(map[string]int, len(s.Stats))
	for _, st := range s.Stats {
		m[st.ModuleID] = st.CompletedCount
	}
	return m
}

// Stat returns a pointer to the stat for id, or nil.
func (s *UserState) Stat(id string) *PracticeStat {
	for i := range s.Stats {
		if s.Stats[i].ModuleID == id {
			return &s.Stats[i]
		}
	}
	return nil
}

// Assignment returns a pointer to today's assignment of id, or nil.
func (s *UserState) Assignment(id string) *DailyAssignment {
	for i := range s.DailyAssignments {
		if s.DailyAssignments[i].ModuleID == id {
			return &s.DailyAssignments[i]
		}
	}
	return nil
}

// PushHistory prepends ids to the recent history, most recent first,
// removing duplicates and keeping at most capacity entries.
func (s *UserState) PushHistory(ids []string, capacity int) {
	out := make([]string, 0, len(ids)+len(s.RecentHistory))
	seen := make(map[string]bool, cap(out))
	for _, list := range [][]string{ids, s.RecentHistory} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	if capacity >= 0 && len(out) > capacity {
		out = out[:capacity]
	}
	s.RecentHistory = out
}
