package daily

import (
	"context"

	"github.com/abhisek/prepday/internal/catalog"
	"github.com/abhisek/prepday/internal/store"
)

// Item is one assignment of the current set joined with its module.
type Item struct {
	store.DailyAssignment
	Module         catalog.Module `json:"module"`
	Known          bool           `json:"known"`
	CompletedCount int            `json:"completedCount"`
}

// TodayView is a read-only snapshot of a user's current set.
type TodayView struct {
	UserID string `json:"userId"`
	// Date is the date of the stored set; Today is the clock's date.
	Date  string `json:"date"`
	Today string `json:"today"`
	// Stale is set when the stored set belongs to an earlier day and a
	// transition is pending.
	Stale bool   `json:"stale"`
	Items []Item `json:"items"`

	TotalMinutes     int `json:"totalMinutes"`
	CompletedMinutes int `json:"completedMinutes"`
	Completed        int `json:"completed"`
}

// Today returns the stored set without allocating. Modules no longer in
// the catalog are listed with Known=false and zero duration.
func (s *Service) Today(ctx context.Context, userID string) (*TodayView, error) {
	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := s.clock.Today()
	v := &TodayView{
		UserID: userID,
		Date:   st.CurrentDate,
		Today:  today,
		Stale:  st.CurrentDate != today,
		Items:  make([]Item, 0, len(st.DailyAssignments)),
	}
	counts := st.CompletedCounts()
	for _, a := range st.DailyAssignments {
		m, ok := s.catalog.Get(a.ModuleID)
		v.Items = append(v.Items, Item{
			DailyAssignment: a,
			Module:          m,
			Known:           ok,
			CompletedCount:  counts[a.ModuleID],
		})
		v.TotalMinutes += m.Duration
		if a.IsCompleted {
			v.Completed++
			v.CompletedMinutes += m.Duration
		}
	}
	return v, nil
}

// State returns a copy of the stored state, or a zero-value state for an
// unknown user.
func (s *Service) State(ctx context.Context, userID string) (*store.UserState, error) {
	return s.load(ctx, userID)
}

// Reset deletes the user's stored state.
func (s *Service) Reset(ctx context.Context, userID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.repo.Delete(ctx, userID); err != nil {
		return &StoreError{Op: "delete", UserID: userID, Err: err}
	}
	s.log.Info("user state reset", "user", userID)
	return nil
}
