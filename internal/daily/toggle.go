package daily

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/abhisek/prepday/internal/catalog"
	"github.com/abhisek/prepday/internal/metrics"
	"github.com/abhisek/prepday/internal/store"
)

// ToggleResult is the state of a module after a completion toggle.
type ToggleResult struct {
	ModuleID          string `json:"moduleId"`
	Completed         bool   `json:"completed"`
	CompletedCount    int    `json:"completedCount"`
	LastCompletedDate string `json:"lastCompletedDate,omitempty"`
}

// ToggleCompletion flips the completion flag of an assigned module and
// updates its lifetime stat in the same write: completing increments the
// count and stamps today's date, un-completing decrements it, never below
// zero. The module must be part of the stored daily set.
func (s *Service) ToggleCompletion(ctx context.Context, userID, moduleID string) (*ToggleResult, error) {
	if userID == "" {
		return nil, errors.New("daily: empty user id")
	}
	log := s.log.With("user", userID, "module", moduleID)

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 1; ; attempt++ {
		st, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}

		next := st.Clone()
		a := next.Assignment(moduleID)
		if a == nil {
			if _, ok := s.catalog.Get(moduleID); !ok {
				return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownModule, moduleID)
			}
			return nil, fmt.Errorf("%w: %s", ErrNotAssigned, moduleID)
		}
		a.IsCompleted = !a.IsCompleted
		stat := applyToggle(next, moduleID, a.IsCompleted, s.clock.Today())

		err = s.repo.Put(ctx, next)
		if errors.Is(err, store.ErrVersionConflict) {
			metrics.StoreConflicts.Inc()
			if attempt < s.attempts {
				log.Warn("user state changed during toggle, retrying", "attempt", attempt)
				continue
			}
		}
		if err != nil {
			return nil, &StoreError{Op: "put", UserID: userID, Err: err}
		}

		res := &ToggleResult{
			ModuleID:          moduleID,
			Completed:         a.IsCompleted,
			CompletedCount:    stat.CompletedCount,
			LastCompletedDate: stat.LastCompletedDate,
		}
		log.Debug("completion toggled", "completed", res.Completed, "count", res.CompletedCount)
		metrics.Toggles.WithLabelValues(strconv.FormatBool(res.Completed)).Inc()
		s.recordCompletion(ctx, userID, res)
		return res, nil
	}
}

// applyToggle updates the stat of moduleID in st and returns a copy of it.
// A stat is only created on completion.
func applyToggle(st *store.UserState, moduleID string, completed bool, today string) store.PracticeStat {
	stat := st.Stat(moduleID)
	switch {
	case stat == nil && completed:
		st.Stats = append(st.Stats, store.PracticeStat{
			ModuleID:          moduleID,
			CompletedCount:    1,
			LastCompletedDate: today,
		})
		return st.Stats[len(st.Stats)-1]
	case stat == nil:
		return store.PracticeStat{ModuleID: moduleID}
	case completed:
		stat.CompletedCount++
		stat.LastCompletedDate = today
	default:
		stat.CompletedCount = max(0, stat.CompletedCount-1)
	}
	return *stat
}

func (s *Service) recordCompletion(ctx context.Context, userID string, res *ToggleResult) {
	if s.events == nil {
		return
	}
	err := s.events.AppendCompletion(ctx, store.CompletionEventData{
		UserID:         userID,
		ModuleID:       res.ModuleID,
		Date:           s.clock.Today(),
		Completed:      res.Completed,
		CompletedCount: res.CompletedCount,
	})
	if err != nil {
		s.log.Warn("record completion event", "user", userID, "error", err)
	}
}
