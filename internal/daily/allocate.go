package daily

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/prepday/internal/logger"
	"github.com/abhisek/prepday/internal/metrics"
	"github.com/abhisek/prepday/internal/planner"
	"github.com/abhisek/prepday/internal/store"
)

// Trigger names what started an allocation.
type Trigger string

const (
	TriggerGenerate   Trigger = "generate"
	TriggerTransition Trigger = "transition"
)

// Result is the outcome of an allocation entry point. Failures carry
// Success=false, a human-readable Message and the underlying Err; the
// previously persisted state is left untouched.
type Result struct {
	Success          bool                    `json:"success"`
	Date             string                  `json:"date,omitempty"`
	DailyAssignments []store.DailyAssignment `json:"dailyAssignments"`
	TotalDuration    int                     `json:"totalDuration"`
	Message          string                  `json:"message,omitempty"`
	Budget           planner.BudgetStatus    `json:"budget,omitempty"`
	CarryOver        []string                `json:"carryOver,omitempty"`
	Diagnostics      []string                `json:"diagnostics,omitempty"`
	RunID            string                  `json:"runId,omitempty"`
	Err              error                   `json:"-"`
}

// Error returns Err's message, or "" on success.
func (r *Result) Error() string {
	if r == nil || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func failure(err error, msg string) *Result {
	return &Result{
		DailyAssignments: []store.DailyAssignment{},
		Message:          msg,
		Err:              err,
	}
}

// GenerateDailyAssignments allocates a new set for today and replaces the
// stored one, whatever the stored date. On a new day the unfinished
// modules of the previous set are carried over; on the same day the set is
// redrawn from scratch.
func (s *Service) GenerateDailyAssignments(ctx context.Context, userID string) *Result {
	return s.run(ctx, userID, TriggerGenerate)
}

// CheckAndTransitionIfNewDay allocates a new set when the stored date is
// not today. It returns nil when the user is already on today's set, so
// repeated calls within one civil day are no-ops. Concurrent calls for
// the same user share one run and its result. The shared run ignores the
// first caller's cancellation, since other callers wait on it.
func (s *Service) CheckAndTransitionIfNewDay(ctx context.Context, userID string) *Result {
	shared := context.WithoutCancel(ctx)
	v, _, _ := s.flight.Do(userID, func() (any, error) {
		return s.run(shared, userID, TriggerTransition), nil
	})
	return v.(*Result)
}

func (s *Service) run(ctx context.Context, userID string, trigger Trigger) *Result {
	runID := uuid.NewString()
	log := s.log.With("user", userID, "trigger", string(trigger), "run", runID)

	res := s.allocateSafely(ctx, userID, trigger, log)
	if res == nil {
		metrics.Transitions.WithLabelValues("same_day").Inc()
		return nil
	}
	if trigger == TriggerTransition {
		metrics.Transitions.WithLabelValues("new_day").Inc()
	}
	res.RunID = runID
	s.observe(trigger, res)
	s.recordAllocation(ctx, userID, trigger, res, log)
	return res
}

// allocateSafely converts a panic anywhere in the pipeline into a failure
// result.
func (s *Service) allocateSafely(ctx context.Context, userID string, trigger Trigger, log *logger.Logger) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("allocation panicked", "panic", r)
			res = failure(fmt.Errorf("daily: allocation panicked: %v", r), "Allocation failed unexpectedly")
		}
	}()
	return s.allocate(ctx, userID, trigger, log)
}

func (s *Service) allocate(ctx context.Context, userID string, trigger Trigger, log *logger.Logger) *Result {
	if userID == "" {
		return failure(errors.New("daily: empty user id"), "No user given")
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 1; ; attempt++ {
		st, err := s.load(ctx, userID)
		if err != nil {
			log.Error("load user state", "error", err)
			return failure(err, "Could not read user data")
		}

		today := s.clock.Today()
		if trigger == TriggerTransition && st.CurrentDate == today {
			log.Debug("same day, keeping current set", "date", today)
			return nil
		}
		log.Debug("allocating", "stored_date", st.CurrentDate, "today", today, "attempt", attempt)

		next, res := s.plan(st, today, log)
		if !res.Success {
			return res
		}

		err = s.repo.Put(ctx, next)
		if errors.Is(err, store.ErrVersionConflict) {
			metrics.StoreConflicts.Inc()
			if attempt < s.attempts {
				log.Warn("user state changed during allocation, retrying", "attempt", attempt)
				continue
			}
		}
		if err != nil {
			serr := &StoreError{Op: "put", UserID: userID, Err: err}
			log.Error("save user state", "error", serr, "attempts", attempt)
			return failure(serr, "Could not save the new set")
		}
		return res
	}
}

// plan runs the planner against st and returns the state to persist with
// the matching result. st is not modified.
func (s *Service) plan(st *store.UserState, today string, log *logger.Logger) (*store.UserState, *Result) {
	carry := carryOver(st, today)
	in := planner.Input{
		Catalog:       s.catalog,
		Counts:        st.CompletedCounts(),
		RecentHistory: st.RecentHistory,
		CarryOver:     carry,
	}
	out, err := planner.Plan(in, s.policy, s.newRand())
	if err != nil {
		if errors.Is(err, ErrNoEligibleModules) {
			log.Warn("no eligible modules", "error", err)
			return nil, failure(err, "No eligible modules left to assign")
		}
		log.Error("plan failed", "error", err)
		return nil, failure(err, "Could not allocate a new set")
	}

	ids := out.IDs()
	next := st.Clone()
	next.CurrentDate = today
	next.DailyAssignments = make([]store.DailyAssignment, len(ids))
	for i, id := range ids {
		next.DailyAssignments[i] = store.DailyAssignment{ModuleID: id, AssignedDate: today}
	}
	next.PushHistory(ids, s.policy.HistoryCapacity)
	next.CarryOver = []string{}

	if out.Budget != planner.InBand {
		log.Warn("allocation outside duration band",
			"minutes", out.TotalMinutes, "budget", string(out.Budget), "diagnostics", out.Diagnostics)
	}
	log.Info("allocation complete",
		"date", today, "modules", len(ids), "minutes", out.TotalMinutes, "carry_over", len(out.CarryOver))

	return next, &Result{
		Success:          true,
		Date:             today,
		DailyAssignments: next.DailyAssignments,
		TotalDuration:    out.TotalMinutes,
		Message:          fmt.Sprintf("Assigned %d modules, %d minutes in total", len(ids), out.TotalMinutes),
		Budget:           out.Budget,
		CarryOver:        out.CarryOver,
		Diagnostics:      out.Diagnostics,
	}
}

// carryOver returns the module ids to re-offer today: the unfinished
// modules of a set from an earlier day plus any persisted carry-over,
// deduplicated in order.
func carryOver(st *store.UserState, today string) []string {
	var ids []string
	seen := map[string]bool{}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if st.CurrentDate != today {
		for _, a := range st.DailyAssignments {
			if !a.IsCompleted {
				add(a.ModuleID)
			}
		}
	}
	for _, id := range st.CarryOver {
		add(id)
	}
	return ids
}

func (s *Service) observe(trigger Trigger, res *Result) {
	outcome := "success"
	switch {
	case res.Success:
	case errors.Is(res.Err, ErrNoEligibleModules):
		outcome = "no_eligible"
	case errors.As(res.Err, new(*StoreError)):
		outcome = "store_error"
	default:
		outcome = "internal_error"
	}
	metrics.Allocations.WithLabelValues(string(trigger), outcome).Inc()
	if !res.Success {
		return
	}
	metrics.AllocationMinutes.Observe(float64(res.TotalDuration))
	metrics.AllocationModules.Observe(float64(len(res.DailyAssignments)))
	if res.Budget != planner.InBand {
		metrics.BudgetOutOfBand.WithLabelValues(string(res.Budget)).Inc()
	}
}

func (s *Service) recordAllocation(ctx context.Context, userID string, trigger Trigger, res *Result, log *logger.Logger) {
	if s.events == nil {
		return
	}
	data := store.AllocationEventData{
		RunID:        res.RunID,
		UserID:       userID,
		Date:         res.Date,
		Kind:         string(trigger),
		Success:      res.Success,
		TotalMinutes: res.TotalDuration,
		Budget:       string(res.Budget),
		CarryOver:    res.CarryOver,
		Message:      res.Message,
	}
	if data.Date == "" {
		data.Date = s.clock.Today()
	}
	for _, a := range res.DailyAssignments {
		data.ModuleIDs = append(data.ModuleIDs, a.ModuleID)
	}
	if res.Err != nil {
		data.Message = res.Err.Error()
	}
	if err := s.events.AppendAllocation(ctx, data); err != nil {
		log.Warn("record allocation event", "error", err)
	}
}
