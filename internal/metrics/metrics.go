// Package metrics defines the Prometheus instruments of the allocation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Allocations counts pipeline runs by trigger (generate, transition)
	// and outcome (success, no_eligible, store_error, internal_error).
	Allocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prepday_allocations_total",
		Help: "Allocation pipeline runs by trigger and outcome",
	}, []string{"trigger", "outcome"})

	// Transitions counts day-transition checks by result (same_day, new_day).
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prepday_transition_checks_total",
		Help: "Day transition checks by result",
	}, []string{"result"})

	// AllocationMinutes tracks the total duration of allocated sets.
	AllocationMinutes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "prepday_allocation_minutes",
		Help:    "Total minutes of successfully allocated daily sets",
		Buckets: []float64{60, 120, 150, 165, 170, 180, 190, 200, 220, 260},
	})

	// AllocationModules tracks the number of modules per allocated set.
	AllocationModules = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "prepday_allocation_modules",
		Help:    "Modules per successfully allocated daily set",
		Buckets: prometheus.LinearBuckets(4, 2, 8),
	})

	// BudgetOutOfBand counts allocations whose total missed the band.
	BudgetOutOfBand = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prepday_budget_out_of_band_total",
		Help: "Allocations outside the duration band by direction",
	}, []string{"status"})

	// StoreConflicts counts optimistic write conflicts that forced a retry.
	StoreConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prepday_store_conflicts_total",
		Help: "User state version conflicts",
	})

	// Toggles counts completion toggles by resulting state.
	Toggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prepday_completion_toggles_total",
		Help: "Completion toggles by resulting state",
	}, []string{"completed"})
)
