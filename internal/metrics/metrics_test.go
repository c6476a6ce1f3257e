package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(Allocations.WithLabelValues("generate", "success"))
	Allocations.WithLabelValues("generate", "success").Inc()
	if got := testutil.ToFloat64(Allocations.WithLabelValues("generate", "success")); got != before+1 {
		t.Errorf("allocations = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(StoreConflicts)
	StoreConflicts.Inc()
	if got := testutil.ToFloat64(StoreConflicts); got != before+1 {
		t.Errorf("conflicts = %v, want %v", got, before+1)
	}
}

func TestHistogramsRegistered(t *testing.T) {
	AllocationMinutes.Observe(181)
	AllocationModules.Observe(11)
	if n := testutil.CollectAndCount(AllocationMinutes); n != 1 {
		t.Errorf("allocation minutes collected %d metrics, want 1", n)
	}
	Toggles.WithLabelValues("true").Inc()
	if n := testutil.CollectAndCount(Toggles, "prepday_completion_toggles_total"); n < 1 {
		t.Errorf("toggles collected %d series, want at least 1", n)
	}
}
