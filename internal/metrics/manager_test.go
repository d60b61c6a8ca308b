package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestManagerRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager("formcoach", "main", reg)

	m.CounterSessionsStarted.WithLabelValues("Squat").Inc()
	m.CounterReps.WithLabelValues("Squat").Add(3)
	m.GaugeActiveSessions.Inc()

	if got := testutil.ToFloat64(m.CounterReps.WithLabelValues("Squat")); got != 3 {
		t.Errorf("reps = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.GaugeActiveSessions); got != 1 {
		t.Errorf("active sessions = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.CounterSessionsStarted, "formcoach_main_sessions_started_total"); n != 1 {
		t.Errorf("started series = %d, want 1", n)
	}
}

func TestSetupPrometheusExtra(t *testing.T) {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "extra_total", Help: "extra"})
	reg := SetupPrometheus(c)
	c.Inc()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "extra_total" {
			found = true
		}
	}
	if !found {
		t.Error("extra collector not registered")
	}
}
