package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestCollector_Counter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter("hoard_hits_total", 1)
	c.IncCounter("hoard_hits_total", 2)

	f := gather(t, reg, "hoard_hits_total")
	if f == nil {
		t.Fatal("counter not registered")
	}
	if got := f.GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Errorf("counter value = %v, want 3", got)
	}
}

func TestCollector_Gauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetGauge("hoard_entries", 10)
	c.SetGauge("hoard_entries", 7)

	f := gather(t, reg, "hoard_entries")
	if f == nil {
		t.Fatal("gauge not registered")
	}
	if got := f.GetMetric()[0].GetGauge().GetValue(); got != 7 {
		t.Errorf("gauge value = %v, want 7", got)
	}
}

func TestCollector_Histogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveHistogram("hoard_store_fetchfresh_seconds", 0.002)
	c.ObserveHistogram("hoard_store_fetchfresh_seconds", 0.004)

	f := gather(t, reg, "hoard_store_fetchfresh_seconds")
	if f == nil {
		t.Fatal("histogram not registered")
	}
	if got := f.GetMetric()[0].GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("histogram sample count = %d, want 2", got)
	}
}

func TestCollector_ReusesRegisteredMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg)
	b := New(reg)

	a.IncCounter("hoard_gets_total", 1)
	b.IncCounter("hoard_gets_total", 1)

	f := gather(t, reg, "hoard_gets_total")
	if f == nil {
		t.Fatal("counter not registered")
	}
	if got := f.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("counter value = %v, want 2 (shared metric)", got)
	}
}

func TestNew_NilRegistryUsesDefault(t *testing.T) {
	c := New(nil)
	if c.registry != prometheus.DefaultRegisterer {
		t.Error("New(nil) did not fall back to the default registerer")
	}
}
