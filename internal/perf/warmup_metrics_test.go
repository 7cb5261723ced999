package perf

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/bluewhale-ops/bluewhale-analytics/internal/jobs"
)

func TestWarmupJobReliabilityMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)

	for i := 0; i < 50; i++ {
		tracker := metrics.Track("kpi:warmup")
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending tracker: %v", err)
		}
		metrics.AddWarmedScope("MYR")
	}
	for i := 0; i < 2; i++ {
		tracker := metrics.Track("kpi:warmup")
		if err := tracker.End(errors.New("redis down")); err == nil {
			t.Fatal("expected error to propagate")
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	success := metricValue(t, families, "bluewhale_jobs_total", map[string]string{"job": "kpi:warmup", "status": "success"})
	failure := metricValue(t, families, "bluewhale_jobs_total", map[string]string{"job": "kpi:warmup", "status": "failure"})
	if success != 50 || failure != 2 {
		t.Fatalf("run counters wrong: success %.0f failure %.0f", success, failure)
	}
	if ratio := success / (success + failure); ratio < 0.9 {
		t.Fatalf("warmup success ratio too low: %f", ratio)
	}

	warmed := metricValue(t, families, "bluewhale_warmed_scopes_total", map[string]string{"currency": "MYR"})
	if warmed != 50 {
		t.Fatalf("warmed scopes = %.0f", warmed)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok && pair.GetValue() == want {
			matched++
		}
	}
	return matched == len(labels)
}
