package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/x", "200", time.Millisecond)
	m.ObserveAggregateOperation("ledger.append", "success", time.Millisecond)
	m.IncAggregateConflict("ledger.append")
	m.IncAggregateTimeout("ledger.append")
	m.AddReconcileRepaired("project", 2)
	m.ApiInflightInc()
	m.ApiInflightDec()
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestAggregateMetricsExposition(t *testing.T) {
	m := New()
	m.ObserveAggregateOperation("ledger.append", "success", 20*time.Millisecond)
	m.ObserveAggregateOperation("ledger.append", "aggregation_timeout", time.Second)
	m.ObserveAggregateOperation("ledger.append", "invalid_amount", time.Millisecond)
	m.IncAggregateTimeout("ledger.append")
	m.AddReconcileRepaired("obligation", 3)
	m.AddReconcileRepaired("obligation", 0)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`al_aggregate_operations_total{operation="ledger.append",status="success"} 1`,
		`al_aggregate_operations_total{operation="ledger.append",status="aggregation_timeout"} 1`,
		`al_aggregate_operations_failed_total 1`,
		`al_aggregate_timeouts_total{operation="ledger.append"} 1`,
		`al_reconcile_repaired_total{level="obligation"} 3`,
		`al_aggregate_operation_duration_seconds_count{operation="ledger.append",status="success"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q\n%s", want, out)
		}
	}
}

func TestObserveAPICountsServerErrors(t *testing.T) {
	m := New()
	m.ObserveAPI("POST", "/api/entries", "503", time.Millisecond)
	m.ObserveAPI("POST", "/api/entries", "201", time.Millisecond)
	if got := m.apiReqTotal.Value(); got != 2 {
		t.Fatalf("total=%v want 2", got)
	}
	if got := m.apiReqError.Value(); got != 1 {
		t.Fatalf("errors=%v want 1", got)
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := NewHistogramVec("h", "help", []string{"op"}, []float64{1, 2})
	h.Observe(0.5, "x")
	h.Observe(1.5, "x")
	var buf bytes.Buffer
	if err := h.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`h_bucket{op="x",le="1"} 1`,
		`h_bucket{op="x",le="2"} 2`,
		`h_bucket{op="x",le="+Inf"} 2`,
		`h_count{op="x"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
}

func TestVecKinds(t *testing.T) {
	c := NewCounter("c_total", "help")
	c.Add(-5)
	c.Set(9)
	c.Inc()
	if got := c.Value(); got != 1 {
		t.Fatalf("counter=%v want 1", got)
	}
	g := NewGaugeVec("g", "help", []string{"stat"})
	g.Set(4, "idle")
	g.Dec("idle")
	if got := g.Value("idle"); got != 3 {
		t.Fatalf("gauge=%v want 3", got)
	}
	var buf bytes.Buffer
	if err := g.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), `g{stat="idle"} 3`) {
		t.Fatalf("unexpected exposition:\n%s", buf.String())
	}
}

func TestOtelConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "yes")
	t.Setenv("OTEL_SAMPLER_RATIO", "3")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "a=1, bad ,b=2")
	cfg := OtelConfigFromEnv()
	if !cfg.Enabled {
		t.Fatalf("expected enabled")
	}
	if cfg.SampleRatio != 1 {
		t.Fatalf("ratio=%v want clamp to 1", cfg.SampleRatio)
	}
	if len(cfg.Headers) != 2 || cfg.Headers["a"] != "1" || cfg.Headers["b"] != "2" {
		t.Fatalf("headers=%v", cfg.Headers)
	}
}
