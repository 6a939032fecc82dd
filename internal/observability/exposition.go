package observability

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// family is one metric name rendered in the Prometheus text format.
type family interface {
	WritePrometheus(w io.Writer) error
}

type kind string

const (
	kindCounter kind = "counter"
	kindGauge   kind = "gauge"
)

// Vec is a set of float series sharing a name and label names. A Vec with no label names
// holds a single series.
type Vec struct {
	name   string
	help   string
	kind   kind
	labels []string

	mu     sync.Mutex
	series map[string]float64
}

func NewCounterVec(name, help string, labels []string) *Vec {
	return newVec(name, help, kindCounter, labels)
}

func NewCounter(name, help string) *Vec { return newVec(name, help, kindCounter, nil) }

func NewGaugeVec(name, help string, labels []string) *Vec {
	return newVec(name, help, kindGauge, labels)
}

func NewGauge(name, help string) *Vec { return newVec(name, help, kindGauge, nil) }

func newVec(name, help string, k kind, labels []string) *Vec {
	return &Vec{name: name, help: help, kind: k, labels: labels, series: map[string]float64{}}
}

// Add adds delta to the series. Counters ignore negative deltas.
func (v *Vec) Add(delta float64, values ...string) {
	if v == nil || (v.kind == kindCounter && delta < 0) {
		return
	}
	key := labelString(v.labels, values)
	v.mu.Lock()
	v.series[key] += delta
	v.mu.Unlock()
}

func (v *Vec) Inc(values ...string) { v.Add(1, values...) }

// Dec is a no-op on counters.
func (v *Vec) Dec(values ...string) { v.Add(-1, values...) }

// Set overwrites a gauge series.
func (v *Vec) Set(x float64, values ...string) {
	if v == nil || v.kind != kindGauge {
		return
	}
	key := labelString(v.labels, values)
	v.mu.Lock()
	v.series[key] = x
	v.mu.Unlock()
}

func (v *Vec) Value(values ...string) float64 {
	if v == nil {
		return 0
	}
	key := labelString(v.labels, values)
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.series[key]
}

func (v *Vec) WritePrometheus(w io.Writer) error {
	if v == nil {
		return nil
	}
	v.mu.Lock()
	keys := sortedKeys(v.series)
	snapshot := make([]float64, len(keys))
	for i, k := range keys {
		snapshot[i] = v.series[k]
	}
	v.mu.Unlock()

	if err := writeHeader(w, v.name, v.help, string(v.kind)); err != nil {
		return err
	}
	if len(v.labels) == 0 && len(keys) == 0 {
		_, err := fmt.Fprintf(w, "%s 0\n", v.name)
		return err
	}
	for i, k := range keys {
		if _, err := fmt.Fprintf(w, "%s%s %s\n", v.name, k, formatFloat(snapshot[i])); err != nil {
			return err
		}
	}
	return nil
}

type HistogramVec struct {
	name    string
	help    string
	labels  []string
	buckets []float64

	mu     sync.Mutex
	series map[string]*histogram
}

type histogram struct {
	// counts[i] counts observations <= buckets[i]; the final slot is +Inf.
	counts []uint64
	sum    float64
}

var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	return &HistogramVec{name: name, help: help, labels: labels, buckets: sorted, series: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(x float64, values ...string) {
	if h == nil || math.IsNaN(x) {
		return
	}
	key := labelString(h.labels, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist := h.series[key]
	if hist == nil {
		hist = &histogram{counts: make([]uint64, len(h.buckets)+1)}
		h.series[key] = hist
	}
	hist.sum += x
	for i, b := range h.buckets {
		if x <= b {
			hist.counts[i]++
		}
	}
	hist.counts[len(h.buckets)]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if err := writeHeader(w, h.name, h.help, "histogram"); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, k := range sortedKeys(h.series) {
		hist := h.series[k]
		for i, b := range h.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, formatFloat(b)), hist.counts[i]); err != nil {
				return err
			}
		}
		total := hist.counts[len(h.buckets)]
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, "+Inf"), total); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %s\n%s_count%s %d\n", h.name, k, formatFloat(hist.sum), h.name, k, total); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(w io.Writer, name, help, typ string) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, typ)
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// labelString renders {a="x",b="y"}; missing values become "unknown".
func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		parts[i] = name + `="` + escapeLabel(val) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string { return labelEscaper.Replace(v) }

func withLe(labels, le string) string {
	pair := `le="` + escapeLabel(le) + `"`
	if labels == "" {
		return "{" + pair + "}"
	}
	return strings.TrimSuffix(labels, "}") + "," + pair + "}"
}
