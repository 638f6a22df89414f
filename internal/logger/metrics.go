package logger

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Namespace prefixes every exported metric name.
const Namespace = "knltb"

// Metrics tracks counters, gauges and timings in a Prometheus registry.
// All operations are thread-safe.
//
// Counters track incrementing values (e.g., pages fetched).
// Gauges track point-in-time values (e.g., own teams in a division).
// Timings are exported as summaries; GetSnapshot also reports min and max.
type Metrics struct {
	mu       sync.Mutex
	registry *prometheus.Registry
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	timings  map[string]*timing
}

type timing struct {
	summary prometheus.Summary
	count   int
	total   time.Duration
	min     time.Duration
	max     time.Duration
}

var defaultMetrics *Metrics

func init() {
	defaultMetrics = NewMetrics()
}

// NewMetrics creates a tracker with its own registry.
func NewMetrics() *Metrics {
	return &Metrics{
		registry: prometheus.NewRegistry(),
		counters: make(map[string]prometheus.Counter),
		gauges:   make(map[string]prometheus.Gauge),
		timings:  make(map[string]*timing),
	}
}

// metricName turns "fetch.player" into "knltb_fetch_player".
func metricName(name string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_", "/", "_")
	return Namespace + "_" + r.Replace(name)
}

// IncrCounter increments a counter by 1, creating it on first use.
func (m *Metrics) IncrCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[name]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{Name: metricName(name) + "_total", Help: name})
		m.registry.MustRegister(c)
		m.counters[name] = c
	}
	c.Inc()
}

// SetGauge sets a gauge to the specified value, overwriting any previous value.
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.gauges[name]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{Name: metricName(name), Help: name})
		m.registry.MustRegister(g)
		m.gauges[name] = g
	}
	g.Set(value)
}

// RecordTiming records a duration measurement.
func (m *Metrics) RecordTiming(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.timings[name]
	if !ok {
		t = &timing{
			summary: prometheus.NewSummary(prometheus.SummaryOpts{
				Name:       metricName(name) + "_seconds",
				Help:       name,
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01},
			}),
			min: duration,
			max: duration,
		}
		m.registry.MustRegister(t.summary)
		m.timings[name] = t
	}
	t.summary.Observe(duration.Seconds())
	t.count++
	t.total += duration
	if duration < t.min {
		t.min = duration
	}
	if duration > t.max {
		t.max = duration
	}
}

// GetSnapshot returns a snapshot of all metrics as a map containing:
//   - "counters": map of counter names to values
//   - "gauges": map of gauge names to values
//   - "timings": map of timing names to statistics (count, total, average, min, max)
//
// Values are read back from the registry's collectors, so the snapshot
// matches what WriteTextfile exports.
func (m *Metrics) GetSnapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters := make(map[string]int64, len(m.counters))
	for name, c := range m.counters {
		var pb dto.Metric
		if err := c.Write(&pb); err == nil {
			counters[name] = int64(pb.GetCounter().GetValue())
		}
	}

	gauges := make(map[string]float64, len(m.gauges))
	for name, g := range m.gauges {
		var pb dto.Metric
		if err := g.Write(&pb); err == nil {
			gauges[name] = pb.GetGauge().GetValue()
		}
	}

	timings := make(map[string]map[string]interface{}, len(m.timings))
	for name, t := range m.timings {
		if t.count == 0 {
			continue
		}
		timings[name] = map[string]interface{}{
			"count":   t.count,
			"total":   t.total.String(),
			"average": (t.total / time.Duration(t.count)).String(),
			"min":     t.min.String(),
			"max":     t.max.String(),
		}
	}

	return map[string]interface{}{
		"counters": counters,
		"gauges":   gauges,
		"timings":  timings,
	}
}

// WriteTextfile writes every metric in the Prometheus text format, replacing
// path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Package-level metrics functions using the default metrics tracker

// IncrCounter increments a counter on the default metrics tracker.
func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

// SetGauge sets a gauge on the default metrics tracker.
func SetGauge(name string, value float64) {
	defaultMetrics.SetGauge(name, value)
}

// RecordTiming records a timing on the default metrics tracker.
func RecordTiming(name string, duration time.Duration) {
	defaultMetrics.RecordTiming(name, duration)
}

// GetMetricsSnapshot returns a snapshot of all metrics from the default tracker.
func GetMetricsSnapshot() map[string]interface{} {
	return defaultMetrics.GetSnapshot()
}

// WriteMetricsTextfile exports the default tracker to path.
func WriteMetricsTextfile(path string) error {
	return defaultMetrics.WriteTextfile(path)
}
