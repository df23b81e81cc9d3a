package cache

import (
	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics exposes Cache.Metrics() as prometheus gauges, registered
// under the given namespace so multiple caches (e.g. block cache vs. filter
// cache) can coexist in one registry. Hits/misses/evicted are gauges rather
// than counters even though Cache.Metrics() is cumulative: Collect reads a
// point-in-time total each time it's called, and a Counter's Add would
// double-count that total on every subsequent poll.
type PrometheusMetrics struct {
	hits, misses, evicted prometheus.Gauge
	size, capacity        prometheus.Gauge

	c *Cache
}

// NewPrometheusMetrics wires c's counters into reg under namespace.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string, c *Cache) *PrometheusMetrics {
	m := &PrometheusMetrics{
		c: c,
		hits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cache_hits_total",
		}),
		misses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cache_misses_total",
		}),
		evicted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cache_evicted_total",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cache_size_bytes",
		}),
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cache_capacity_bytes",
		}),
	}
	reg.MustRegister(m.hits, m.misses, m.evicted, m.size, m.capacity)
	return m
}

// Collect snapshots the underlying Cache and updates the registered series.
// Callers poll this periodically rather than wiring a live Collector, since
// per-segment locks make a push-on-mutation design contend too much.
func (m *PrometheusMetrics) Collect() {
	snap := m.c.Metrics()
	m.hits.Set(float64(snap.Hits))
	m.misses.Set(float64(snap.Misses))
	m.evicted.Set(float64(snap.Evicted))
	m.size.Set(float64(snap.Size))
	m.capacity.Set(float64(snap.Capacity))
}

// LatencyHistogram tracks operation latency in microseconds (sstable.Reader
// records its on-disk block-fetch latency here) with the same
// low/high/precision envelope pebble uses for its internal op-latency
// histograms, so percentile queries stay cheap at high sample rates.
type LatencyHistogram struct {
	h *hdrhistogram.Histogram
}

// NewLatencyHistogram creates a histogram covering 1us to 10s at 3
// significant figures.
func NewLatencyHistogram() *LatencyHistogram {
	return &LatencyHistogram{h: hdrhistogram.New(1, 10_000_000, 3)}
}

// Record adds one latency sample, in microseconds.
func (l *LatencyHistogram) Record(micros int64) error {
	return l.h.RecordValue(micros)
}

// ValueAtQuantile reports the latency at the given quantile (0-100).
func (l *LatencyHistogram) ValueAtQuantile(q float64) int64 {
	return l.h.ValueAtQuantile(q)
}
