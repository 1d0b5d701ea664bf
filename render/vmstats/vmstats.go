// Package vmstats exports render operation counters in Prometheus
// exposition format via VictoriaMetrics/metrics.
package vmstats

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"

	"github.com/jp-signalfx/opentelemetry-ebpf/render"
)

// Collector is a render.StatsCollector backed by a VictoriaMetrics metric
// set. Counters are labeled by pool name.
type Collector struct {
	set *metrics.Set
}

var _ render.StatsCollector = (*Collector)(nil)

// New creates a Collector with its own metric set.
func New() *Collector {
	return NewWithSet(metrics.NewSet())
}

// NewWithSet creates a Collector writing into an existing metric set, so
// the embedding process can expose one registry for everything.
func NewWithSet(set *metrics.Set) *Collector {
	return &Collector{set: set}
}

// RecordAlloc implements render.StatsCollector.
func (c *Collector) RecordAlloc(pool string, err error) {
	if err != nil {
		c.counter("render_alloc_errors_total", pool).Inc()
		return
	}
	c.counter("render_allocs_total", pool).Inc()
}

// RecordRelease implements render.StatsCollector.
func (c *Collector) RecordRelease(pool string) {
	c.counter("render_releases_total", pool).Inc()
}

// RecordByKey implements render.StatsCollector.
func (c *Collector) RecordByKey(pool string, hit bool) {
	if hit {
		c.counter("render_by_key_hits_total", pool).Inc()
		return
	}
	c.counter("render_by_key_misses_total", pool).Inc()
}

// RecordMetricsUpdate implements render.StatsCollector.
func (c *Collector) RecordMetricsUpdate(pool string) {
	c.counter("render_metric_updates_total", pool).Inc()
}

// RecordDrain implements render.StatsCollector.
func (c *Collector) RecordDrain(pool string, buckets int) {
	c.counter("render_drained_buckets_total", pool).Add(buckets)
}

// RegisterSizeGauge exposes a pool's live record count as a gauge.
// Call it once per pool after registration:
//
//	vmstats.RegisterSizeGauge(collector, pool)
func RegisterSizeGauge[T any](c *Collector, pool *render.Pool[T]) {
	name := fmt.Sprintf(`render_pool_size{pool=%q}`, pool.Name())
	c.set.NewGauge(name, func() float64 {
		return float64(pool.Size())
	})
}

// WritePrometheus writes all collected metrics to w in Prometheus
// exposition format.
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

func (c *Collector) counter(name, pool string) *metrics.Counter {
	return c.set.GetOrCreateCounter(fmt.Sprintf(`%s{pool=%q}`, name, pool))
}
