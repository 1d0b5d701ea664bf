package render

import "sync/atomic"

// StatsCollector defines an interface for collecting operational counters.
// Implement this interface to integrate with monitoring systems; see the
// vmstats package for a VictoriaMetrics-backed implementation.
type StatsCollector interface {
	// RecordAlloc is called after each allocation attempt.
	// err is nil if a slot was handed out.
	RecordAlloc(pool string, err error)

	// RecordRelease is called after each refcount decrement.
	RecordRelease(pool string)

	// RecordByKey is called after each keyed lookup.
	// hit is true when an existing record was shared.
	RecordByKey(pool string, hit bool)

	// RecordMetricsUpdate is called after each metric sample merge.
	RecordMetricsUpdate(pool string)

	// RecordDrain is called after a drain pass that removed at least one
	// bucket.
	RecordDrain(pool string, buckets int)
}

// NoopStatsCollector is a no-op implementation of StatsCollector.
// Use this when stats collection is not needed.
type NoopStatsCollector struct{}

func (NoopStatsCollector) RecordAlloc(string, error)  {}
func (NoopStatsCollector) RecordRelease(string)       {}
func (NoopStatsCollector) RecordByKey(string, bool)   {}
func (NoopStatsCollector) RecordMetricsUpdate(string) {}
func (NoopStatsCollector) RecordDrain(string, int)    {}

// BasicStatsCollector provides simple in-memory counter collection.
// Useful for debugging and tests without external dependencies.
type BasicStatsCollector struct {
	AllocCount     atomic.Int64
	AllocErrors    atomic.Int64
	ReleaseCount   atomic.Int64
	ByKeyHits      atomic.Int64
	ByKeyMisses    atomic.Int64
	MetricsUpdates atomic.Int64
	DrainedBuckets atomic.Int64
}

// RecordAlloc implements StatsCollector.
func (b *BasicStatsCollector) RecordAlloc(pool string, err error) {
	b.AllocCount.Add(1)
	if err != nil {
		b.AllocErrors.Add(1)
	}
}

// RecordRelease implements StatsCollector.
func (b *BasicStatsCollector) RecordRelease(pool string) {
	b.ReleaseCount.Add(1)
}

// RecordByKey implements StatsCollector.
func (b *BasicStatsCollector) RecordByKey(pool string, hit bool) {
	if hit {
		b.ByKeyHits.Add(1)
	} else {
		b.ByKeyMisses.Add(1)
	}
}

// RecordMetricsUpdate implements StatsCollector.
func (b *BasicStatsCollector) RecordMetricsUpdate(pool string) {
	b.MetricsUpdates.Add(1)
}

// RecordDrain implements StatsCollector.
func (b *BasicStatsCollector) RecordDrain(pool string, buckets int) {
	b.DrainedBuckets.Add(int64(buckets))
}

// GetStats returns a snapshot of current counters.
func (b *BasicStatsCollector) GetStats() BasicStats {
	return BasicStats{
		AllocCount:     b.AllocCount.Load(),
		AllocErrors:    b.AllocErrors.Load(),
		ReleaseCount:   b.ReleaseCount.Load(),
		ByKeyHits:      b.ByKeyHits.Load(),
		ByKeyMisses:    b.ByKeyMisses.Load(),
		MetricsUpdates: b.MetricsUpdates.Load(),
		DrainedBuckets: b.DrainedBuckets.Load(),
	}
}

// BasicStats is a snapshot of BasicStatsCollector state.
type BasicStats struct {
	AllocCount     int64
	AllocErrors    int64
	ReleaseCount   int64
	ByKeyHits      int64
	ByKeyMisses    int64
	MetricsUpdates int64
	DrainedBuckets int64
}
