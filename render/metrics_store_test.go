package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jp-signalfx/opentelemetry-ebpf/render/metric"
)

const slotDuration = uint64(time.Second)

type someMetrics struct {
	Active uint64
	Total  uint64
}

func mergeSomeMetrics(a, b someMetrics) someMetrics {
	return someMetrics{
		Active: a.Active + b.Active,
		Total:  a.Total + b.Total,
	}
}

func TestMetricsStoreLifecycle(t *testing.T) {
	idx := New()
	defer idx.Close()

	pool := NewPool[simpleSpan](idx, "metrics_span")
	store := NewMetricsStore(idx, pool, slotDuration, mergeSomeMetrics)

	now := uint64(1)
	input := someMetrics{Active: 55, Total: 100}

	var spanLoc Location
	func() {
		span, err := pool.Alloc()
		require.NoError(t, err)
		defer span.Release()
		spanLoc = span.Loc()

		rc, err := span.Refcount()
		require.NoError(t, err)
		assert.Equal(t, uint32(1), rc)

		require.NoError(t, store.Update(span.Loc(), now, input))
		assert.Equal(t, 1, store.Pending())

		// The first sample of the bucket took a reference on the span.
		rc, err = span.Refcount()
		require.NoError(t, err)
		assert.Equal(t, uint32(2), rc)
	}()

	// The pending bucket keeps the span alive past its handle.
	assert.Equal(t, 1, pool.Size())

	// A bucket drains one full duration after its nominal end.
	assert.False(t, store.Ready(now))
	assert.False(t, store.Ready(2*slotDuration-1))
	assert.True(t, store.Ready(2*slotDuration))

	now += 2 * slotDuration

	visits := 0
	store.Foreach(now, func(end uint64, span Location, agg someMetrics, interval uint64) {
		visits++
		assert.Equal(t, slotDuration, end)
		assert.Equal(t, spanLoc, span)
		assert.Equal(t, input, agg)
		assert.Equal(t, slotDuration, interval)

		// The span is still alive while its bucket is being visited.
		assert.True(t, pool.Valid(span))
	})
	assert.Equal(t, 1, visits)

	// Drained: queue empty, span reference given back.
	assert.Equal(t, 0, store.Pending())
	assert.False(t, store.Ready(now))
	assert.Equal(t, 0, pool.Size())
}

func TestMetricsStoreMergesWithinBucket(t *testing.T) {
	idx := New()
	defer idx.Close()

	pool := NewPool[simpleSpan](idx, "metrics_span")
	store := NewMetricsStore(idx, pool, slotDuration, mergeSomeMetrics)

	span, err := pool.Alloc()
	require.NoError(t, err)
	defer span.Release()

	require.NoError(t, store.Update(span.Loc(), 1, someMetrics{Active: 1, Total: 10}))
	require.NoError(t, store.Update(span.Loc(), slotDuration-1, someMetrics{Active: 2, Total: 20}))
	assert.Equal(t, 1, store.Pending())

	// One bucket, one span reference.
	rc, err := span.Refcount()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), rc)

	store.Foreach(2*slotDuration, func(_ uint64, _ Location, agg someMetrics, _ uint64) {
		assert.Equal(t, someMetrics{Active: 3, Total: 30}, agg)
	})
	assert.Equal(t, 0, store.Pending())
}

func TestMetricsStoreSeparateBuckets(t *testing.T) {
	idx := New()
	defer idx.Close()

	pool := NewPool[simpleSpan](idx, "metrics_span")
	store := NewMetricsStore(idx, pool, slotDuration, mergeSomeMetrics)

	span, err := pool.Alloc()
	require.NoError(t, err)
	loc := span.Loc()

	require.NoError(t, store.Update(loc, 1, someMetrics{Active: 1}))
	require.NoError(t, store.Update(loc, slotDuration+1, someMetrics{Active: 2}))
	assert.Equal(t, 2, store.Pending())

	span.Put()
	assert.Equal(t, 1, pool.Size())

	// Only the first bucket is drainable at its deadline.
	var ends []uint64
	store.Foreach(2*slotDuration, func(end uint64, _ Location, _ someMetrics, _ uint64) {
		ends = append(ends, end)
	})
	assert.Equal(t, []uint64{slotDuration}, ends)
	assert.Equal(t, 1, store.Pending())
	assert.Equal(t, 1, pool.Size())

	// The last bucket drain frees the span.
	store.Foreach(3*slotDuration, func(end uint64, _ Location, _ someMetrics, _ uint64) {
		ends = append(ends, end)
	})
	assert.Equal(t, []uint64{slotDuration, 2 * slotDuration}, ends)
	assert.Equal(t, 0, store.Pending())
	assert.Equal(t, 0, pool.Size())
}

func TestMetricsStoreLateSamplesDrainOldestFirst(t *testing.T) {
	idx := New()
	defer idx.Close()

	pool := NewPool[simpleSpan](idx, "metrics_span")
	store := NewMetricsStore(idx, pool, slotDuration, mergeSomeMetrics)

	span, err := pool.Alloc()
	require.NoError(t, err)
	defer span.Release()

	// A late sample for an older window still drains before newer windows.
	require.NoError(t, store.Update(span.Loc(), 5*slotDuration, someMetrics{Active: 5}))
	require.NoError(t, store.Update(span.Loc(), 1*slotDuration, someMetrics{Active: 1}))
	require.NoError(t, store.Update(span.Loc(), 3*slotDuration, someMetrics{Active: 3}))

	var order []uint64
	store.Foreach(100*slotDuration, func(_ uint64, _ Location, agg someMetrics, _ uint64) {
		order = append(order, agg.Active)
	})
	assert.Equal(t, []uint64{1, 3, 5}, order)
}

func TestMetricsStoreRejectsStaleSpan(t *testing.T) {
	idx := New()
	defer idx.Close()

	pool := NewPool[simpleSpan](idx, "metrics_span")
	store := NewMetricsStore(idx, pool, slotDuration, mergeSomeMetrics)

	span, err := pool.Alloc()
	require.NoError(t, err)
	loc := span.Loc()
	span.Put()

	err = store.Update(loc, 1, someMetrics{Active: 1})
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.Equal(t, 0, store.Pending())
}

func TestMetricsStoreDistributionPayload(t *testing.T) {
	idx := New()
	defer idx.Close()

	pool := NewPool[simpleSpan](idx, "metrics_span")
	store := NewMetricsStore(idx, pool, slotDuration, metric.Merge)

	span, err := pool.Alloc()
	require.NoError(t, err)
	defer span.Release()

	require.NoError(t, store.Update(span.Loc(), 1, metric.Sample(10)))
	require.NoError(t, store.Update(span.Loc(), 2, metric.Sample(30)))

	store.Foreach(2*slotDuration, func(_ uint64, _ Location, agg metric.Distribution, _ uint64) {
		assert.Equal(t, int64(2), agg.Count)
		assert.Equal(t, 40.0, agg.Sum)
		assert.Equal(t, 10.0, agg.Min)
		assert.Equal(t, 30.0, agg.Max)
		assert.Equal(t, 20.0, agg.Mean())

		p100, ok := agg.Quantile(1)
		require.True(t, ok)
		assert.InEpsilon(t, 30.0, p100, 0.05)
	})
	assert.Equal(t, 0, store.Pending())
}
