package render

// MergeFunc combines a metric sample into a running aggregate. It must be
// associative and commutative so samples may arrive in any order; the zero
// value of M is the empty aggregate.
type MergeFunc[M any] func(aggregate, sample M) M

// MetricsVisitor receives one drained bucket: the bucket's end timestamp,
// the contributing span's Location, the merged aggregate and the bucket
// duration. Timestamps are in the same unit as the store's bucket duration
// (nanoseconds by convention).
type MetricsVisitor[M any] func(endTimestamp uint64, span Location, aggregate M, interval uint64)

type bucketKey struct {
	id  uint64
	loc Location
}

type metricsBucket[M any] struct {
	id  uint64
	loc Location
	agg M
}

// MetricsStore accumulates metric samples for records of one pool into
// fixed-duration time buckets. Each (span, bucket) pair holds one extra
// reference on the span, keeping it alive independent of external handles
// until the bucket is drained.
//
// Like the pools it serves, a MetricsStore is not internally synchronized.
type MetricsStore[T any, M any] struct {
	pool     *Pool[T]
	duration uint64
	merge    MergeFunc[M]

	buckets map[bucketKey]*metricsBucket[M]
	// Pending buckets, oldest bucket id first. Late samples for an already
	// pending bucket merge in place; late samples for an older, absent
	// bucket insert before newer ones.
	queue []*metricsBucket[M]
}

func newMetricsStore[T any, M any](pool *Pool[T], duration uint64, merge MergeFunc[M]) *MetricsStore[T, M] {
	return &MetricsStore[T, M]{
		pool:     pool,
		duration: duration,
		merge:    merge,
		buckets:  make(map[bucketKey]*metricsBucket[M]),
	}
}

// BucketDuration returns the store's bucket width.
func (s *MetricsStore[T, M]) BucketDuration() uint64 { return s.duration }

// Pending returns the number of buckets waiting to be drained.
func (s *MetricsStore[T, M]) Pending() int { return len(s.queue) }

// Update merges sample into the bucket covering ts for the span at loc.
// The first sample of a (span, bucket) pair acquires an extra reference on
// the span and enters the bucket into the pending queue.
//
// Fails with ErrInvalidHandle if loc is stale.
func (s *MetricsStore[T, M]) Update(loc Location, ts uint64, sample M) error {
	if !s.pool.Valid(loc) {
		return &ErrStaleLocation{Pool: s.pool.name, Loc: loc}
	}
	id := ts / s.duration
	key := bucketKey{id: id, loc: loc}
	b, ok := s.buckets[key]
	if !ok {
		s.pool.Acquire(loc)
		b = &metricsBucket[M]{id: id, loc: loc}
		s.buckets[key] = b
		s.enqueue(b)
	}
	b.agg = s.merge(b.agg, sample)
	s.pool.stats.RecordMetricsUpdate(s.pool.name)
	return nil
}

func (s *MetricsStore[T, M]) enqueue(b *metricsBucket[M]) {
	i := len(s.queue)
	for i > 0 && s.queue[i-1].id > b.id {
		i--
	}
	s.queue = append(s.queue, nil)
	copy(s.queue[i+1:], s.queue[i:])
	s.queue[i] = b
}

// drainableAt returns the earliest instant at which the bucket may be
// drained: a full extra bucket duration after its nominal end, leaving room
// for late-arriving samples of the same window.
func (s *MetricsStore[T, M]) drainableAt(b *metricsBucket[M]) uint64 {
	return (b.id + 2) * s.duration
}

// Ready reports whether at least one pending bucket is drainable at now.
func (s *MetricsStore[T, M]) Ready(now uint64) bool {
	return len(s.queue) > 0 && s.drainableAt(s.queue[0]) <= now
}

// Foreach visits every bucket drainable at now, oldest first, then releases
// the bucket's span reference and removes it. This is the only path that
// releases the store's references: a span with no other outstanding handles
// is freed exactly when its last pending bucket drains. Buckets that are
// not yet drainable stay untouched.
func (s *MetricsStore[T, M]) Foreach(now uint64, visit MetricsVisitor[M]) {
	drained := 0
	for len(s.queue) > 0 {
		b := s.queue[0]
		if s.drainableAt(b) > now {
			break
		}
		s.queue = s.queue[1:]
		delete(s.buckets, bucketKey{id: b.id, loc: b.loc})
		visit((b.id+1)*s.duration, b.loc, b.agg, s.duration)
		s.pool.Release(b.loc)
		drained++
	}
	if drained > 0 {
		s.pool.stats.RecordDrain(s.pool.name, drained)
		s.pool.logger.LogDrain(s.pool.name, drained, len(s.queue))
	}
}

// drain releases every held span reference without visiting.
// Index teardown only.
func (s *MetricsStore[T, M]) drain() {
	for _, b := range s.queue {
		s.pool.Release(b.loc)
	}
	s.queue = nil
	s.buckets = make(map[bucketKey]*metricsBucket[M])
}
