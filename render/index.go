package render

// Index is the root container of the span store: it owns every pool and
// metrics store registered against it and is the only long-lived owner in
// the model. Construct one with New, register pools with NewPool /
// NewKeyedPool and stores with NewMetricsStore, and pass the Index (or the
// pools it owns) explicitly; there is no hidden global state.
type Index struct {
	logger *Logger
	stats  StatsCollector

	// Teardown callbacks in registration order; Close runs them reversed
	// so dependents are cleared before their targets.
	teardown []func()
	closed   bool
}

// New creates an empty Index.
func New(opts ...Option) *Index {
	o := applyOptions(opts)
	return &Index{
		logger: o.logger,
		stats:  o.stats,
	}
}

// Close tears the Index down: metrics stores give back their held span
// references and pools destroy their remaining records, newest
// registrations first. All handles issued from the Index are invalid
// afterwards. Close is idempotent.
func (idx *Index) Close() error {
	if idx.closed {
		return nil
	}
	idx.closed = true
	for i := len(idx.teardown) - 1; i >= 0; i-- {
		idx.teardown[i]()
	}
	return nil
}

// NewPool registers a record pool with the Index.
//
// Reference bindings (BindAuto, BindCached) must be declared before the
// pool allocates its first record.
func NewPool[T any](idx *Index, name string, opts ...PoolOption) *Pool[T] {
	p := newPool[T](name, idx.logger, idx.stats, opts...)
	idx.teardown = append(idx.teardown, p.clear)
	return p
}

// NewKeyedPool registers a deduplicating pool with the Index. init
// populates the key fields of a freshly allocated record; it runs outside
// the modify gate.
func NewKeyedPool[K comparable, T any](idx *Index, name string, init func(*T, K), opts ...PoolOption) *KeyedPool[K, T] {
	kp := newKeyedPool[K, T](name, idx.logger, idx.stats, init, opts...)
	idx.teardown = append(idx.teardown, kp.clear)
	return kp
}

// NewMetricsStore registers a time-bucketed metric aggregator for pool with
// the Index. duration is the bucket width (nanoseconds by convention) and
// merge combines samples into the running aggregate.
func NewMetricsStore[T any, M any](idx *Index, pool *Pool[T], duration uint64, merge MergeFunc[M]) *MetricsStore[T, M] {
	s := newMetricsStore(pool, duration, merge)
	idx.teardown = append(idx.teardown, s.drain)
	return s
}
