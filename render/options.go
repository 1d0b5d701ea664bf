package render

import "log/slog"

type options struct {
	logger *Logger
	stats  StatsCollector
}

// Option configures Index constructor behavior.
type Option func(*options)

// WithLogger configures structured logging for pool and store operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithStatsCollector configures a collector for operation counters.
// Pass nil to disable stats collection.
func WithStatsCollector(sc StatsCollector) Option {
	return func(o *options) {
		if sc == nil {
			sc = NoopStatsCollector{}
		}
		o.stats = sc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger: NoopLogger(),
		stats:  NoopStatsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

type poolOptions struct {
	maxCapacity     int
	initialCapacity int
}

// PoolOption configures a single pool.
type PoolOption func(*poolOptions)

// WithMaxCapacity makes the pool fixed-size: once n slots are occupied,
// Alloc fails with ErrCapacityExceeded instead of growing.
// n <= 0 means the pool grows without bound (the default).
func WithMaxCapacity(n int) PoolOption {
	return func(o *poolOptions) {
		o.maxCapacity = n
	}
}

// WithInitialCapacity pre-allocates n slots so the first allocations do not
// grow the arena.
func WithInitialCapacity(n int) PoolOption {
	return func(o *poolOptions) {
		o.initialCapacity = n
	}
}

func applyPoolOptions(optFns []PoolOption) poolOptions {
	var o poolOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.maxCapacity > 0 && o.initialCapacity > o.maxCapacity {
		o.initialCapacity = o.maxCapacity
	}
	return o
}
