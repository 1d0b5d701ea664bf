package render

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with render-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPool adds a pool name field to the logger.
func (l *Logger) WithPool(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("pool", name),
	}
}

// LogGrow logs a pool growing its slot storage.
func (l *Logger) LogGrow(pool string, added, capacity int) {
	l.Debug("pool grown",
		"pool", pool,
		"added", added,
		"capacity", capacity,
	)
}

// LogAllocFailed logs a failed allocation.
func (l *Logger) LogAllocFailed(pool string, err error) {
	l.Warn("allocation failed",
		"pool", pool,
		"error", err,
	)
}

// LogClear logs a pool teardown.
func (l *Logger) LogClear(pool string, freed int) {
	if freed > 0 {
		l.Debug("pool cleared",
			"pool", pool,
			"freed", freed,
		)
	}
}

// LogDrain logs a metrics store drain pass.
func (l *Logger) LogDrain(pool string, buckets, pending int) {
	l.Debug("metrics drained",
		"pool", pool,
		"buckets", buckets,
		"pending", pending,
	)
}
