package tyeapps

// Logger defines the interface for structured logging used by the task
// monitors, the application provider and the HTTP API.
//
// Arguments are variadic key-value pairs:
//
//	logger.Info("Applications recomputed", "count", 2)
//
// A *slog.Logger satisfies this interface directly, as do thin adapters
// around logrus, zap and similar libraries.
type Logger interface {
	// Info logs an informational message, e.g. a subscription or a reload.
	Info(msg string, args ...any)

	// Error logs a failure that was handled but should be noted.
	Error(msg string, args ...any)

	// Warn logs an unusual but non-fatal condition.
	Warn(msg string, args ...any)

	// Debug logs detailed diagnostic information.
	Debug(msg string, args ...any)
}

// noopLogger discards everything. Components fall back to it when no logger
// is configured so they never need nil checks.
type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// NopLogger returns a Logger that discards all output.
func NopLogger() Logger {
	return noopLogger{}
}

func loggerOrNop(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}
