package signals

// Logger defines the interface for agent and module logging.
// The framework uses structured logging with key-value pairs so log output
// stays consistent and parseable regardless of the backing implementation.
//
// The variadic arguments are alternating key-value pairs:
//
//	logger.Info("module attached", "module", "Ping", "position", 2)
//
// This shape is directly compatible with slog, and adapters for zap or
// logrus are one-liners. Modules reach the logger through their attachment
// reference (see ModuleBase.Logger), so a detached module cannot log.
type Logger interface {
	// Info logs an informational message with optional key-value pairs.
	Info(msg string, args ...any)

	// Error logs an error message with optional key-value pairs.
	Error(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, args ...any)

	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, args ...any)
}
