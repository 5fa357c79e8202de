package log

// Logger is the structured logging interface used across the application.
// Implementations must be safe for concurrent use.
type Logger interface {
	// Debug logs detailed information useful during development.
	// keysAndValues are treated as alternating key-value pairs.
	Debug(msg string, keysAndValues ...any)
	// Info logs routine events and state changes.
	Info(msg string, keysAndValues ...any)
	// Warn logs unexpected situations that are not errors.
	Warn(msg string, keysAndValues ...any)
	// Error logs failures that need attention.
	Error(msg string, keysAndValues ...any)
	// Fatal logs an unrecoverable failure and terminates the program.
	Fatal(msg string, keysAndValues ...any)
	// WithKV returns a logger carrying an extra key-value pair on every message.
	WithKV(key string, value any) Logger
	// WithName returns a logger for a named subsystem. Names nest with dots.
	WithName(name string) Logger
	// Name returns the logger's full subsystem name.
	Name() string
}

// Level represents the severity of a log message.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)
