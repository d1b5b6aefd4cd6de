package log

// Logger is a leveled, key/value structured logger.
type Logger interface {
	// Debug logs detail useful while diagnosing device communication.
	Debug(msg string, keysAndValues ...any)
	// Info logs routine progress.
	Info(msg string, keysAndValues ...any)
	// Warn logs unexpected but recoverable situations.
	Warn(msg string, keysAndValues ...any)
	// Error logs failures of the current operation.
	Error(msg string, keysAndValues ...any)
	// Fatal logs an unrecoverable failure; ZapLogger exits the process afterwards.
	Fatal(msg string, keysAndValues ...any)
	// WithKV returns a logger that adds key/value to every entry.
	WithKV(key string, value any) Logger
	// GetAllKV returns the key/value pairs added through WithKV.
	GetAllKV() []any
	// WithName returns a logger with name appended to its dotted name.
	WithName(name string) Logger
	// Name returns the logger's dotted name.
	Name() string
	// AddCallerSkip returns a logger that reports the caller skip frames higher.
	AddCallerSkip(skip int) Logger
}

// Level is the severity of a log entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// SpanEventRecorder records log entries onto a trace span.
type SpanEventRecorder interface {
	TraceID() string
	SpanID() string
	// RecordEvent adds an event with the given attributes.
	RecordEvent(name string, keysAndValues ...any)
	// RecordError adds an event and marks the span as failed.
	RecordError(name string, keysAndValues ...any)
}
