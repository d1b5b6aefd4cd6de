package log

var _ Logger = SpanLogger{}

// SpanLogger forwards entries to a wrapped Logger and records them on a span.
// Entries written to the wrapped logger carry traceId and spanId.
type SpanLogger struct {
	base Logger // wrapped logger without the added caller skip
	lg   Logger
	ser  SpanEventRecorder
}

// NewSpanLogger wraps lg so that every entry is also recorded through ser.
// A SpanLogger passed as lg is rebound to ser rather than wrapped again.
func NewSpanLogger(lg Logger, ser SpanEventRecorder) Logger {
	if sl, ok := lg.(SpanLogger); ok {
		lg = sl.base
	}
	return SpanLogger{
		base: lg,
		lg:   lg.AddCallerSkip(1),
		ser:  ser,
	}
}

// Unwrap returns the logger sl forwards to.
func (sl SpanLogger) Unwrap() Logger {
	return sl.base
}

func (sl SpanLogger) Debug(msg string, keysAndValues ...any) {
	sl.ser.RecordEvent(msg, sl.spanAttributes(LevelDebug, keysAndValues)...)
	sl.lg.Debug(msg, sl.withTraceIDs(keysAndValues)...)
}

func (sl SpanLogger) Info(msg string, keysAndValues ...any) {
	sl.ser.RecordEvent(msg, sl.spanAttributes(LevelInfo, keysAndValues)...)
	sl.lg.Info(msg, sl.withTraceIDs(keysAndValues)...)
}

func (sl SpanLogger) Warn(msg string, keysAndValues ...any) {
	sl.ser.RecordEvent(msg, sl.spanAttributes(LevelWarn, keysAndValues)...)
	sl.lg.Warn(msg, sl.withTraceIDs(keysAndValues)...)
}

// Error records the entry as a span error.
func (sl SpanLogger) Error(msg string, keysAndValues ...any) {
	sl.ser.RecordError(msg, sl.spanAttributes(LevelError, keysAndValues)...)
	sl.lg.Error(msg, sl.withTraceIDs(keysAndValues)...)
}

// Fatal records the entry as a span error.
func (sl SpanLogger) Fatal(msg string, keysAndValues ...any) {
	sl.ser.RecordError(msg, sl.spanAttributes(LevelFatal, keysAndValues)...)
	sl.lg.Fatal(msg, sl.withTraceIDs(keysAndValues)...)
}

func (sl SpanLogger) WithKV(key string, value any) Logger {
	return SpanLogger{base: sl.base.WithKV(key, value), lg: sl.lg.WithKV(key, value), ser: sl.ser}
}

func (sl SpanLogger) GetAllKV() []any {
	return sl.lg.GetAllKV()
}

func (sl SpanLogger) WithName(name string) Logger {
	return SpanLogger{base: sl.base.WithName(name), lg: sl.lg.WithName(name), ser: sl.ser}
}

func (sl SpanLogger) Name() string {
	return sl.lg.Name()
}

func (sl SpanLogger) AddCallerSkip(skip int) Logger {
	return SpanLogger{base: sl.base.AddCallerSkip(skip), lg: sl.lg.AddCallerSkip(skip), ser: sl.ser}
}

func (sl SpanLogger) withTraceIDs(keysAndValues []any) []any {
	kv := make([]any, 0, len(keysAndValues)+4)
	kv = append(kv, "traceId", sl.ser.TraceID(), "spanId", sl.ser.SpanID())
	return append(kv, keysAndValues...)
}

// spanAttributes prefixes the entry's pairs with its level, the logger name
// and the logger's persistent pairs.
func (sl SpanLogger) spanAttributes(level Level, keysAndValues []any) []any {
	persistent := sl.lg.GetAllKV()
	kv := make([]any, 0, 4+len(persistent)+len(keysAndValues))
	kv = append(kv, "level", string(level), "component", sl.lg.Name())
	kv = append(kv, persistent...)
	return append(kv, keysAndValues...)
}
