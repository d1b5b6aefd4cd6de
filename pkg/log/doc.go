// Package log provides the structured, context-aware logger used across the
// Ledger client packages.
//
// Loggers are passed explicitly or carried in a context.Context; there is no
// package-level logger. Library code retrieves its logger with FromContext and
// silently falls back to a NoopLogger, so callers that never configure logging
// pay nothing for it:
//
//	ctx = log.SetContextLogger(ctx, log.NewZapLogger(log.Config{Level: log.LevelDebug}))
//	sig, err := client.SignHash(ctx, path, hash) // logs each APDU exchange
//
// # Implementations
//
//   - ZapLogger writes console, logfmt or JSON output through go.uber.org/zap.
//   - NoopLogger discards everything.
//   - SpanLogger mirrors log entries onto an OpenTelemetry span. SetContextLogger
//     installs it automatically when the context already carries a valid span.
//
// # Configuration
//
// Config is read from the environment by cleanenv:
//
//   - KDA_LOG_FORMAT: console, logfmt or json
//   - KDA_LOG_LEVEL: debug, info, warn, error or fatal
//   - KDA_LOG_OUTPUT: stderr, stdout or a file path
package log
