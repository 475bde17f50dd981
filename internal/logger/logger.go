// Package logger provides structured logging for recquery
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nainya/recquery/pkg/condition"
)

// Logger wraps zerolog with recquery-specific functionality
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new structured logger. The level applies to this
// logger and its children only.
func NewLogger(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	// Pretty printing for development
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "recquery").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Zerolog returns the underlying zerolog logger
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// Info logs an info message
func (l *Logger) Info(msg string) *zerolog.Event {
	return l.zlog.Info().Str("msg", msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) *zerolog.Event {
	return l.zlog.Debug().Str("msg", msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) *zerolog.Event {
	return l.zlog.Warn().Str("msg", msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) *zerolog.Event {
	return l.zlog.Error().Str("msg", msg)
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// GrpcLogger returns a logger for gRPC operations
func (l *Logger) GrpcLogger(method string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "grpc").
			Str("method", method).
			Logger(),
	}
}

// QueryLogger returns a logger for query engine operations
func (l *Logger) QueryLogger(dataset string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "query").
			Str("dataset", dataset).
			Logger(),
	}
}

// LogGrpcRequest logs a completed gRPC request. Call it on a GrpcLogger,
// which carries the component and method fields.
func (l *Logger) LogGrpcRequest(requestID string, duration time.Duration, err error) {
	event := l.zlog.Info()
	if err != nil {
		event = l.zlog.Error().Err(err)
	}

	event.
		Str("request_id", requestID).
		Dur("duration_ms", duration).
		Msg("gRPC request completed")
}

// LogQuery logs a completed query with structured fields
func (l *Logger) LogQuery(operation string, duration time.Duration, scanned, matched int, err error) {
	event := l.zlog.Debug().
		Int("scanned", scanned).
		Int("matched", matched)

	if err != nil {
		event = l.zlog.Error().Err(err)
	}

	event.
		Str("component", "query").
		Str("operation", operation).
		Dur("duration_ms", duration).
		Msg("Query completed")
}

// LogDiagnostic logs a recoverable query diagnostic
func (l *Logger) LogDiagnostic(operation string, d condition.Diagnostic) {
	l.zlog.Warn().
		Str("component", "query").
		Str("operation", operation).
		Str("kind", d.Kind.String()).
		Int("condition", d.Condition).
		Int("count", d.Count).
		Err(d.Err).
		Msg("Query diagnostic")
}

// LogDatasetLoaded logs a dataset registered from a flat file
func (l *Logger) LogDatasetLoaded(name, path string, records int, duration time.Duration) {
	l.zlog.Info().
		Str("event", "dataset_loaded").
		Str("dataset", name).
		Str("path", path).
		Int("records", records).
		Dur("duration_ms", duration).
		Msg("Dataset loaded")
}

// LogServerStart logs server startup
func (l *Logger) LogServerStart(port int, datasets int) {
	l.zlog.Info().
		Str("event", "server_start").
		Int("port", port).
		Int("datasets", datasets).
		Msg("recquery server starting")
}

// LogServerReady logs when server is ready
func (l *Logger) LogServerReady(port int) {
	l.zlog.Info().
		Str("event", "server_ready").
		Int("port", port).
		Msg("recquery server ready to accept connections")
}

// LogServerShutdown logs server shutdown
func (l *Logger) LogServerShutdown() {
	l.zlog.Info().
		Str("event", "server_shutdown").
		Msg("recquery server shutting down")
}

// SetGlobal makes l the logger behind zerolog's log package.
func SetGlobal(l *Logger) {
	log.Logger = l.zlog
}
