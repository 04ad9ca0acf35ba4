// Package logging provides structured logging for scalar.
//
// Records are written through log/slog. When a context carrying an active
// OpenTelemetry span is attached with WithContext, every record gains
// trace_id and span_id attributes.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents a log level.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the record encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseLevel maps a config string onto a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "warning":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// sink is shared by a logger and every logger derived from it.
type sink struct {
	mu      sync.Mutex
	level   slog.LevelVar
	format  Format
	output  io.Writer
	handler slog.Handler
}

func (s *sink) rebuild() {
	opts := &slog.HandlerOptions{
		Level:       &s.level,
		ReplaceAttr: replaceAttr,
	}
	var h slog.Handler
	if s.format == FormatText {
		h = slog.NewTextHandler(s.output, opts)
	} else {
		h = slog.NewJSONHandler(s.output, opts)
	}
	s.handler = NewTraceHandler(h)
}

// replaceAttr renames the slog built-in keys to the keys scalar has always
// emitted: timestamp, level (lower case) and message.
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
		}
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(strings.ToLower(lvl.String()))
		}
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// Logger provides structured logging.
type Logger struct {
	sink   *sink
	fields map[string]any
	ctx    context.Context
}

// NewLogger creates a JSON logger writing to stderr at the given level.
func NewLogger(level Level) *Logger {
	return NewLoggerWithFormat(level, FormatJSON)
}

// NewLoggerWithFormat creates a logger writing to stderr.
func NewLoggerWithFormat(level Level, format Format) *Logger {
	s := &sink{format: format, output: os.Stderr}
	s.level.Set(level.slogLevel())
	s.rebuild()
	return &Logger{sink: s, fields: map[string]any{}}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	l := NewLogger(LevelError)
	l.SetOutput(io.Discard)
	return l
}

// WithFields returns a new logger with additional fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{sink: l.sink, fields: merged, ctx: l.ctx}
}

// WithContext returns a logger that correlates its records with the span in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{sink: l.sink, fields: l.fields, ctx: ctx}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]any) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]any) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]any) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]any) {
	l.log(LevelError, msg, fields...)
}

// ErrorErr logs an error message with an error value.
func (l *Logger) ErrorErr(msg string, err error, fields ...map[string]any) {
	combined := map[string]any{"error": err.Error()}
	for _, f := range fields {
		for k, v := range f {
			combined[k] = v
		}
	}
	l.log(LevelError, msg, combined)
}

func (l *Logger) log(level Level, msg string, fields ...map[string]any) {
	ctx := l.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	l.sink.mu.Lock()
	h := l.sink.handler
	l.sink.mu.Unlock()

	lvl := level.slogLevel()
	if !h.Enabled(ctx, lvl) {
		return
	}

	merged := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rec := slog.NewRecord(time.Now(), lvl, msg, 0)
	for _, k := range keys {
		rec.AddAttrs(slog.Any(k, merged[k]))
	}
	_ = h.Handle(ctx, rec)
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
	l.sink.rebuild()
}

// SetFormat switches between json and text records.
func (l *Logger) SetFormat(format Format) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.format = format
	l.sink.rebuild()
}

// SetLevel sets the log level.
func (l *Logger) SetLevel(level Level) {
	l.sink.level.Set(level.slogLevel())
}

// Global logger instance
var (
	globalMu sync.RWMutex
	global   = NewLogger(LevelInfo)
)

// SetGlobal sets the global logger.
func SetGlobal(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = l
}

// Global returns the global logger.
func Global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// Debug logs to the global logger.
func Debug(msg string, fields ...map[string]any) {
	Global().Debug(msg, fields...)
}

// Info logs to the global logger.
func Info(msg string, fields ...map[string]any) {
	Global().Info(msg, fields...)
}

// Warn logs to the global logger.
func Warn(msg string, fields ...map[string]any) {
	Global().Warn(msg, fields...)
}

// Error logs to the global logger.
func Error(msg string, fields ...map[string]any) {
	Global().Error(msg, fields...)
}

// ErrorErr logs to the global logger with an error.
func ErrorErr(msg string, err error, fields ...map[string]any) {
	Global().ErrorErr(msg, err, fields...)
}

// WithFields returns a new logger from global with additional fields.
func WithFields(fields map[string]any) *Logger {
	return Global().WithFields(fields)
}
