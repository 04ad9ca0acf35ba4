package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v, got: %s", err, line)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"warn":    LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLogger_JSONShape(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	logger.Info("step finished", map[string]any{"area": "CommitGraphStep", "count": 2})

	entry := decode(t, buf.String())
	if entry["message"] != "step finished" {
		t.Errorf("expected message, got: %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("expected info level, got: %v", entry["level"])
	}
	if entry["area"] != "CommitGraphStep" {
		t.Errorf("expected area field, got: %v", entry["area"])
	}
	if entry["count"].(float64) != 2 {
		t.Errorf("expected count 2, got: %v", entry["count"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Errorf("expected timestamp, got: %s", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelWarn)
	logger.SetOutput(&buf)

	logger.Debug("d")
	logger.Info("i")
	if buf.Len() > 0 {
		t.Fatalf("expected nothing below warn, got: %s", buf.String())
	}

	logger.Warn("w")
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("expected warn record, got: %s", buf.String())
	}

	logger.SetLevel(LevelDebug)
	buf.Reset()
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), `"level":"debug"`) {
		t.Errorf("expected debug record after SetLevel, got: %s", buf.String())
	}
}

func TestLogger_ErrorErr(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelError)
	logger.SetOutput(&buf)

	logger.ErrorErr("write failed", errors.New("exit status 1"), map[string]any{"command": "WriteCommitGraph"})

	entry := decode(t, buf.String())
	if entry["error"] != "exit status 1" {
		t.Errorf("expected error field, got: %v", entry["error"])
	}
	if entry["command"] != "WriteCommitGraph" {
		t.Errorf("expected command field, got: %v", entry["command"])
	}
}

func TestLogger_WithFieldsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	child := logger.WithFields(map[string]any{"area": "LooseObjectsStep"})
	child.Info("child")
	if !strings.Contains(buf.String(), `"area":"LooseObjectsStep"`) {
		t.Errorf("expected child field, got: %s", buf.String())
	}

	buf.Reset()
	logger.Info("parent")
	if strings.Contains(buf.String(), "area") {
		t.Errorf("parent picked up child field: %s", buf.String())
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithFormat(LevelInfo, FormatText)
	logger.SetOutput(&buf)

	logger.Info("hello", map[string]any{"k": "v"})

	out := buf.String()
	if !strings.Contains(out, "message=hello") || !strings.Contains(out, "k=v") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestLogger_TraceCorrelation(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "activity")
	defer span.End()

	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	logger.WithContext(ctx).Info("inside span")

	entry := decode(t, buf.String())
	if entry["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("expected trace_id, got: %v", entry["trace_id"])
	}
	if entry["span_id"] != span.SpanContext().SpanID().String() {
		t.Errorf("expected span_id, got: %v", entry["span_id"])
	}
}

func TestLogger_NoTraceWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(&buf)

	logger.WithContext(context.Background()).Info("plain")
	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("unexpected trace_id: %s", buf.String())
	}
}

func TestLogger_ConcurrentLogging(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo)
	logger.SetOutput(writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(p)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.WithFields(map[string]any{"i": i}).Info("tick")
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Errorf("expected 20 lines, got %d", len(lines))
	}
}

func TestGlobalLogger(t *testing.T) {
	prev := Global()
	defer SetGlobal(prev)

	var buf bytes.Buffer
	testLogger := NewLogger(LevelDebug)
	testLogger.SetOutput(&buf)
	SetGlobal(testLogger)

	Debug("global debug message")
	WithFields(map[string]any{"component": "runner"}).Info("component message")

	output := buf.String()
	if !strings.Contains(output, `"message":"global debug message"`) {
		t.Errorf("expected global message in output, got: %s", output)
	}
	if !strings.Contains(output, `"component":"runner"`) {
		t.Errorf("expected component field in output, got: %s", output)
	}
}

func TestNewNop(t *testing.T) {
	// Must not panic or write anywhere visible.
	NewNop().Error("discarded")
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
