package engine

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	logger := slog.New(handler)

	e := New(&fakeChecker{})
	e.SetSlogLogger(logger)

	// Call private logf directly since we are in the same package.
	e.logf("test message %d", 123)

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log JSON: %v", err)
	}
	if logEntry["msg"] != "test message 123" {
		t.Errorf("expected msg 'test message 123', got '%v'", logEntry["msg"])
	}
	if logEntry["level"] != "DEBUG" {
		t.Errorf("expected level DEBUG, got %v", logEntry["level"])
	}
	if _, ok := logEntry["time"]; !ok {
		t.Error("missing time field")
	}
}

func TestLogfWithoutLoggerIsNoop(t *testing.T) {
	e := New(&fakeChecker{})
	// Must not panic with neither logger set.
	e.logf("nothing to see %s", "here")
}
