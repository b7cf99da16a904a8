package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "test-svc", nil)
	ctx := context.Background()

	log.Debug(ctx, "debug message")
	log.Info(ctx, "info message")
	log.Warn(ctx, "warn message", "route", "a->b")
	log.Error(ctx, "error message")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["msg"] != "warn message" {
		t.Errorf("msg = %v, want warn message", lines[0]["msg"])
	}
	if lines[0]["route"] != "a->b" {
		t.Errorf("route = %v, want a->b", lines[0]["route"])
	}
	if lines[0]["service"] != "test-svc" {
		t.Errorf("service = %v, want test-svc", lines[0]["service"])
	}
}

func TestLogger_TraceID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "svc", func(ctx context.Context) string { return "abc123" })

	log.Info(context.Background(), "hello")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0]["trace_id"] != "abc123" {
		t.Errorf("trace_id = %v, want abc123", lines[0]["trace_id"])
	}
}

func TestLogger_SourceIsCaller(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "svc", nil)

	log.Info(context.Background(), "where")

	lines := decodeLines(t, &buf)
	file, _ := lines[0]["file"].(string)
	if !strings.HasPrefix(file, "logger_test.go:") {
		t.Errorf("file = %q, want logger_test.go:<line>", file)
	}
}
