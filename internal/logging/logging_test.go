package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_StackTraceOnlyOnError(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "INFO").With("owner_id", "o1")

	log.Info("fine")
	log.Error("broken")
	log.Debug("hidden")

	dec := json.NewDecoder(&buf)
	var lines []map[string]any
	for dec.More() {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if _, ok := lines[0]["stacktrace"]; ok {
		t.Error("info line must not carry a stacktrace")
	}
	if _, ok := lines[1]["stacktrace"]; !ok {
		t.Error("error line must carry a stacktrace")
	}
	if lines[1]["owner_id"] != "o1" {
		t.Errorf("attrs lost through WithAttrs: %v", lines[1])
	}
}
