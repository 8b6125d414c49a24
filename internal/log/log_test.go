package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	original := Logger()
	ReplaceLogger(slog.New(newHandler(buf)))
	t.Cleanup(func() {
		ReplaceLogger(original)
		levelVar.Set(slog.LevelInfo)
	})
	return buf
}

func TestInfoProducesLogfmtWithTimestamp(t *testing.T) {
	buf := captureLogs(t)

	Info(context.Background(), "formulation computed", "recipe", 12)

	line := strings.TrimSpace(buf.String())
	for _, token := range []string{"ts=", "level=info", `msg="formulation computed"`, "recipe=12"} {
		if !strings.Contains(line, token) {
			t.Fatalf("expected %q in log line, got %q", token, line)
		}
	}
}

func TestSetLevelFiltersDebug(t *testing.T) {
	buf := captureLogs(t)

	if err := SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	Debug(context.Background(), "hidden")
	Info(context.Background(), "hidden too")
	Warn(context.Background(), "visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "level=warn") {
		t.Fatalf("expected warn entry, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{" DEBUG ", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %t", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseLevel(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestReplaceLoggerRejectsNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil logger")
		}
	}()
	ReplaceLogger(nil)
}
