package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"ERROR":   LogLevelError,
		"warn":    LogLevelWarn,
		"":        LogLevelInfo,
		"bogus":   LogLevelInfo,
		" DEBUG ": LogLevelDebug,
		"TRACE":   LogLevelTrace,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn).With("collinearity")

	logger.Debug("hidden %d", 1)
	logger.Info("hidden %d", 2)
	logger.Warn("shown %d", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug/info to be suppressed, got %q", out)
	}
	if !strings.Contains(out, "shown 3") {
		t.Fatalf("expected warn line, got %q", out)
	}
	if !strings.Contains(out, "collinearity") {
		t.Fatalf("expected component field, got %q", out)
	}
}
