package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pterm/pterm"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]pterm.LogLevel{
		"debug":   pterm.LogLevelDebug,
		"WARN":    pterm.LogLevelWarn,
		"error":   pterm.LogLevelError,
		"":        pterm.LogLevelInfo,
		"verbose": pterm.LogLevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONFormatWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")
	logger.Info("snapshot published", "game", "g1")
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "snapshot published") || !strings.Contains(out, "g1") {
		t.Fatalf("log output = %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %q", out)
	}
}
