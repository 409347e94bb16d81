package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yeisme/docflow/pkg/configs"
)

func TestBuildJSONAndLevel(t *testing.T) {
	var buf bytes.Buffer

	l := build(&configs.AppConfig{Log: configs.LogConfig{Level: "warn"}}, &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	l.Info().Msg("dropped")
	l.Warn().Str("project", "p1").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("not json: %v", err)
	}

	if ev["service"] != "docflow" || ev["project"] != "p1" || ev["message"] != "kept" {
		t.Errorf("event = %v", ev)
	}
}

func TestBuildUnknownLevel(t *testing.T) {
	var buf bytes.Buffer

	build(&configs.AppConfig{Log: configs.LogConfig{Level: "loud"}}, &buf)

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", zerolog.GlobalLevel())
	}

	if !strings.Contains(buf.String(), `unknown log level "loud"`) {
		t.Errorf("missing warning: %q", buf.String())
	}
}

func TestGinWriterSplitsLines(t *testing.T) {
	var buf bytes.Buffer

	l := zerolog.New(&buf)
	w := NewGinWriter(&l, zerolog.ErrorLevel)

	n, err := w.Write([]byte("[GIN-debug] first\n\nsecond\n"))
	if err != nil || n == 0 {
		t.Fatalf("Write = %d, %v", n, err)
	}

	out := buf.String()
	if strings.Count(out, `"level":"error"`) != 2 || !strings.Contains(out, `"message":"first"`) {
		t.Errorf("output = %q", out)
	}
}
