package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestMake_Defaults(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf)

	if logger.Level() != LevelInfo {
		t.Errorf("expected default level info, got %v", logger.Level())
	}

	if logger.Format() != FormatJSON {
		t.Errorf("expected default format json, got %v", logger.Format())
	}
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelWarn))
	logger.Info("quiet")

	if buf.Len() != 0 {
		t.Fatalf("info record written at warn level: %s", buf.String())
	}

	logger.Warn("loud")

	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("warn record missing: %s", buf.String())
	}
}

func TestLogger_TraceLevelName(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelTrace))
	logger.Trace("tick", slog.Int("depth", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}

	if rec["level"] != "TRACE" {
		t.Errorf("expected TRACE, got %v", rec["level"])
	}

	if rec["depth"] != float64(3) {
		t.Errorf("expected depth=3, got %v", rec["depth"])
	}
}

func TestLogger_ZeroValueDiscards(t *testing.T) {
	var logger Logger

	logger.Error("nothing happens")

	if logger.Enabled(t.Context(), LevelError) {
		t.Error("zero logger must not be enabled")
	}

	if l := logger.With(slog.String("k", "v")); l.Enabled(t.Context(), LevelError) {
		t.Error("With on zero logger must stay disabled")
	}
}

func TestLogger_WithKeepsAttrsAcrossWrap(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf).With(slog.String("component", "sampler"))
	logger = logger.Wrap(WithFormat(FormatText))
	logger.Info("started")

	out := buf.String()
	if !strings.Contains(out, "component=sampler") {
		t.Errorf("attribute lost after Wrap: %s", out)
	}
}

func TestWithTimeLayout(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		want   string
	}{
		{"named", "RFC3339Nano", "2006-01-02T15:04:05.999999999Z07:00"},
		{"named case", "kitchen", "3:04PM"},
		{"none", "none", ""},
		{"empty", "", ""},
		{"custom", "15:04", "15:04"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := WithTimeLayout(tt.layout)(defaultConfig(nil))
			if cfg.timeLayout != tt.want {
				t.Errorf("layout %q: want %q, got %q", tt.layout, tt.want, cfg.timeLayout)
			}
		})
	}
}

func TestWithTimeLayout_NoneOmitsTime(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithTimeLayout("none")).Info("hello")

	if strings.Contains(buf.String(), `"time"`) {
		t.Errorf("time key present: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"error":   LevelError,
		"bogus":   DefaultLevel,
		" Trace ": LevelTrace,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("TEXT") != FormatText {
		t.Error("expected text")
	}

	if ParseFormat("xml") != DefaultFormat {
		t.Error("expected default for unknown format")
	}
}

func TestLevels(t *testing.T) {
	var names []string
	for name := range Levels() {
		names = append(names, name)
	}

	if strings.Join(names, ",") != "trace,debug,info,warn,error" {
		t.Errorf("unexpected levels %v", names)
	}
}

func TestPrettyHandler_Colorizes(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatText), WithPretty(true), WithTimeLayout("none"))
	logger.Info("ready", slog.Int("n", 7), slog.Bool("ok", true))

	out := buf.String()
	for _, want := range []string{ansiGray + "n" + ansiReset, ansiYellow + "7", ansiGreen + "true", "ready"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}

	if strings.Contains(out, "time=") {
		t.Errorf("time present with layout none: %q", out)
	}
}

func TestCaller_PointsAtCallSite(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true)).Info("where")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("expected caller in log_test.go, got %s", buf.String())
	}
}
