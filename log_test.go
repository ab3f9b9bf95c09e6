package smelt

import (
	"bytes"
	"strings"
	"testing"
)

func TestDebugLogging(t *testing.T) {
	var logBuf bytes.Buffer

	opts := DefaultOptions()
	opts.Logger = NewLogger(LevelDebug, &logBuf)

	v, err := NewWithOptions(branchSchema(), opts)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := v.Validate(map[string]any{"name": "root"}); err != nil {
		t.Fatal(err)
	}

	logs := logBuf.String()
	if logs == "" {
		t.Fatal("expected debug logs to be generated")
	}
	if !strings.Contains(logs, "validation start") {
		t.Error("expected 'validation start' log")
	}
	if !strings.Contains(logs, "[DEBUG]") {
		t.Error("expected [DEBUG] level tags")
	}

	logBuf.Reset()
	if _, err := v.Validate(map[string]any{}); err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(logBuf.String(), "validation failed") {
		t.Error("expected 'validation failed' log")
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var logBuf bytes.Buffer
	logger := NewLogger(LevelWarn, &logBuf)

	logger.Debugf("hidden")
	logger.Infof("hidden too")
	logger.Warnf("shown")
	logger.Errorf("also shown")

	logs := logBuf.String()
	if strings.Contains(logs, "hidden") {
		t.Errorf("low levels leaked: %q", logs)
	}
	if !strings.Contains(logs, "[WARN] ") || !strings.Contains(logs, "[ERROR]") {
		t.Errorf("high levels missing: %q", logs)
	}
}

func TestLoggerWithFields(t *testing.T) {
	var logBuf bytes.Buffer
	logger := NewLogger(LevelInfo, &logBuf)

	logger.With(map[string]any{"node": "union", "choices": 2}).Infof("branch taken")

	logs := logBuf.String()
	if !strings.Contains(logs, "branch taken") {
		t.Errorf("message missing: %q", logs)
	}
	if !strings.Contains(logs, "choices=2") || !strings.Contains(logs, "node=union") {
		t.Errorf("fields missing: %q", logs)
	}

	logBuf.Reset()
	logger.With(map[string]any{"msg": "two words"}).Infof("quoted field")
	if !strings.Contains(logBuf.String(), `msg="two words"`) {
		t.Errorf("whitespace field not quoted: %q", logBuf.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"Warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelWarn,
		"":        LevelWarn,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValuePreviewCycleSafe(t *testing.T) {
	m := map[string]any{"name": "root"}
	m["self"] = m

	// must terminate
	s := valuePreview(m, 2)
	if s == "" {
		t.Fatal("empty preview")
	}
	if !strings.Contains(s, "name") || !strings.Contains(s, "self") {
		t.Errorf("preview lost keys: %q", s)
	}
}
