package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSanitizingHandler_TruncatesPromptAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	long := strings.Repeat("argue harder ", 100)
	logger.Info("generating argument", "prompt", long)

	output := buf.String()
	if !strings.Contains(output, "(truncated)") {
		t.Errorf("expected prompt to be truncated, got: %s", output)
	}
	if strings.Count(output, "argue harder") > maxTextAttrLen/len("argue harder ")+1 {
		t.Errorf("truncated prompt still too long: %s", output)
	}
}

func TestSanitizingHandler_ShortPromptUntouched(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	logger.Info("generating argument", "prompt", "argue for the motion")

	if strings.Contains(buf.String(), "truncated") {
		t.Errorf("short prompt must not be truncated: %s", buf.String())
	}
}

func TestSanitizingHandler_NonTextKeysKeepLength(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	long := strings.Repeat("x", maxTextAttrLen+100)
	logger.Info("event payload", "payload", long)

	if strings.Contains(buf.String(), "truncated") {
		t.Errorf("only known free-text keys are truncated: %s", buf.String())
	}
}

func TestPrettyHandler_ColorsSides(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, slog.LevelInfo)
	logger := slog.New(handler)

	logger.Info("turn appended", "side", "against", "round", 2)

	output := buf.String()
	if !strings.Contains(output, "\033[33magainst\033[0m") {
		t.Errorf("expected against side colored yellow, got: %q", output)
	}
	if !strings.Contains(output, "round") {
		t.Errorf("expected round attr, got: %q", output)
	}
}

func TestPrettyHandler_WithGroupPrefixesKeys(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, slog.LevelInfo)
	logger := slog.New(handler).WithGroup("debate")

	logger.Info("closed", "id", "deb-1")

	if !strings.Contains(buf.String(), "debate.id") {
		t.Errorf("expected group-prefixed key, got: %q", buf.String())
	}
}

func TestPrettyHandler_LevelGate(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, slog.LevelWarn)

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be gated at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should pass at warn level")
	}
}
