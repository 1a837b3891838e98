package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerRedactsSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug")

	logger.Info("login attempt", "national_id", "12345678", "pin", "4321", "token", "abc.def.ghi")

	out := buf.String()
	if strings.Contains(out, "4321") || strings.Contains(out, "abc.def.ghi") {
		t.Fatalf("sensitive values leaked: %s", out)
	}
	if !strings.Contains(out, "12345678") {
		t.Fatalf("expected non-sensitive attr to be kept: %s", out)
	}
}

func TestLoggerInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "loud")

	logger.Debug("hidden")
	logger.Info("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug line should be filtered at info level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected info line")
	}
}
