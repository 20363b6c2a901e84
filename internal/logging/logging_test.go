package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/growthlab/growthlab-web/internal/logging"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "warn", logging.FormatJSON)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept", "endpoint", "/api/stats")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["msg"] != "kept" || rec["endpoint"] != "/api/stats" || rec["service"] != "growthlab" {
		t.Errorf("record = %v", rec)
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := logging.New(&bytes.Buffer{}, "loud", logging.FormatText); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if _, err := logging.New(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
