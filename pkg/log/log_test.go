package log_test

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/ezoic/acqstat/pkg/log"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel("info")
	})
	return &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	return entry
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	buf := capture(t)

	logger := log.GetLoggerWithName("glm")
	logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, 100,
	)

	entry := lastEntry(t, buf)
	if entry[log.ComponentKey] != "glm" {
		t.Errorf("expected component glm, got %v", entry[log.ComponentKey])
	}
	if entry[log.OperationKey] != log.OperationFit {
		t.Errorf("expected operation fit, got %v", entry[log.OperationKey])
	}
	if entry[log.SamplesKey] != float64(100) {
		t.Errorf("expected 100 samples, got %v", entry[log.SamplesKey])
	}
	if entry["message"] != "Training completed" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
}

func TestWithAddsPersistentFields(t *testing.T) {
	buf := capture(t)

	logger := log.GetLoggerWithName("sampling").With(
		log.ModelNameKey, "SMOTENC",
	)
	logger.Warn("Resample skipped")

	entry := lastEntry(t, buf)
	if entry[log.ComponentKey] != "sampling" {
		t.Errorf("expected component sampling, got %v", entry[log.ComponentKey])
	}
	if entry[log.ModelNameKey] != "SMOTENC" {
		t.Errorf("expected model SMOTENC, got %v", entry[log.ModelNameKey])
	}
	if entry["level"] != "warn" {
		t.Errorf("expected warn level, got %v", entry["level"])
	}
}

func TestSetLevelFiltersDebug(t *testing.T) {
	buf := capture(t)

	log.SetLevel("info")
	log.GetLogger().Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message emitted at info level: %s", buf.String())
	}

	log.SetLevel("debug")
	log.GetLogger().Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug message missing at debug level")
	}
}

func TestSetLevelUnknownFallsBackToInfo(t *testing.T) {
	buf := capture(t)

	log.SetLevel("nonsense")
	log.GetLogger().Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("unknown level should fall back to info: %s", buf.String())
	}
	log.GetLogger().Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("info message missing after level fallback")
	}
}
