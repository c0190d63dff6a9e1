package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFile_WritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sync.log.json")

	logger, err := NewFile(FileConfig{Path: path, Level: Info})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	logger.Info("sync started", Fields{"mapping": "docs"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "sync started") {
		t.Errorf("log file missing message, got %q", string(data))
	}
	if !strings.Contains(string(data), `"mapping":"docs"`) {
		t.Errorf("log file missing field, got %q", string(data))
	}
}

func TestRotatingWriter_RotatesPastMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.log")

	w, err := newRotatingWriter(path, 10, 2)
	if err != nil {
		t.Fatalf("newRotatingWriter: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if _, err := w.Write([]byte("0123456789")); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected a backup file, stat err = %v", err)
	}
}

func TestWithFields_AttachesStructuredContext(t *testing.T) {
	logger := Null().WithFields(Fields{"machine": "m1"})
	logger.Debug("noop", nil)
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	if ParseLevel("bogus") != Info {
		t.Errorf("expected unknown level to default to Info")
	}
	if ParseLevel("debug") != Debug {
		t.Errorf("expected debug to parse")
	}
}
