package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ssdsyncer/ssd-syncer/internal/relpath"
	"github.com/ssdsyncer/ssd-syncer/internal/snapshot"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScan_ProducesHashesForEachFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello")
	writeFile(t, dir, "sub/b.txt", "world")

	s := &Scanner{Root: dir}
	result, fileErrs, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(fileErrs) != 0 {
		t.Errorf("unexpected file errors: %v", fileErrs)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result))
	}
	for rel, fs := range result {
		if !fs.HasHash() {
			t.Errorf("%s missing hash", rel)
		}
	}
}

func TestScan_ReusesBaselineHashOnMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello")

	first := &Scanner{Root: dir}
	result, _, err := first.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	baseline := snapshot.StateMap{"a.txt": result["a.txt"]}

	second := &Scanner{Root: dir, Baseline: baseline}
	result2, _, err := second.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !result2["a.txt"].SameHash(baseline["a.txt"]) {
		t.Error("expected reused hash to match baseline hash")
	}
}

func TestScan_IgnoresMatchingEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.txt", "x")
	writeFile(t, dir, "node_modules/dep/index.js", "y")

	resolver, err := relpath.NewResolver([]string{"node_modules"})
	if err != nil {
		t.Fatal(err)
	}

	s := &Scanner{Root: dir, Ignore: resolver}
	result, _, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if _, ok := result["node_modules/dep/index.js"]; ok {
		t.Error("ignored path should not appear in result")
	}
	if _, ok := result["keep.txt"]; !ok {
		t.Error("non-ignored path should appear in result")
	}
}

func TestScan_RootMissingIsFatal(t *testing.T) {
	s := &Scanner{Root: filepath.Join(t.TempDir(), "does-not-exist")}
	_, _, err := s.Scan(context.Background())
	if err == nil {
		t.Error("expected fatal error for missing root")
	}
}

func TestScan_RootNotADirectoryIsFatal(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := &Scanner{Root: filePath}
	_, _, err := s.Scan(context.Background())
	if err == nil {
		t.Error("expected fatal error for non-directory root")
	}
}
