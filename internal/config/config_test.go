package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default("machine-a")
	cfg.Sync = append(cfg.Sync, Mapping{Name: "docs", Local: "/home/a/docs", Ssd: "docs"})

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Machine.Name != "machine-a" {
		t.Errorf("Machine.Name = %q, want machine-a", loaded.Machine.Name)
	}
	if len(loaded.Sync) != 1 || loaded.Sync[0].Local != "/home/a/docs" {
		t.Errorf("got mappings %+v", loaded.Sync)
	}
	if len(loaded.Ignore.Patterns) == 0 {
		t.Errorf("expected default ignore patterns to survive round trip")
	}
}

func TestValidate_RejectsEmptyMachineName(t *testing.T) {
	cfg := Default("")
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty machine name")
	}
}

func TestValidate_RejectsDuplicateMappingNames(t *testing.T) {
	cfg := Default("m1")
	cfg.Sync = []Mapping{
		{Name: "docs", Local: "/a", Ssd: "/b"},
		{Name: "docs", Local: "/c", Ssd: "/d"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for duplicate mapping name")
	}
}

func TestValidate_RejectsUnknownConflictStrategy(t *testing.T) {
	cfg := Default("m1")
	cfg.Conflict.Strategy = "whatever-wins"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown conflict strategy")
	}
}

func TestFindMapping_MatchesByNameOrSsdPath(t *testing.T) {
	cfg := Default("m1")
	cfg.Sync = []Mapping{{Name: "docs", Local: "/a", Ssd: "mirror/docs"}}

	if cfg.FindMapping("docs") == nil {
		t.Errorf("expected match by name")
	}
	if cfg.FindMapping("mirror/docs") == nil {
		t.Errorf("expected match by ssd path")
	}
	if cfg.FindMapping("nope") != nil {
		t.Errorf("expected no match")
	}
}

func TestLoad_MissingFileReturnsOSError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected os.IsNotExist, got %v", err)
	}
}
