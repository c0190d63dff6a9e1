package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ssdsyncer/ssd-syncer/internal/relpath"
	"github.com/ssdsyncer/ssd-syncer/internal/snapshot"
)

func sandbox(t *testing.T) (local, ssdMount, ssdDir string) {
	t.Helper()
	root := t.TempDir()
	local = filepath.Join(root, "local")
	ssdMount = filepath.Join(root, "ssd")
	ssdDir = filepath.Join(ssdMount, "mirror")
	for _, d := range []string{local, ssdDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	return local, ssdMount, ssdDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func mustResolver(t *testing.T) *relpath.Resolver {
	t.Helper()
	r, err := relpath.NewResolver(nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func TestRunMapping_FirstSyncCopiesLocalToSsd(t *testing.T) {
	local, ssdMount, ssdDir := sandbox(t)
	writeFile(t, filepath.Join(local, "a.txt"), "hello")

	store := snapshot.NewStore(ssdMount)
	res, err := RunMapping(context.Background(), store, MappingParams{
		Machine:  "m1",
		Mapping:  "docs",
		LocalDir: local,
		SsdDir:   ssdDir,
		SsdMount: ssdMount,
		Ignore:   mustResolver(t),
		Strategy: 0,
		Workers:  2,
	})
	if err != nil {
		t.Fatalf("RunMapping: %v", err)
	}
	if res.CopiedToSsd != 1 {
		t.Fatalf("CopiedToSsd = %d, want 1", res.CopiedToSsd)
	}
	if _, err := os.Stat(filepath.Join(ssdDir, "a.txt")); err != nil {
		t.Fatalf("expected a.txt copied to ssd: %v", err)
	}
}

func TestRunMapping_SecondRunIsIdempotentAllNoop(t *testing.T) {
	local, ssdMount, ssdDir := sandbox(t)
	writeFile(t, filepath.Join(local, "a.txt"), "hello")

	store := snapshot.NewStore(ssdMount)
	params := MappingParams{
		Machine:  "m1",
		Mapping:  "docs",
		LocalDir: local,
		SsdDir:   ssdDir,
		SsdMount: ssdMount,
		Ignore:   mustResolver(t),
		Workers:  2,
	}

	if _, err := RunMapping(context.Background(), store, params); err != nil {
		t.Fatalf("first run: %v", err)
	}

	res, err := RunMapping(context.Background(), store, params)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.CopiedToSsd != 0 || res.CopiedToLocal != 0 || res.Conflicts != 0 {
		t.Fatalf("expected all-noop second run, got %+v", res)
	}
}

func TestRunMapping_DryRunMutatesNothing(t *testing.T) {
	local, ssdMount, ssdDir := sandbox(t)
	writeFile(t, filepath.Join(local, "a.txt"), "hello")

	store := snapshot.NewStore(ssdMount)
	res, err := RunMapping(context.Background(), store, MappingParams{
		Machine:  "m1",
		Mapping:  "docs",
		LocalDir: local,
		SsdDir:   ssdDir,
		SsdMount: ssdMount,
		Ignore:   mustResolver(t),
		DryRun:   true,
		Workers:  2,
	})
	if err != nil {
		t.Fatalf("RunMapping: %v", err)
	}
	if res.CopiedToSsd != 1 {
		t.Fatalf("dry-run should still report the op, got %+v", res)
	}
	if _, err := os.Stat(filepath.Join(ssdDir, "a.txt")); !os.IsNotExist(err) {
		t.Fatalf("dry-run must not touch the filesystem, stat err = %v", err)
	}
}

func TestDeleteFile_RemovesEmptyAncestors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "dir", "sub", "f.txt"), "x")

	if err := deleteFile(root, "dir/sub/f.txt"); err != nil {
		t.Fatalf("deleteFile: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "dir")); !os.IsNotExist(err) {
		t.Fatalf("expected empty ancestor dirs removed, stat err = %v", err)
	}
}

func TestIntersect_KeepsOnlyHashEqualCommonPaths(t *testing.T) {
	hashA := make([]byte, 32)
	hashA[0] = 1
	hashB := make([]byte, 32)
	hashB[0] = 2
	hashC := make([]byte, 32)
	hashC[0] = 3

	local := snapshot.StateMap{
		"a.txt": {Size: 1, Hash: hashA},
		"b.txt": {Size: 1, Hash: hashB},
	}
	ssd := snapshot.StateMap{
		"a.txt": {Size: 1, Hash: hashA},
		"c.txt": {Size: 1, Hash: hashC},
	}
	got := intersect(local, ssd)
	if len(got) != 1 {
		t.Fatalf("expected 1 path in intersection, got %v", got)
	}
	if _, ok := got["a.txt"]; !ok {
		t.Fatalf("expected a.txt in intersection, got %v", got)
	}
}

func TestAppendFailureLog_RecordsFailedRun(t *testing.T) {
	_, ssdMount, _ := sandbox(t)
	store := snapshot.NewStore(ssdMount)
	appendFailureLog(store, MappingParams{Machine: "m1", Mapping: "docs"})

	lines, err := store.TailLog(10)
	if err != nil {
		t.Fatalf("TailLog: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
}

func TestPhase_String(t *testing.T) {
	if PhaseExecuting.String() != "executing" {
		t.Errorf("got %q, want executing", PhaseExecuting.String())
	}
}
