// Package scan implements the two-phase Scanner: a cheap metadata walk
// followed by a selective, parallel content-hashing pass that reuses
// hashes from a baseline StateMap whenever size and mtime agree.
package scan

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"lukechampine.com/blake3"

	"github.com/ssdsyncer/ssd-syncer/internal/relpath"
	"github.com/ssdsyncer/ssd-syncer/internal/snapshot"
)

// DefaultHashWorkers is used when Scanner.Workers is left at zero.
const DefaultHashWorkers = 4

// FileError is a recovered per-file scan error: the path is omitted from
// the resulting StateMap, but the overall scan still succeeds.
type FileError struct {
	RelPath string
	Err     error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.RelPath, e.Err)
}

// Scanner walks one side's tree (local root or SSD mapping root) and
// produces a StateMap, reusing hashes from Baseline where possible.
type Scanner struct {
	Root     string
	Ignore   *relpath.Resolver
	Baseline snapshot.StateMap
	Workers  int
}

// Scan performs the two-phase walk described in SPEC_FULL.md §4.2. It
// returns the resulting StateMap and any recovered per-file errors. A
// missing or non-directory root is returned as a fatal error (third
// return value).
func (s *Scanner) Scan(ctx context.Context) (snapshot.StateMap, []FileError, error) {
	info, err := os.Stat(s.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("scan: root %s: %w", s.Root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("scan: root %s is not a directory", s.Root)
	}

	type provisional struct {
		relPath string
		absPath string
		size    uint64
		mtime   int64
	}

	var entries []provisional
	var fileErrs []FileError

	walkErr := filepath.WalkDir(s.Root, func(absPath string, d os.DirEntry, err error) error {
		if err != nil {
			rel, _ := filepath.Rel(s.Root, absPath)
			fileErrs = append(fileErrs, FileError{RelPath: rel, Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if absPath == s.Root {
			return nil
		}

		rel, err := filepath.Rel(s.Root, absPath)
		if err != nil {
			return nil
		}
		relNorm, err := relpath.Normalize(rel)
		if err != nil {
			// Unrepresentable path (shouldn't happen under a clean walk);
			// skip it rather than fail the whole scan.
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if s.Ignore != nil && s.Ignore.IsIgnored(relNorm) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			fileErrs = append(fileErrs, FileError{RelPath: relNorm, Err: err})
			return nil
		}

		entries = append(entries, provisional{
			relPath: relNorm,
			absPath: absPath,
			size:    uint64(fi.Size()),
			mtime:   fi.ModTime().UnixNano(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("scan: walk %s: %w", s.Root, walkErr)
	}

	result := make(snapshot.StateMap, len(entries))
	var toHash []provisional
	var resultMu sync.Mutex

	for _, e := range entries {
		if base, ok := s.Baseline[e.relPath]; ok {
			if base.Size == e.size && base.MTime.UnixNano() == e.mtime && base.HasHash() {
				result[e.relPath] = base
				continue
			}
		}
		toHash = append(toHash, e)
	}

	workers := s.Workers
	if workers <= 0 {
		workers = DefaultHashWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, e := range toHash {
		e := e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hash, size, mtime, err := hashFile(e.absPath)
			if err != nil {
				resultMu.Lock()
				fileErrs = append(fileErrs, FileError{RelPath: e.relPath, Err: err})
				resultMu.Unlock()
				return nil
			}
			resultMu.Lock()
			result[e.relPath] = snapshot.FileState{
				Size:  size,
				MTime: mtime,
				Hash:  hash,
			}
			resultMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("scan: cancelled: %w", err)
	}

	sort.Slice(fileErrs, func(i, j int) bool { return fileErrs[i].RelPath < fileErrs[j].RelPath })
	return result, fileErrs, nil
}

func hashFile(absPath string) ([]byte, uint64, time.Time, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, time.Time{}, err
	}

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return nil, 0, time.Time{}, err
	}

	return h.Sum(nil), uint64(info.Size()), info.ModTime(), nil
}
