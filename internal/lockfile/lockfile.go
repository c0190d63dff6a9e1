// Package lockfile provides the advisory lock guarding concurrent
// invocations of the engine against the same (machine, mapping) on a
// single SSD mount.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock wraps a file-backed advisory lock at
// .ssd-syncer/locks/<machine>.<mapping_slug>.lock on the SSD mount.
type Lock struct {
	flock *flock.Flock
	path  string
}

// Path returns .ssd-syncer/locks/<machine>.<mapping_slug>.lock under the
// given SSD mount.
func Path(ssdMount, machine, mappingSlug string) string {
	return filepath.Join(ssdMount, ".ssd-syncer", "locks", fmt.Sprintf("%s.%s.lock", machine, mappingSlug))
}

// Acquire takes the advisory lock for one mapping. Acquisition failure
// (lock already held by another run) fails fast with a descriptive
// error, per SPEC_FULL.md §5.
func Acquire(ssdMount, machine, mappingSlug string) (*Lock, error) {
	path := Path(ssdMount, machine, mappingSlug)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lockfile: create lock dir: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lockfile: acquire %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("lockfile: %s is held by another sync run", path)
	}

	return &Lock{flock: fl, path: path}, nil
}

// Release drops the lock and best-effort removes the lock file.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	err := l.flock.Unlock()
	os.Remove(l.path)
	return err
}
