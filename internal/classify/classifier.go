// Package classify implements the Change Classifier: given a baseline
// StateMap and one side's current StateMap, it computes a per-path
// ChangeKind describing how that side has diverged from the baseline.
package classify

import "github.com/ssdsyncer/ssd-syncer/internal/snapshot"

// ChangeKind is the per-side, per-path classification against a shared
// baseline.
type ChangeKind int

const (
	Unchanged ChangeKind = iota
	Created
	Modified
	Deleted
)

func (k ChangeKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Changes maps every RelPath touched (present in baseline or current) to
// its ChangeKind on this side.
type Changes map[string]ChangeKind

// Classify computes per-path ChangeKind for one side against a baseline,
// per SPEC_FULL.md §4.4. Unchanged requires the equivalence "same size AND
// same hash when both hashes are known, else same size AND same mtime."
func Classify(baseline, current snapshot.StateMap) Changes {
	changes := make(Changes, len(baseline)+len(current))

	for path, baseEntry := range baseline {
		curEntry, ok := current[path]
		if !ok {
			changes[path] = Deleted
			continue
		}
		if equivalent(baseEntry, curEntry) {
			changes[path] = Unchanged
		} else {
			changes[path] = Modified
		}
	}

	for path := range current {
		if _, ok := baseline[path]; !ok {
			changes[path] = Created
		}
	}

	return changes
}

// equivalent decides whether two FileState entries describe the same
// content for classification purposes: authoritative when both hashes are
// present, otherwise a size+mtime fallback.
func equivalent(a, b snapshot.FileState) bool {
	if a.HasHash() && b.HasHash() {
		return a.Size == b.Size && a.SameHash(b)
	}
	return a.SameSizeAndMTime(b)
}
