// Package snapshot implements the Snapshot Store: persistence of each
// machine's per-mapping baseline StateMap under the SSD's reserved
// administrative area, plus the append-only sync log.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileState describes a single regular file as observed by the Scanner.
// Directories are never represented: they are implied by the RelPaths of
// the files they contain.
type FileState struct {
	Size  uint64    `json:"size"`
	MTime time.Time `json:"mtime"`
	// Hash is the 32-byte content digest, or nil when not yet computed.
	Hash []byte `json:"hash,omitempty"`
}

// HasHash reports whether a content digest has been computed for this
// entry.
func (fs FileState) HasHash() bool { return len(fs.Hash) == 32 }

// SameHash reports whether both entries carry a hash and the hashes are
// byte-equal.
func (a FileState) SameHash(b FileState) bool {
	if !a.HasHash() || !b.HasHash() {
		return false
	}
	for i := range a.Hash {
		if a.Hash[i] != b.Hash[i] {
			return false
		}
	}
	return true
}

// SameSizeAndMTime reports whether two entries agree on size and modification
// time to the resolution stored (no tolerance window is applied — see
// SPEC_FULL.md §13.2).
func (a FileState) SameSizeAndMTime(b FileState) bool {
	return a.Size == b.Size && a.MTime.Equal(b.MTime)
}

// StateMap is the snapshot unit: RelPath -> FileState, unique keys,
// insertion order irrelevant.
type StateMap map[string]FileState

// Snapshot is the per-(machine, mapping) persisted baseline: a StateMap
// plus the bookkeeping header the store round-trips to disk.
type Snapshot struct {
	Machine   string    `json:"machine"`
	Mapping   string    `json:"mapping"`
	WrittenAt time.Time `json:"written_at"`
	Files     StateMap  `json:"files"`
}

// Empty returns the zero-value baseline used for first-sync semantics: no
// files, with the machine and mapping header fields populated.
func Empty(machine, mapping string) *Snapshot {
	return &Snapshot{
		Machine: machine,
		Mapping: mapping,
		Files:   StateMap{},
	}
}

// Store reads and writes snapshots under <ssdMount>/.ssd-syncer/.
type Store struct {
	ssdMount string
}

// NewStore returns a Store rooted at the given SSD mount path.
func NewStore(ssdMount string) *Store {
	return &Store{ssdMount: ssdMount}
}

// AdminDir returns the reserved top-level administrative directory on the
// SSD mount.
func (s *Store) AdminDir() string {
	return filepath.Join(s.ssdMount, ".ssd-syncer")
}

func (s *Store) snapshotsDir(machine string) string {
	return filepath.Join(s.AdminDir(), "snapshots", machine)
}

// MappingSlug derives a filesystem-safe, deterministic token from a
// mapping name so it can be used as a file name component.
func MappingSlug(mapping string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	slug := replacer.Replace(mapping)
	if slug == "" {
		slug = "_"
	}
	return slug
}

func (s *Store) snapshotPath(machine, mapping string) string {
	return filepath.Join(s.snapshotsDir(machine), MappingSlug(mapping)+".json")
}

// Load returns the persisted baseline for (machine, mapping). A missing
// or unreadable snapshot file is treated as an empty baseline, never an
// error — that is first-sync semantics, not a failure.
func (s *Store) Load(machine, mapping string) (*Snapshot, error) {
	path := s.snapshotPath(machine, mapping)
	data, err := os.ReadFile(path)
	if err != nil {
		return Empty(machine, mapping), nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Empty(machine, mapping), nil
	}
	if snap.Files == nil {
		snap.Files = StateMap{}
	}
	return &snap, nil
}

// Store atomically replaces the on-disk snapshot for (machine, mapping)
// with the given StateMap. It writes to a sibling temporary file and
// renames over the destination so a partial write never corrupts the
// previous snapshot.
func (s *Store) Store(machine, mapping string, files StateMap) error {
	dir := s.snapshotsDir(machine)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: create snapshot dir: %w", err)
	}

	snap := Snapshot{
		Machine:   machine,
		Mapping:   mapping,
		WrittenAt: time.Now(),
		Files:     files,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}

	dest := s.snapshotPath(machine, mapping)
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: write temp file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("snapshot: rename into place: %w", err)
	}
	return nil
}

// LogEntry describes one completed sync run, written as a single line to
// the append-only sync.log.
type LogEntry struct {
	Timestamp   time.Time
	OperationID string
	Machine     string
	Mapping     string
	DryRun      bool
	Noop        int
	CopyToSsd   int
	CopyToLocal int
	DeleteSsd   int
	DeleteLocal int
	Conflicts   int
	Failed      bool
}

// AppendLog appends a single formatted line to <ssdMount>/.ssd-syncer/sync.log.
// The line layout follows the original implementation's space-separated
// key=value style (see SPEC_FULL.md §12), extended with the fields the
// spec's §4.3 requires.
func (s *Store) AppendLog(e LogEntry) error {
	if err := os.MkdirAll(s.AdminDir(), 0o755); err != nil {
		return fmt.Errorf("snapshot: create admin dir: %w", err)
	}
	status := "ok"
	if e.Failed {
		status = "failed"
	}
	line := fmt.Sprintf(
		"[%s] op=%s machine=%s mapping=%s dry_run=%t status=%s noop=%d copy_to_ssd=%d copy_to_local=%d delete_ssd=%d delete_local=%d conflict=%d\n",
		e.Timestamp.UTC().Format(time.RFC3339), e.OperationID,
		e.Machine, e.Mapping, e.DryRun, status,
		e.Noop, e.CopyToSsd, e.CopyToLocal, e.DeleteSsd, e.DeleteLocal, e.Conflicts,
	)

	f, err := os.OpenFile(filepath.Join(s.AdminDir(), "sync.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("snapshot: open sync.log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("snapshot: append sync.log: %w", err)
	}
	return nil
}

// TailLog returns the last limit lines of the sync log, oldest first
// within the returned slice. A missing log file returns an empty slice,
// not an error.
func (s *Store) TailLog(limit int) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.AdminDir(), "sync.log"))
	if err != nil {
		return nil, nil
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines, nil
}
