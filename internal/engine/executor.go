package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ssdsyncer/ssd-syncer/internal/plan"
	"github.com/ssdsyncer/ssd-syncer/internal/snapshot"
	"github.com/ssdsyncer/ssd-syncer/internal/ssderr"
)

// Execute applies an ordered plan to both roots in order, reporting each
// op to the observer before (dry-run) or as (live) it runs. A failure at
// op index k stops immediately; the caller must not write a new
// snapshot when Execute returns an error.
func Execute(ctx context.Context, mapping string, ops []plan.Op, localRoot, ssdRoot string, localCur, ssdCur snapshot.StateMap, dryRun bool, obs Observer, res *Result) error {
	if obs == nil {
		obs = NoopObserver{}
	}

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return &ssderr.Cancelled{Mapping: mapping, Stage: fmt.Sprintf("executing %s %s", op.Kind, op.RelPath)}
		}

		obs.OnPlanOp(op, dryRun)
		if dryRun {
			res.record(dryRunOutcome(op, localCur, ssdCur))
			continue
		}

		outcome, err := applyOp(op, localRoot, ssdRoot, localCur, ssdCur)
		if err != nil {
			return &ssderr.PlanError{Mapping: mapping, RelPath: op.RelPath, Op: op.Kind.String(), Err: err}
		}
		res.record(outcome)
	}

	return nil
}

func applyOp(op plan.Op, localRoot, ssdRoot string, localCur, ssdCur snapshot.StateMap) (opOutcome, error) {
	switch op.Kind {
	case plan.CopyLocalToSsd:
		if err := copyFile(localRoot, ssdRoot, op.RelPath, localCur[op.RelPath]); err != nil {
			return outcomeNone, err
		}
		return outcomeCopyToSsd, nil

	case plan.CopySsdToLocal:
		if err := copyFile(ssdRoot, localRoot, op.RelPath, ssdCur[op.RelPath]); err != nil {
			return outcomeNone, err
		}
		return outcomeCopyToLocal, nil

	case plan.DeleteLocal:
		if err := deleteFile(localRoot, op.RelPath); err != nil {
			return outcomeNone, err
		}
		return outcomeDeleteLocal, nil

	case plan.DeleteSsd:
		if err := deleteFile(ssdRoot, op.RelPath); err != nil {
			return outcomeNone, err
		}
		return outcomeDeleteSsd, nil

	case plan.ConflictBoth:
		if err := renameLocal(localRoot, op.RelPath, op.LocalSuffix); err != nil {
			return outcomeNone, err
		}
		if err := copyFile(ssdRoot, localRoot, op.RelPath, ssdCur[op.RelPath]); err != nil {
			return outcomeNone, err
		}
		return outcomeConflict, nil

	case plan.ConflictLocalWins:
		if _, ok := localCur[op.RelPath]; ok {
			if err := copyFile(localRoot, ssdRoot, op.RelPath, localCur[op.RelPath]); err != nil {
				return outcomeNone, err
			}
		} else if err := deleteFile(ssdRoot, op.RelPath); err != nil {
			return outcomeNone, err
		}
		return outcomeConflict, nil

	case plan.ConflictSsdWins:
		if _, ok := ssdCur[op.RelPath]; ok {
			if err := copyFile(ssdRoot, localRoot, op.RelPath, ssdCur[op.RelPath]); err != nil {
				return outcomeNone, err
			}
		} else if err := deleteFile(localRoot, op.RelPath); err != nil {
			return outcomeNone, err
		}
		return outcomeConflict, nil

	default:
		return outcomeNone, nil
	}
}

// dryRunOutcome mirrors applyOp's classification without touching the
// filesystem, so a dry-run Result carries the same counters a live run
// would produce.
func dryRunOutcome(op plan.Op, localCur, ssdCur snapshot.StateMap) opOutcome {
	switch op.Kind {
	case plan.CopyLocalToSsd:
		return outcomeCopyToSsd
	case plan.CopySsdToLocal:
		return outcomeCopyToLocal
	case plan.DeleteLocal:
		return outcomeDeleteLocal
	case plan.DeleteSsd:
		return outcomeDeleteSsd
	case plan.ConflictBoth:
		return outcomeConflict
	case plan.ConflictLocalWins, plan.ConflictSsdWins:
		return outcomeConflict
	default:
		return outcomeNone
	}
}

// copyFile writes srcRoot/relPath to dstRoot/relPath via a sibling
// temporary file, fsync, and rename, then best-effort restores the
// source's mtime on the destination.
func copyFile(srcRoot, dstRoot, relPath string, srcState snapshot.FileState) error {
	srcPath := filepath.Join(srcRoot, filepath.FromSlash(relPath))
	dstPath := filepath.Join(dstRoot, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("mkdir parent: %w", err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dstPath), ".ssd-syncer-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("copy contents: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	if !srcState.MTime.IsZero() {
		_ = os.Chtimes(dstPath, srcState.MTime, srcState.MTime)
	}

	return nil
}

// deleteFile unlinks relPath under root and removes now-empty ancestor
// directories up to (but not including) root.
func deleteFile(root, relPath string) error {
	full := filepath.Join(root, filepath.FromSlash(relPath))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove: %w", err)
	}

	dir := filepath.Dir(full)
	for dir != root && len(dir) > len(root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := os.Remove(dir); err != nil {
			break
		}
		dir = filepath.Dir(dir)
	}

	return nil
}

// renameLocal moves the local losing copy of relPath to its conflict
// name, in the same directory, per SPEC_FULL.md §6's conflict naming
// rule.
func renameLocal(localRoot, relPath, suffix string) error {
	oldPath := filepath.Join(localRoot, filepath.FromSlash(relPath))
	newName := plan.ConflictFileName(relPath, suffix)
	newPath := filepath.Join(filepath.Dir(oldPath), newName)
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename conflict copy: %w", err)
	}
	return nil
}
