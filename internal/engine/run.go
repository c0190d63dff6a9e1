// Package engine drives one mapping's sync run end to end: scan both
// sides, classify against the stored baseline, build the merge plan,
// execute or preview it, and persist the new baseline and log entry.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ssdsyncer/ssd-syncer/internal/classify"
	"github.com/ssdsyncer/ssd-syncer/internal/lockfile"
	"github.com/ssdsyncer/ssd-syncer/internal/plan"
	"github.com/ssdsyncer/ssd-syncer/internal/relpath"
	"github.com/ssdsyncer/ssd-syncer/internal/scan"
	"github.com/ssdsyncer/ssd-syncer/internal/snapshot"
	"github.com/ssdsyncer/ssd-syncer/internal/ssderr"
	"golang.org/x/sync/errgroup"
)

// MappingParams fully describes one mapping's sync run.
type MappingParams struct {
	Machine  string
	Mapping  string
	LocalDir string
	SsdDir   string
	SsdMount string
	Ignore   *relpath.Resolver
	Strategy plan.ConflictStrategy
	Workers  int
	DryRun   bool
	Observer Observer
	Cache    *Cache
}

// RunMapping executes the full state machine for one mapping and
// returns its structured result.
func RunMapping(ctx context.Context, store *snapshot.Store, p MappingParams) (Result, error) {
	obs := p.Observer
	if obs == nil {
		obs = NoopObserver{}
	}
	res := Result{Mapping: p.Mapping}
	opID := uuid.New().String()

	slug := snapshot.MappingSlug(p.Mapping)
	lock, err := lockfile.Acquire(p.SsdMount, p.Machine, slug)
	if err != nil {
		return res, &ssderr.EnvironmentError{Mapping: p.Mapping, Msg: "acquire advisory lock", Err: err}
	}
	defer lock.Release()

	obs.OnPhase(PhaseScanning, p.Mapping)
	baseline, localCur, ssdCur, err := scanBothSides(ctx, store, p)
	if err != nil {
		obs.OnPhase(PhaseFailed, p.Mapping)
		appendFailureLog(store, p)
		return res, err
	}

	obs.OnPhase(PhaseClassifying, p.Mapping)
	localChanges := classify.Classify(baseline.Files, localCur)
	ssdChanges := classify.Classify(baseline.Files, ssdCur)

	obs.OnPhase(PhasePlanning, p.Mapping)
	now := time.Now()
	ops := plan.Build(localChanges, ssdChanges, localCur, ssdCur, p.Strategy, p.Machine, now)
	if p.Strategy == plan.Ask {
		ops = resolveAsked(ops, localChanges, ssdChanges, obs)
	}

	res.TotalFiles = len(unionPaths(localCur, ssdCur))

	if p.DryRun {
		obs.OnPhase(PhaseDryRunReport, p.Mapping)
		if err := Execute(ctx, p.Mapping, ops, p.LocalDir, p.SsdDir, localCur, ssdCur, true, obs, &res); err != nil {
			return res, err
		}
		return res, nil
	}

	obs.OnPhase(PhaseExecuting, p.Mapping)
	if err := Execute(ctx, p.Mapping, ops, p.LocalDir, p.SsdDir, localCur, ssdCur, false, obs, &res); err != nil {
		res.Errors++
		obs.OnPhase(PhaseFailed, p.Mapping)
		appendFailureLog(store, p)
		return res, err
	}

	obs.OnPhase(PhaseSnapshotWrite, p.Mapping)
	postLocal, postLocalErrs, err := rescan(ctx, p.LocalDir, p.Ignore, localCur, p.Workers)
	if err != nil {
		obs.OnPhase(PhaseFailed, p.Mapping)
		appendFailureLog(store, p)
		return res, &ssderr.ScanError{Mapping: p.Mapping, Fatal: true, Err: fmt.Errorf("post-scan local: %w", err)}
	}
	postSsd, postSsdErrs, err := rescan(ctx, p.SsdDir, p.Ignore, ssdCur, p.Workers)
	if err != nil {
		obs.OnPhase(PhaseFailed, p.Mapping)
		appendFailureLog(store, p)
		return res, &ssderr.ScanError{Mapping: p.Mapping, Fatal: true, Err: fmt.Errorf("post-scan ssd: %w", err)}
	}
	res.Errors += len(postLocalErrs) + len(postSsdErrs)

	finalBaseline := intersect(postLocal, postSsd)
	if err := store.Store(p.Machine, p.Mapping, finalBaseline); err != nil {
		obs.OnPhase(PhaseFailed, p.Mapping)
		appendFailureLog(store, p)
		return res, &ssderr.SnapshotWriteError{Mapping: p.Mapping, Err: err}
	}
	if p.Cache != nil {
		p.Cache.Invalidate(p.Machine, p.Mapping)
	}

	obs.OnPhase(PhaseLogAppend, p.Mapping)
	_ = store.AppendLog(snapshot.LogEntry{
		Timestamp:   now,
		OperationID: opID,
		Machine:     p.Machine,
		Mapping:     p.Mapping,
		DryRun:      false,
		Noop:        res.TotalFiles - len(ops),
		CopyToSsd:   res.CopiedToSsd,
		CopyToLocal: res.CopiedToLocal,
		DeleteSsd:   res.DeletedFromSsd,
		DeleteLocal: res.DeletedFromLocal,
		Conflicts:   res.Conflicts,
		Failed:      false,
	})

	obs.OnPhase(PhaseIdle, p.Mapping)
	return res, nil
}

// RunAll drives every mapping in params sequentially, sharing one
// in-process snapshot cache for the duration of the call per
// SPEC_FULL.md §12's scan-result-caching supplement.
func RunAll(ctx context.Context, store *snapshot.Store, params []MappingParams) ([]Result, error) {
	cache := NewCache()
	results := make([]Result, 0, len(params))
	for _, p := range params {
		p.Cache = cache
		res, err := RunMapping(ctx, store, p)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func scanBothSides(ctx context.Context, store *snapshot.Store, p MappingParams) (*snapshot.Snapshot, snapshot.StateMap, snapshot.StateMap, error) {
	var baseline *snapshot.Snapshot
	var err error
	if p.Cache != nil {
		baseline, err = p.Cache.Load(store, p.Machine, p.Mapping)
	} else {
		baseline, err = store.Load(p.Machine, p.Mapping)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("engine: load baseline: %w", err)
	}

	var localCur, ssdCur snapshot.StateMap
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, fileErrs, serr := (&scan.Scanner{Root: p.LocalDir, Ignore: p.Ignore, Baseline: baseline.Files, Workers: p.Workers}).Scan(gctx)
		if serr != nil {
			return &ssderr.ScanError{Mapping: p.Mapping, Fatal: true, Err: fmt.Errorf("local: %w", serr)}
		}
		_ = fileErrs
		localCur = m
		return nil
	})
	g.Go(func() error {
		m, fileErrs, serr := (&scan.Scanner{Root: p.SsdDir, Ignore: p.Ignore, Baseline: baseline.Files, Workers: p.Workers}).Scan(gctx)
		if serr != nil {
			return &ssderr.ScanError{Mapping: p.Mapping, Fatal: true, Err: fmt.Errorf("ssd: %w", serr)}
		}
		_ = fileErrs
		ssdCur = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	return baseline, localCur, ssdCur, nil
}

// rescan re-walks root using that side's pre-sync StateMap as the
// hash-reuse baseline: files the run did not touch keep their
// (size, mtime) and reuse their hash. Files the run copied or renamed
// into place on this side are not in that baseline with their new
// (size, mtime), so they are rehashed.
func rescan(ctx context.Context, root string, ignore *relpath.Resolver, baseline snapshot.StateMap, workers int) (snapshot.StateMap, []scan.FileError, error) {
	return (&scan.Scanner{Root: root, Ignore: ignore, Baseline: baseline, Workers: workers}).Scan(ctx)
}

// intersect returns the paths present and hash-equal in both post-sync
// scans, per SPEC_FULL.md §12's baseline-narrowing rule.
func intersect(local, ssd snapshot.StateMap) snapshot.StateMap {
	out := make(snapshot.StateMap, len(local))
	for relPath, l := range local {
		if s, ok := ssd[relPath]; ok && l.SameHash(s) {
			out[relPath] = l
		}
	}
	return out
}

func unionPaths(a, b snapshot.StateMap) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for p := range a {
		out[p] = struct{}{}
	}
	for p := range b {
		out[p] = struct{}{}
	}
	return out
}

// resolveAsked gives the observer a chance to resolve each Ask-strategy
// conflict interactively; ops it declines to resolve keep the planner's
// Both-degraded resolution.
func resolveAsked(ops []plan.Op, localChanges, ssdChanges classify.Changes, obs Observer) []plan.Op {
	for i, op := range ops {
		if op.Kind != plan.ConflictBoth {
			continue
		}
		kind, handled := obs.AskConflict(op.RelPath, localChanges[op.RelPath].String(), ssdChanges[op.RelPath].String())
		if handled {
			ops[i].Kind = kind
		}
	}
	return ops
}

func appendFailureLog(store *snapshot.Store, p MappingParams) {
	_ = store.AppendLog(snapshot.LogEntry{
		Timestamp:   time.Now(),
		OperationID: uuid.New().String(),
		Machine:     p.Machine,
		Mapping:     p.Mapping,
		DryRun:      p.DryRun,
		Failed:      true,
	})
}
