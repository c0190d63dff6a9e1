// Package plan implements the Merge Planner: it combines per-side
// ChangeKind classifications into an ordered list of PlanOps, applying
// the configured conflict policy.
package plan

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ssdsyncer/ssd-syncer/internal/classify"
	"github.com/ssdsyncer/ssd-syncer/internal/snapshot"
)

// ConflictStrategy selects how the planner resolves a genuine conflict
// cell in the decision table.
type ConflictStrategy int

const (
	Both ConflictStrategy = iota
	LocalWins
	SsdWins
	NewerWins
	Ask
)

func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	switch strings.ToLower(s) {
	case "both":
		return Both, nil
	case "local-wins", "localwins":
		return LocalWins, nil
	case "ssd-wins", "ssdwins":
		return SsdWins, nil
	case "newer-wins", "newerwins":
		return NewerWins, nil
	case "ask":
		return Ask, nil
	default:
		return 0, fmt.Errorf("plan: unknown conflict strategy %q", s)
	}
}

func (s ConflictStrategy) String() string {
	switch s {
	case Both:
		return "both"
	case LocalWins:
		return "local-wins"
	case SsdWins:
		return "ssd-wins"
	case NewerWins:
		return "newer-wins"
	case Ask:
		return "ask"
	default:
		return "unknown"
	}
}

// OpKind is the PlanOp variant tag from SPEC_FULL.md §3/§4.5.
type OpKind int

const (
	Noop OpKind = iota
	CopyLocalToSsd
	CopySsdToLocal
	DeleteLocal
	DeleteSsd
	ConflictBoth
	ConflictLocalWins
	ConflictSsdWins
)

func (k OpKind) String() string {
	switch k {
	case Noop:
		return "noop"
	case CopyLocalToSsd:
		return "copy-local-to-ssd"
	case CopySsdToLocal:
		return "copy-ssd-to-local"
	case DeleteLocal:
		return "delete-local"
	case DeleteSsd:
		return "delete-ssd"
	case ConflictBoth:
		return "conflict-both"
	case ConflictLocalWins:
		return "conflict-local-wins"
	case ConflictSsdWins:
		return "conflict-ssd-wins"
	default:
		return "unknown"
	}
}

// Op is a single PlanOp targeting one RelPath.
//
// LocalSuffix is populated only for ConflictBoth: it is the token
// appended to the original file name (including its extension) to
// produce the renamed "losing" copy, e.g. ".conflict.M.1700000000".
// SsdSuffix is reserved for a symmetric rename on the SSD side; this
// engine's Both convention never renames the SSD copy (see DESIGN.md),
// so it is always empty today.
type Op struct {
	RelPath     string
	Kind        OpKind
	LocalSuffix string
	SsdSuffix   string
}

// ConflictFileName returns the renamed file name for a ConflictBoth op's
// losing (local) copy: <original name>.conflict.<machine>.<unix_seconds>.
func ConflictFileName(relPath, suffix string) string {
	return path.Base(relPath) + suffix
}

// Build produces the ordered plan for one mapping, given per-side
// ChangeKind classifications and both sides' current StateMaps (needed to
// break conflict ties and to let the Executor decide copy-vs-delete for
// resolved winner-take-all conflicts).
func Build(localChanges, ssdChanges classify.Changes, localCur, ssdCur snapshot.StateMap, strategy ConflictStrategy, machine string, now time.Time) []Op {
	paths := make(map[string]struct{}, len(localChanges)+len(ssdChanges))
	for p := range localChanges {
		paths[p] = struct{}{}
	}
	for p := range ssdChanges {
		paths[p] = struct{}{}
	}

	ops := make([]Op, 0, len(paths))
	for p := range paths {
		lc := localChanges[p]
		sc := ssdChanges[p]
		op := decide(p, lc, sc, localCur, ssdCur, strategy, machine, now)
		if op.Kind == Noop {
			continue
		}
		ops = append(ops, op)
	}

	return order(ops)
}

// decide applies the §4.5 decision table to a single path.
func decide(relPath string, local, ssd classify.ChangeKind, localCur, ssdCur snapshot.StateMap, strategy ConflictStrategy, machine string, now time.Time) Op {
	switch {
	case local == classify.Unchanged && ssd == classify.Unchanged:
		return Op{RelPath: relPath, Kind: Noop}
	case local == classify.Unchanged && ssd == classify.Created:
		return Op{RelPath: relPath, Kind: CopySsdToLocal}
	case local == classify.Unchanged && ssd == classify.Modified:
		return Op{RelPath: relPath, Kind: CopySsdToLocal}
	case local == classify.Unchanged && ssd == classify.Deleted:
		return Op{RelPath: relPath, Kind: DeleteLocal}
	case ssd == classify.Unchanged && local == classify.Created:
		return Op{RelPath: relPath, Kind: CopyLocalToSsd}
	case ssd == classify.Unchanged && local == classify.Modified:
		return Op{RelPath: relPath, Kind: CopyLocalToSsd}
	case ssd == classify.Unchanged && local == classify.Deleted:
		return Op{RelPath: relPath, Kind: DeleteSsd}
	case local == classify.Deleted && ssd == classify.Deleted:
		return Op{RelPath: relPath, Kind: Noop}
	}

	// Every remaining combination is a conflict cell: (Created,Created),
	// (Modified,Modified), (Modified,Deleted), (Deleted,Modified), and the
	// defensive "unreachable" combinations the table marks with "—".
	bypassEligible := (local == classify.Created && ssd == classify.Created) ||
		(local == classify.Modified && ssd == classify.Modified)
	if bypassEligible {
		le, lok := localCur[relPath]
		se, sok := ssdCur[relPath]
		if lok && sok && le.Size == se.Size && le.SameHash(se) {
			return Op{RelPath: relPath, Kind: Noop}
		}
	}

	isModDel := local == classify.Modified && ssd == classify.Deleted
	isDelMod := local == classify.Deleted && ssd == classify.Modified

	return resolveConflict(relPath, isModDel, isDelMod, localCur, ssdCur, strategy, machine, now)
}

// resolveConflict applies the configured ConflictStrategy to a conflict
// cell. The planner has no interactive channel, so Ask is resolved as
// Both here; the engine then offers each resulting ConflictBoth op to its
// Observer's AskConflict, and an op the Observer declines stays as Both.
func resolveConflict(relPath string, isModDel, isDelMod bool, localCur, ssdCur snapshot.StateMap, strategy ConflictStrategy, machine string, now time.Time) Op {
	effective := strategy
	if effective == Ask {
		effective = Both
	}

	switch effective {
	case Both:
		if isModDel {
			// Surviving copy is local's; re-propagate to the side that deleted it.
			return Op{RelPath: relPath, Kind: CopyLocalToSsd}
		}
		if isDelMod {
			return Op{RelPath: relPath, Kind: CopySsdToLocal}
		}
		suffix := fmt.Sprintf(".conflict.%s.%d", machine, now.Unix())
		return Op{RelPath: relPath, Kind: ConflictBoth, LocalSuffix: suffix}

	case LocalWins:
		return Op{RelPath: relPath, Kind: ConflictLocalWins}

	case SsdWins:
		return Op{RelPath: relPath, Kind: ConflictSsdWins}

	case NewerWins:
		localMTime := int64(0)
		if e, ok := localCur[relPath]; ok {
			localMTime = e.MTime.UnixNano()
		}
		ssdMTime := int64(0)
		if e, ok := ssdCur[relPath]; ok {
			ssdMTime = e.MTime.UnixNano()
		}
		if localMTime >= ssdMTime {
			return Op{RelPath: relPath, Kind: ConflictLocalWins}
		}
		return Op{RelPath: relPath, Kind: ConflictSsdWins}

	default:
		return Op{RelPath: relPath, Kind: ConflictBoth, LocalSuffix: fmt.Sprintf(".conflict.%s.%d", machine, now.Unix())}
	}
}

// order applies the §4.5 plan ordering rule: deletions of the deepest
// paths first, then copies/resolved-conflicts (parents created before
// children), then Both-policy renames last. Within a kind, order by
// RelPath lexicographic.
func order(ops []Op) []Op {
	var deletes, mutations, renames []Op
	for _, op := range ops {
		switch op.Kind {
		case DeleteLocal, DeleteSsd:
			deletes = append(deletes, op)
		case ConflictBoth:
			renames = append(renames, op)
		default:
			mutations = append(mutations, op)
		}
	}

	sort.Slice(deletes, func(i, j int) bool {
		di, dj := depth(deletes[i].RelPath), depth(deletes[j].RelPath)
		if di != dj {
			return di > dj
		}
		return deletes[i].RelPath < deletes[j].RelPath
	})
	sort.Slice(mutations, func(i, j int) bool { return mutations[i].RelPath < mutations[j].RelPath })
	sort.Slice(renames, func(i, j int) bool { return renames[i].RelPath < renames[j].RelPath })

	result := make([]Op, 0, len(ops))
	result = append(result, deletes...)
	result = append(result, mutations...)
	result = append(result, renames...)
	return result
}

func depth(relPath string) int {
	return strings.Count(relPath, "/")
}
