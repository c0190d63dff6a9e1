package plan

import (
	"testing"
	"time"

	"github.com/ssdsyncer/ssd-syncer/internal/classify"
	"github.com/ssdsyncer/ssd-syncer/internal/snapshot"
)

func hashOf(b byte) []byte {
	h := make([]byte, 32)
	h[0] = b
	return h
}

func TestBuild_BothUnchangedIsOmitted(t *testing.T) {
	local := classify.Changes{"a.txt": classify.Unchanged}
	ssd := classify.Changes{"a.txt": classify.Unchanged}
	ops := Build(local, ssd, nil, nil, Both, "M", time.Now())
	if len(ops) != 0 {
		t.Fatalf("expected no ops, got %v", ops)
	}
}

func TestBuild_LocalModifiedSsdUnchanged_CopiesToSsd(t *testing.T) {
	local := classify.Changes{"a.txt": classify.Modified}
	ssd := classify.Changes{"a.txt": classify.Unchanged}
	ops := Build(local, ssd, nil, nil, Both, "M", time.Now())
	if len(ops) != 1 || ops[0].Kind != CopyLocalToSsd {
		t.Fatalf("got %v, want single CopyLocalToSsd", ops)
	}
}

func TestBuild_ConflictEquivalenceBypass(t *testing.T) {
	local := classify.Changes{"a.txt": classify.Modified}
	ssd := classify.Changes{"a.txt": classify.Modified}
	same := snapshot.FileState{Size: 3, Hash: hashOf(9)}
	localCur := snapshot.StateMap{"a.txt": same}
	ssdCur := snapshot.StateMap{"a.txt": same}

	ops := Build(local, ssd, localCur, ssdCur, Both, "M", time.Now())
	if len(ops) != 0 {
		t.Fatalf("expected bypass to Noop, got %v", ops)
	}
}

func TestBuild_ModModConflict_BothPolicy_RenamesLocal(t *testing.T) {
	local := classify.Changes{"a.txt": classify.Modified}
	ssd := classify.Changes{"a.txt": classify.Modified}
	localCur := snapshot.StateMap{"a.txt": {Size: 1, Hash: hashOf(1)}}
	ssdCur := snapshot.StateMap{"a.txt": {Size: 2, Hash: hashOf(2)}}

	now := time.Unix(100, 0)
	ops := Build(local, ssd, localCur, ssdCur, Both, "M", now)
	if len(ops) != 1 {
		t.Fatalf("expected 1 op, got %d: %v", len(ops), ops)
	}
	if ops[0].Kind != ConflictBoth {
		t.Fatalf("got %v, want ConflictBoth", ops[0].Kind)
	}
	if ops[0].LocalSuffix != ".conflict.M.100" {
		t.Errorf("LocalSuffix = %q, want .conflict.M.100", ops[0].LocalSuffix)
	}
}

func TestBuild_ModDelConflict_BothPolicy_RepropagatesWithoutRename(t *testing.T) {
	local := classify.Changes{"k": classify.Modified}
	ssd := classify.Changes{"k": classify.Deleted}
	ops := Build(local, ssd, nil, nil, Both, "M", time.Now())
	if len(ops) != 1 || ops[0].Kind != CopyLocalToSsd {
		t.Fatalf("got %v, want CopyLocalToSsd (no rename)", ops)
	}
}

func TestBuild_DelModConflict_NewerWins_SsdNewer(t *testing.T) {
	local := classify.Changes{"k": classify.Deleted}
	ssd := classify.Changes{"k": classify.Modified}
	ssdCur := snapshot.StateMap{"k": {MTime: time.Unix(500, 0)}}

	ops := Build(local, ssd, nil, ssdCur, NewerWins, "M", time.Now())
	if len(ops) != 1 || ops[0].Kind != ConflictSsdWins {
		t.Fatalf("got %v, want ConflictSsdWins", ops)
	}
}

func TestBuild_NewerWins_TieBreaksTowardLocal(t *testing.T) {
	local := classify.Changes{"k": classify.Modified}
	ssd := classify.Changes{"k": classify.Modified}
	tie := time.Unix(100, 0)
	localCur := snapshot.StateMap{"k": {MTime: tie, Hash: hashOf(1)}}
	ssdCur := snapshot.StateMap{"k": {MTime: tie, Hash: hashOf(2)}}

	ops := Build(local, ssd, localCur, ssdCur, NewerWins, "M", time.Now())
	if len(ops) != 1 || ops[0].Kind != ConflictLocalWins {
		t.Fatalf("got %v, want ConflictLocalWins on tie", ops)
	}
}

func TestBuild_AskDegradesToBoth(t *testing.T) {
	local := classify.Changes{"a.txt": classify.Modified}
	ssd := classify.Changes{"a.txt": classify.Modified}
	localCur := snapshot.StateMap{"a.txt": {Hash: hashOf(1)}}
	ssdCur := snapshot.StateMap{"a.txt": {Hash: hashOf(2)}}

	ops := Build(local, ssd, localCur, ssdCur, Ask, "M", time.Now())
	if len(ops) != 1 || ops[0].Kind != ConflictBoth {
		t.Fatalf("got %v, want ConflictBoth (Ask degraded)", ops)
	}
}

func TestOrder_DeletesDeepestFirstThenCopiesThenRenames(t *testing.T) {
	ops := []Op{
		{RelPath: "a.txt", Kind: ConflictBoth},
		{RelPath: "dir/sub/deep.txt", Kind: DeleteLocal},
		{RelPath: "dir/file.txt", Kind: DeleteLocal},
		{RelPath: "b.txt", Kind: CopyLocalToSsd},
	}
	ordered := order(ops)
	if ordered[0].RelPath != "dir/sub/deep.txt" {
		t.Errorf("expected deepest delete first, got %s", ordered[0].RelPath)
	}
	if ordered[1].RelPath != "dir/file.txt" {
		t.Errorf("expected shallower delete second, got %s", ordered[1].RelPath)
	}
	if ordered[2].Kind != CopyLocalToSsd {
		t.Errorf("expected copy third, got %v", ordered[2].Kind)
	}
	if ordered[3].Kind != ConflictBoth {
		t.Errorf("expected rename last, got %v", ordered[3].Kind)
	}
}

func TestScenario_FirstEverSync(t *testing.T) {
	local := classify.Changes{"a.txt": classify.Created}
	ssd := classify.Changes{}
	ops := Build(local, ssd, nil, nil, Both, "M", time.Now())
	if len(ops) != 1 || ops[0].Kind != CopyLocalToSsd {
		t.Fatalf("got %v, want CopyLocalToSsd", ops)
	}
}

func TestScenario_IgnoreHidesChanges(t *testing.T) {
	// Ignored paths never reach the classifier/planner at all, so an
	// empty changeset for those paths naturally yields no ops.
	ops := Build(classify.Changes{}, classify.Changes{}, nil, nil, Both, "M", time.Now())
	if len(ops) != 0 {
		t.Fatalf("expected no ops, got %v", ops)
	}
}
