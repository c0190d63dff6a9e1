package classify

import (
	"testing"
	"time"

	"github.com/ssdsyncer/ssd-syncer/internal/snapshot"
)

func hashOf(b byte) []byte {
	h := make([]byte, 32)
	h[0] = b
	return h
}

func TestClassify_Created(t *testing.T) {
	current := snapshot.StateMap{"new.txt": {Size: 5, Hash: hashOf(1)}}
	changes := Classify(snapshot.StateMap{}, current)
	if changes["new.txt"] != Created {
		t.Errorf("got %v, want Created", changes["new.txt"])
	}
}

func TestClassify_Deleted(t *testing.T) {
	baseline := snapshot.StateMap{"old.txt": {Size: 5, Hash: hashOf(1)}}
	changes := Classify(baseline, snapshot.StateMap{})
	if changes["old.txt"] != Deleted {
		t.Errorf("got %v, want Deleted", changes["old.txt"])
	}
}

func TestClassify_ModifiedByHash(t *testing.T) {
	baseline := snapshot.StateMap{"f.txt": {Size: 5, Hash: hashOf(1)}}
	current := snapshot.StateMap{"f.txt": {Size: 5, Hash: hashOf(2)}}
	changes := Classify(baseline, current)
	if changes["f.txt"] != Modified {
		t.Errorf("got %v, want Modified", changes["f.txt"])
	}
}

func TestClassify_UnchangedByHash_EvenWithDifferentMTime(t *testing.T) {
	baseline := snapshot.StateMap{"f.txt": {Size: 5, Hash: hashOf(1), MTime: time.Unix(100, 0)}}
	current := snapshot.StateMap{"f.txt": {Size: 5, Hash: hashOf(1), MTime: time.Unix(200, 0)}}
	changes := Classify(baseline, current)
	if changes["f.txt"] != Unchanged {
		t.Errorf("got %v, want Unchanged (hash is authoritative)", changes["f.txt"])
	}
}

func TestClassify_FallsBackToSizeAndMTimeWithoutHashes(t *testing.T) {
	mtime := time.Unix(100, 0)
	baseline := snapshot.StateMap{"f.txt": {Size: 5, MTime: mtime}}
	current := snapshot.StateMap{"f.txt": {Size: 5, MTime: mtime}}
	changes := Classify(baseline, current)
	if changes["f.txt"] != Unchanged {
		t.Errorf("got %v, want Unchanged", changes["f.txt"])
	}
}

func TestClassify_Unchanged(t *testing.T) {
	entry := snapshot.FileState{Size: 5, Hash: hashOf(1)}
	baseline := snapshot.StateMap{"f.txt": entry}
	current := snapshot.StateMap{"f.txt": entry}
	changes := Classify(baseline, current)
	if changes["f.txt"] != Unchanged {
		t.Errorf("got %v, want Unchanged", changes["f.txt"])
	}
}
