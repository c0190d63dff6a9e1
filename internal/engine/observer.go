package engine

import "github.com/ssdsyncer/ssd-syncer/internal/plan"

// Phase names a state-machine transition of one mapping's sync run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseScanning
	PhaseClassifying
	PhasePlanning
	PhaseDryRunReport
	PhaseExecuting
	PhaseSnapshotWrite
	PhaseLogAppend
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseScanning:
		return "scanning"
	case PhaseClassifying:
		return "classifying"
	case PhasePlanning:
		return "planning"
	case PhaseDryRunReport:
		return "dry-run-report"
	case PhaseExecuting:
		return "executing"
	case PhaseSnapshotWrite:
		return "snapshot-write"
	case PhaseLogAppend:
		return "log-append"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Observer is the external collaborator the engine reports progress and
// conflict-resolution opportunities to. A CLI wires one in to render
// progress bars and phase headers; a caller with no interactive channel
// uses NoopObserver, under which Ask always degrades to Both.
type Observer interface {
	OnPlanOp(op plan.Op, dryRun bool)
	OnPhase(phase Phase, mapping string)
	AskConflict(relPath string, localKind, ssdKind string) (plan.OpKind, bool)
}

// NoopObserver discards every callback and never resolves a conflict
// interactively.
type NoopObserver struct{}

func (NoopObserver) OnPlanOp(plan.Op, bool) {}
func (NoopObserver) OnPhase(Phase, string)  {}
func (NoopObserver) AskConflict(string, string, string) (plan.OpKind, bool) {
	return plan.Noop, false
}
