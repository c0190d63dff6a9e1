// Package ssderr defines the structured error taxonomy the engine reports
// through: configuration, environment, scan, plan-execute and
// snapshot-write errors, each carrying the mapping and RelPath they
// occurred against so callers can log or render them without re-deriving
// context.
package ssderr

import "fmt"

// ConfigError signals a problem found while validating local configuration
// before any I/O is attempted: invalid machine name, malformed ignore
// pattern, missing or duplicate mapping.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// EnvironmentError signals the SSD mount is missing, the administrative
// area is unwritable, or the advisory lock is held by another run.
type EnvironmentError struct {
	Mapping string
	Msg     string
	Err     error
}

func (e *EnvironmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mapping %q: %s: %v", e.Mapping, e.Msg, e.Err)
	}
	return fmt.Sprintf("mapping %q: %s", e.Mapping, e.Msg)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// ScanError records a recovered per-file error encountered while walking a
// side's tree. The offending path is omitted from the resulting StateMap;
// a ScanError never fails the overall scan unless Fatal is set (root
// missing or not a directory).
type ScanError struct {
	Mapping string
	RelPath string
	Fatal   bool
	Err     error
}

func (e *ScanError) Error() string {
	if e.RelPath == "" {
		return fmt.Sprintf("mapping %q: scan: %v", e.Mapping, e.Err)
	}
	return fmt.Sprintf("mapping %q: scan %s: %v", e.Mapping, e.RelPath, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// PlanError is fatal for a sync run: it stops the Plan Executor mid-plan,
// remaining ops are skipped, and the baseline snapshot is left untouched
// so the next run re-derives the same work.
type PlanError struct {
	Mapping string
	RelPath string
	Op      string
	Err     error
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("mapping %q: op %s on %s: %v", e.Mapping, e.Op, e.RelPath, e.Err)
}

func (e *PlanError) Unwrap() error { return e.Err }

// SnapshotWriteError is fatal for a sync run: the plan applied cleanly but
// the new baseline could not be persisted, so the next run will recompute
// the same plan against the previous baseline.
type SnapshotWriteError struct {
	Mapping string
	Err     error
}

func (e *SnapshotWriteError) Error() string {
	return fmt.Sprintf("mapping %q: snapshot write: %v", e.Mapping, e.Err)
}

func (e *SnapshotWriteError) Unwrap() error { return e.Err }

// Cancelled reports cooperative cancellation of a sync run. It is not
// treated as a failure by callers that distinguish it from PlanError, but
// it still short-circuits SnapshotWrite exactly like one.
type Cancelled struct {
	Mapping string
	Stage   string
}

func (e *Cancelled) Error() string {
	return fmt.Sprintf("mapping %q: cancelled during %s", e.Mapping, e.Stage)
}
