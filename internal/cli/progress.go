package cli

import (
	"fmt"
	"io"

	"github.com/cheggaaa/pb/v3"
	"github.com/ssdsyncer/ssd-syncer/internal/engine"
	"github.com/ssdsyncer/ssd-syncer/internal/plan"
)

// progressObserver renders a cheggaaa/pb progress bar during verbose
// sync runs; the teacher declared this dependency but never imported
// it anywhere, so this is the first real use of it in this codebase.
type progressObserver struct {
	out     io.Writer
	bar     *pb.ProgressBar
	verbose bool
}

func newProgressObserver(out io.Writer, verbose bool) *progressObserver {
	o := &progressObserver{out: out, verbose: verbose}
	if verbose {
		o.bar = pb.New(0)
		o.bar.Start()
	}
	return o
}

func (o *progressObserver) OnPlanOp(op plan.Op, dryRun bool) {
	if o.bar != nil {
		o.bar.SetTotal(o.bar.Total() + 1)
		o.bar.Increment()
	}
	if o.verbose {
		prefix := "would "
		if !dryRun {
			prefix = ""
		}
		fmt.Fprintf(o.out, "%s%s %s\n", prefix, op.Kind, op.RelPath)
	}
}

func (o *progressObserver) OnPhase(phase engine.Phase, mapping string) {
	if o.verbose {
		fmt.Fprintf(o.out, "== %s: %s ==\n", mapping, phase)
	}
}

func (o *progressObserver) AskConflict(relPath, localKind, ssdKind string) (plan.OpKind, bool) {
	return plan.Noop, false
}

func (o *progressObserver) finish() {
	if o.bar != nil {
		o.bar.Finish()
	}
}
