// Package cli wires the engine, config, and snapshot layers into the
// command-line surface: argument parsing, help text, and exit-code
// mapping are this package's concern, not the engine's.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssdsyncer/ssd-syncer/internal/logging"
)

// logger is the ambient application logger, built once in
// NewRootCommand's PersistentPreRunE from the global --verbose/--quiet
// flags. Commands log through it for events outside the per-mapping
// sync.log the snapshot store maintains on the SSD.
var logger logging.Logger = logging.Null()

// NewRootCommand builds the full ssd-syncer command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ssd-syncer",
		Short: "Bidirectional file sync over a removable SSD",
		Long: `ssd-syncer keeps directories on multiple machines in agreement by using a
physical removable drive as a passive transport hub. Plug the SSD into
machine A, run sync, unplug, plug into machine B, run sync again.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.Info
			switch {
			case globalFlags.Quiet:
				level = logging.Error
			case globalFlags.Verbose:
				level = logging.Debug
			}
			logger = logging.NewConsole(level)
			return nil
		},
	}

	AddGlobalFlags(root)

	root.AddCommand(NewVersionCommand())
	root.AddCommand(NewInitCommand())
	root.AddCommand(NewAddCommand())
	root.AddCommand(NewRemoveCommand())
	root.AddCommand(NewListCommand())
	root.AddCommand(NewSetSsdCommand())
	root.AddCommand(NewSyncCommand())
	root.AddCommand(NewStatusCommand())
	root.AddCommand(NewDiffCommand())
	root.AddCommand(NewLogCommand())
	root.AddCommand(NewIgnoreCommand())

	return root
}
