package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssdsyncer/ssd-syncer/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <machine-name>",
		Short: "Create or overwrite this machine's local config header",
		Args:  cobra.ExactArgs(1),
		RunE:  runInit,
	}
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	machineName := args[0]

	path := globalFlags.ConfigFile
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg := config.Default(machineName)
	if err := saveConfig(cfg, path); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "initialized machine %q at %s\n", machineName, path)
	return nil
}
