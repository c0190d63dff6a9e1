package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssdsyncer/ssd-syncer/internal/config"
	"github.com/ssdsyncer/ssd-syncer/internal/relpath"
)

// NewIgnoreCommand creates the parent ignore-{reset,list,add,remove}
// command group.
func NewIgnoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ignore",
		Short: "Inspect or mutate this machine's ignore pattern list",
	}
	cmd.AddCommand(newIgnoreListCommand())
	cmd.AddCommand(newIgnoreAddCommand())
	cmd.AddCommand(newIgnoreRemoveCommand())
	cmd.AddCommand(newIgnoreResetCommand())
	return cmd
}

func newIgnoreListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured ignore patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			for _, p := range cfg.Ignore.Patterns {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newIgnoreAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <pattern>...",
		Short: "Add one or more ignore patterns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			for _, raw := range args {
				if _, err := relpath.ParsePattern(raw); err != nil {
					return fmt.Errorf("ignore add: %w", err)
				}
				cfg.Ignore.Patterns = append(cfg.Ignore.Patterns, raw)
			}
			if err := saveConfig(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d pattern(s)\n", len(args))
			return nil
		},
	}
}

func newIgnoreRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <pattern>...",
		Short: "Remove one or more ignore patterns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			toRemove := make(map[string]bool, len(args))
			for _, a := range args {
				toRemove[a] = true
			}
			kept := cfg.Ignore.Patterns[:0]
			for _, p := range cfg.Ignore.Patterns {
				if !toRemove[p] {
					kept = append(kept, p)
				}
			}
			cfg.Ignore.Patterns = kept
			if err := saveConfig(cfg, path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "updated ignore patterns")
			return nil
		},
	}
}

func newIgnoreResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default ignore pattern list",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Ignore = config.Default(cfg.Machine.Name).Ignore
			if err := saveConfig(cfg, path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ignore patterns reset to defaults")
			return nil
		},
	}
}
