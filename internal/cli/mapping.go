package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssdsyncer/ssd-syncer/internal/config"
	"github.com/ssdsyncer/ssd-syncer/internal/platform"
)

// NewAddCommand creates the add command.
func NewAddCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <local-path> <ssd-path>",
		Short: "Append a local<->SSD mapping",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if err := platform.ValidatePath(args[0]); err != nil {
				return fmt.Errorf("add: %w", err)
			}
			local := platform.NormalizePath(args[0])
			ssd := args[1]

			key := name
			if key == "" {
				key = ssd
			}
			if cfg.FindMapping(key) != nil {
				return fmt.Errorf("add: mapping %q already exists", key)
			}

			cfg.Sync = append(cfg.Sync, config.Mapping{Name: name, Local: local, Ssd: ssd})
			if err := saveConfig(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added mapping %s -> %s\n", local, ssd)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "optional mapping name (defaults to the SSD path)")
	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <name-or-ssd-path>",
		Short: "Remove a mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}

			target := args[0]
			kept := cfg.Sync[:0]
			removed := false
			for _, m := range cfg.Sync {
				if m.Name == target || m.Ssd == target {
					removed = true
					continue
				}
				kept = append(kept, m)
			}
			if !removed {
				return fmt.Errorf("remove: no mapping matches %q", target)
			}
			cfg.Sync = kept

			if err := saveConfig(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed mapping %q\n", target)
			return nil
		},
	}
	return cmd
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if len(cfg.Sync) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no mappings configured)")
				return nil
			}
			for _, m := range cfg.Sync {
				label := m.Name
				if label == "" {
					label = m.Ssd
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s local=%s ssd=%s\n", label, m.Local, m.Ssd)
			}
			return nil
		},
	}
	return cmd
}

// NewSetSsdCommand creates the set-ssd command.
func NewSetSsdCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-ssd <mount-path>",
		Short: "Set the default SSD mount path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if err := platform.ValidatePath(args[0]); err != nil {
				return fmt.Errorf("set-ssd: %w", err)
			}
			mount := platform.NormalizePath(args[0])
			cfg.Machine.SsdMount = mount
			if err := saveConfig(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "default SSD mount set to %s\n", mount)
			return nil
		},
	}
	return cmd
}
