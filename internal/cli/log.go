package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssdsyncer/ssd-syncer/internal/snapshot"
)

// NewLogCommand creates the log command: returns the last N lines of
// the SSD's append-only sync.log.
func NewLogCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the last N sync log lines from the SSD",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Machine.SsdMount == "" {
				return fmt.Errorf("log: no SSD mount configured")
			}

			store := snapshot.NewStore(cfg.Machine.SsdMount)
			lines, err := store.TailLog(limit)
			if err != nil {
				return err
			}
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of log lines to show")
	return cmd
}
