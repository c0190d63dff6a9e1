package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssdsyncer/ssd-syncer/internal/config"
	"github.com/ssdsyncer/ssd-syncer/internal/engine"
	"github.com/ssdsyncer/ssd-syncer/internal/logging"
	"github.com/ssdsyncer/ssd-syncer/internal/plan"
	"github.com/ssdsyncer/ssd-syncer/internal/relpath"
	"github.com/ssdsyncer/ssd-syncer/internal/snapshot"
)

// NewSyncCommand creates the sync command: runs the engine through
// execution for every mapping matching mappingOrMount.
func NewSyncCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync [mapping-name-or-mount]",
		Short: "Run the engine for matching mapping(s)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMappings(cmd, args, dryRun, globalFlags.Verbose)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview the plan without touching the filesystem")
	return cmd
}

// NewStatusCommand creates the status command: runs through Planning
// only and prints per-PlanOp-kind counts.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [mapping-name-or-mount]",
		Short: "Show per-op counts without syncing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMappings(cmd, args, true, false)
		},
	}
	return cmd
}

// NewDiffCommand creates the diff command: runs through Planning only
// and lists every non-Noop path with its PlanOp.
func NewDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [mapping-name-or-mount]",
		Short: "List every pending change and its planned op",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMappings(cmd, args, true, true)
		},
	}
	return cmd
}

func runMappings(cmd *cobra.Command, args []string, dryRun, verbose bool) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Machine.SsdMount == "" {
		return fmt.Errorf("sync: no SSD mount configured; run `ssd-syncer set-ssd <path>` first")
	}

	mappings := selectMappings(cfg, args)
	if len(mappings) == 0 {
		return fmt.Errorf("sync: no mapping matches %v", args)
	}

	strategy, err := plan.ParseConflictStrategy(cfg.Conflict.Strategy)
	if err != nil {
		return err
	}
	ignore, err := relpath.NewResolver(cfg.Ignore.Patterns)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store := snapshot.NewStore(cfg.Machine.SsdMount)
	obs := newProgressObserver(cmd.OutOrStdout(), verbose)
	defer obs.finish()

	runLog := logger.WithFields(logging.Fields{"machine": cfg.Machine.Name, "ssd_mount": cfg.Machine.SsdMount})
	runLog.Info("sync run starting", logging.Fields{"mappings": len(mappings), "dry_run": dryRun})

	var params []engine.MappingParams
	for _, m := range mappings {
		name := m.Name
		if name == "" {
			name = m.Ssd
		}
		params = append(params, engine.MappingParams{
			Machine:  cfg.Machine.Name,
			Mapping:  name,
			LocalDir: m.Local,
			SsdDir:   cfg.Machine.SsdMount + "/" + m.Ssd,
			SsdMount: cfg.Machine.SsdMount,
			Ignore:   ignore,
			Strategy: strategy,
			Workers:  0,
			DryRun:   dryRun,
			Observer: obs,
		})
	}

	results, err := engine.RunAll(ctx, store, params)
	for _, res := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: copy->ssd=%d copy->local=%d delete-ssd=%d delete-local=%d conflicts=%d errors=%d total=%d\n",
			res.Mapping, res.CopiedToSsd, res.CopiedToLocal, res.DeletedFromSsd, res.DeletedFromLocal, res.Conflicts, res.Errors, res.TotalFiles)
	}
	if err != nil {
		runLog.Error("sync run failed", logging.Fields{"error": err.Error()})
	} else {
		runLog.Info("sync run complete", logging.Fields{"results": len(results)})
	}
	return err
}

func selectMappings(cfg *config.Config, args []string) []config.Mapping {
	if len(args) == 0 {
		return cfg.Sync
	}
	target := args[0]
	var out []config.Mapping
	for _, m := range cfg.Sync {
		if m.Name == target || m.Ssd == target {
			out = append(out, m)
		}
	}
	return out
}
