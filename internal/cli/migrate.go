package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/engine"
)

type MigrateOptions struct {
	All           bool
	BatchSize     int
	MaxConcurrent int
	DryRun        bool
}

func NewMigrateCmd() *cobra.Command {
	opts := &MigrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate [entity]",
		Short: "Run the schema migration for one entity or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if !opts.All && len(args) == 0 {
				return fmt.Errorf("specify an entity or pass --all")
			}
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()

			runOpts := engine.RunOptions{
				BatchSize:     opts.BatchSize,
				MaxConcurrent: opts.MaxConcurrent,
				DryRun:        opts.DryRun,
			}

			var reports []engine.RunReport
			if opts.All {
				reports = runner.MigrateAll(context.Background(), runOpts)
			} else {
				reports = []engine.RunReport{runner.MigrateEntity(context.Background(), args[0], runOpts)}
			}

			failed := 0
			for _, rep := range reports {
				printReport(c, rep)
				if !rep.Success || rep.FailureCause != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d entity migrations did not complete cleanly", failed, len(reports))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "Migrate every registered entity")
	cmd.Flags().IntVarP(&opts.BatchSize, "batch-size", "b", 100, "Records per batch")
	cmd.Flags().IntVarP(&opts.MaxConcurrent, "concurrency", "c", 3, "Concurrent batches per wave")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Transform and count without writing")

	return cmd
}

func printReport(c *cobra.Command, rep engine.RunReport) {
	c.Printf("%s: processed=%d failed=%d health %d -> %d\n",
		rep.Entity, rep.TotalProcessed, rep.TotalFailed, rep.BaselineScore, rep.PostScore)
	if rep.FailureCause != "" {
		c.Printf("  failure: %s\n", rep.FailureCause)
	}
	for _, be := range rep.Errors {
		c.Printf("  batch %d: %s\n", be.BatchIndex, be.Err)
	}
	if rep.RolledBack {
		c.Printf("  rolled back to pre-migration backup\n")
	} else if rep.RollbackError != "" {
		c.Printf("  rollback FAILED: %s\n", rep.RollbackError)
	}
}

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [entity]",
		Short: "Show migration status for one entity or aggregate statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()

			if len(args) == 1 {
				st, ok := runner.Status.Get(args[0])
				if !ok {
					c.Printf("%s: no migration tracked\n", args[0])
					return nil
				}
				c.Printf("%s: %s migrated=%d failed=%d total=%d\n",
					st.Entity, st.State, st.RecordsMigrated, st.RecordsFailed, st.RecordsTotal)
				if st.LastError != "" {
					c.Printf("  last error: %s\n", st.LastError)
				}
				return nil
			}

			stats := runner.Status.Statistics()
			c.Printf("tracked=%d completed=%d in_progress=%d failed=%d not_started=%d\n",
				stats.Total, stats.Completed, stats.InProgress, stats.Failed, stats.NotStarted)
			return nil
		},
	}
}
