package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/backup"
)

func NewBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot, verify, and restore entity backups",
	}

	var (
		version     string
		description string
		validate    bool
	)
	createCmd := &cobra.Command{
		Use:   "create <entity>",
		Short: "Snapshot an entity's records with a content checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()
			return runner.Backups.CreateBackup(context.Background(), args[0], backup.Options{
				Version:           version,
				Description:       description,
				ValidateIntegrity: validate,
			})
		},
	}
	createCmd.Flags().StringVar(&version, "version", "manual", "Backup version label")
	createCmd.Flags().StringVar(&description, "description", "", "Backup description")
	createCmd.Flags().BoolVar(&validate, "validate", false, "Fail if records violate required fields")

	var (
		noValidate   bool
		restorePoint bool
	)
	restoreCmd := &cobra.Command{
		Use:   "restore <entity>",
		Short: "Restore an entity from its backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()
			return runner.Backups.RestoreFromBackup(context.Background(), args[0], backup.RestoreOptions{
				ValidateBeforeRestore: !noValidate,
				CreateRestorePoint:    restorePoint,
			})
		},
	}
	restoreCmd.Flags().BoolVar(&noValidate, "no-validate", false, "Skip the checksum check before restoring")
	restoreCmd.Flags().BoolVar(&restorePoint, "restore-point", true, "Snapshot current state first so the restore can be undone")

	verifyCmd := &cobra.Command{
		Use:   "verify <entity>",
		Short: "Check a backup's integrity against its checksum and the live data",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()
			v := runner.Backups.VerifyBackup(context.Background(), args[0])
			c.Printf("exists=%v valid=%v\n", v.Exists, v.Valid)
			for _, issue := range v.Issues {
				c.Printf("  - %s\n", issue)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all held backups",
		RunE: func(c *cobra.Command, args []string) error {
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()
			for key, meta := range runner.Backups.ListBackups() {
				c.Printf("%s: %d records, version %s, created %s, checksum %.12s\n",
					key, meta.RecordCount, meta.Version, meta.CreatedAt.Format("2006-01-02 15:04:05"), meta.Checksum)
			}
			return nil
		},
	}

	var force bool
	clearCmd := &cobra.Command{
		Use:   "clear <entity>",
		Short: "Drop an entity's backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()
			return runner.Backups.ClearBackup(context.Background(), args[0], force)
		},
	}
	clearCmd.Flags().BoolVar(&force, "force", false, "Clear even if live data has drifted from the backup")

	historyCmd := &cobra.Command{
		Use:   "history <entity>",
		Short: "Show an entity's rollback history",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()
			for _, entry := range runner.Backups.RollbackHistory(args[0]) {
				line := entry.Timestamp.Format("2006-01-02 15:04:05") + " " + entry.Action + " version=" + entry.Version
				if entry.Success {
					line += " ok"
				} else {
					line += " FAILED: " + entry.Error
				}
				c.Println(line)
			}
			return nil
		},
	}

	cmd.AddCommand(createCmd, restoreCmd, verifyCmd, listCmd, clearCmd, historyCmd)
	return cmd
}

func NewRollbackCmd() *cobra.Command {
	var (
		reason   string
		entities []string
	)
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Emergency rollback across entities, skipping non-essential checks",
		RunE: func(c *cobra.Command, args []string) error {
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()
			result := runner.Backups.EmergencyRollback(context.Background(), reason, entities)
			if result.Success {
				c.Printf("emergency rollback succeeded for %s\n", strings.Join(entities, ", "))
				return nil
			}
			for entity, msg := range result.Errors {
				c.Printf("%s: %s\n", entity, msg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the rollback is needed")
	cmd.Flags().StringSliceVar(&entities, "entities", nil, "Entities to roll back")
	cmd.MarkFlagRequired("reason")
	cmd.MarkFlagRequired("entities")
	return cmd
}
