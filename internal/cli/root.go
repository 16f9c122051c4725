// Package cli wires the migration engine to its cobra command surface.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "posmigrate",
		Short: "Schema migration and compatibility engine for the POS dataset",
		Long: `posmigrate moves the POS document store from the legacy field layout to
the normalized schema while the application keeps running against both.
It supports batched migration with rollback, checksummed backups, and
data-integrity auditing.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(
		NewMigrateCmd(),
		NewStatusCmd(),
		NewBackupCmd(),
		NewRollbackCmd(),
		NewAuditCmd(),
		NewReportCmd(),
		NewDisableCheckCmd(),
	)

	return rootCmd
}
