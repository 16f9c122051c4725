package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func NewAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <entity>",
		Short: "Score an entity's current data health",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := runner.Auditor.Audit(context.Background(), args[0])
			if err != nil {
				return err
			}
			c.Printf("%s: %d records, health %d/100 (%d errors, %d warnings)\n",
				result.Entity, result.TotalRecords,
				result.Summary.HealthScore, result.Summary.Errors, result.Summary.Warnings)
			for _, issue := range result.Issues {
				c.Printf("  [%s] %s record=%s field=%s: %s\n",
					issue.Severity, issue.Type, issue.RecordID, issue.Field, issue.Message)
			}
			return nil
		},
	}
}

func NewReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report [entities...]",
		Short: "Render a multi-entity migration and health summary",
		RunE: func(c *cobra.Command, args []string) error {
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()

			text, err := runner.Report(context.Background(), args...)
			if err != nil {
				return err
			}
			c.Print(text)
			return nil
		},
	}
}

func NewDisableCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable-check <entity>",
		Short: "Check whether the compatibility layer can be safely disabled",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			runner, cleanup, err := buildRunner()
			if err != nil {
				return err
			}
			defer cleanup()

			check := runner.SafelyDisableCompatibilityLayer(context.Background(), args[0])
			c.Printf("%s: canDisable=%v\n", check.Entity, check.CanDisable)
			for _, issue := range check.Issues {
				c.Printf("  issue: %s\n", issue)
			}
			for _, rec := range check.Recommendations {
				c.Printf("  recommendation: %s\n", rec)
			}
			return nil
		},
	}
}
