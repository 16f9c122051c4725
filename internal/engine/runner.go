// Package engine wires the migration components into complete operator
// flows: full entity runs, the safety-to-disable check, and human-readable
// reports.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/audit"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/backup"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/compat"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/migrate"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/schema"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/store"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/logger"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
)

// RunOptions controls one entity migration run.
type RunOptions struct {
	BatchSize     int
	MaxConcurrent int
	DryRun        bool
	SkipBackup    bool
}

// RunReport is the outcome of one entity migration run.
type RunReport struct {
	Entity         string
	Success        bool
	TotalProcessed int
	TotalFailed    int
	Errors         []migrate.BatchError
	BaselineScore  int
	PostScore      int
	BackupChecksum string
	RolledBack     bool
	RollbackError  string
	FailureCause   string
}

// DisableCheck is the result of the safety-to-disable evaluation.
type DisableCheck struct {
	Entity          string
	CanDisable      bool
	Issues          []string
	Recommendations []string
}

// Runner owns one process's migration engine instances, constructed once at
// startup and passed by reference everywhere.
type Runner struct {
	Store       store.Store
	Registry    *schema.Registry
	Rules       schema.RuleSet
	Status      *migrate.StatusStore
	Backups     *backup.Manager
	Auditor     *audit.Auditor
	Middleware  *compat.Middleware
	Transformer *migrate.Transformer
	Resolver    *migrate.Resolver
	Processor   *migrate.Processor
}

// New builds a fully wired engine over the given store.
func New(st store.Store, registry *schema.Registry, rules schema.RuleSet) *Runner {
	status := migrate.NewStatusStore()
	return &Runner{
		Store:       st,
		Registry:    registry,
		Rules:       rules,
		Status:      status,
		Backups:     backup.NewManager(st, rules),
		Auditor:     audit.NewAuditor(st, registry, rules),
		Middleware:  compat.NewMiddleware(registry, status),
		Transformer: migrate.NewTransformer(registry, rules),
		Resolver:    migrate.NewResolver(st, rules),
		Processor:   migrate.NewProcessor(st, status),
	}
}

// MigrateEntity runs the full flow for one entity: baseline audit, backup,
// batched transform, status transition, re-audit. A processor-level failure
// triggers a restore from the pre-run backup.
func (r *Runner) MigrateEntity(ctx context.Context, entity string, opts RunOptions) RunReport {
	report := RunReport{Entity: entity}

	baseline, err := r.Auditor.Audit(ctx, entity)
	if err != nil {
		report.FailureCause = fmt.Sprintf("baseline audit failed: %v", err)
		return report
	}
	report.BaselineScore = baseline.Summary.HealthScore
	logger.Infof("Baseline health for %s: %d (%d errors, %d warnings)",
		entity, baseline.Summary.HealthScore, baseline.Summary.Errors, baseline.Summary.Warnings)

	if !opts.SkipBackup && !opts.DryRun {
		err := r.Backups.CreateBackup(ctx, entity, backup.Options{
			Version:     "pre-migration",
			Description: fmt.Sprintf("before %s migration", entity),
		})
		if err != nil {
			report.FailureCause = fmt.Sprintf("backup failed: %v", err)
			return report
		}
		if meta, ok := r.Backups.ListBackups()[entity]; ok {
			report.BackupChecksum = meta.Checksum
		}
	}

	lookups, err := r.Resolver.BuildLookups(ctx)
	if err != nil {
		report.FailureCause = fmt.Sprintf("lookup build failed: %v", err)
		return report
	}

	transformFn := func(rec models.Record) (models.Record, error) {
		result := r.Transformer.Transform(entity, rec)
		if !result.Valid {
			return nil, fmt.Errorf("validation failed: %s", strings.Join(result.Errors, "; "))
		}
		return r.Resolver.Resolve(entity, result.Record, lookups), nil
	}

	r.Processor.SetDryRun(opts.DryRun)
	result, err := r.Processor.Run(ctx, entity, opts.BatchSize, opts.MaxConcurrent, transformFn, func(done, total int) {
		logger.Infof("%s migration progress: %d/%d", entity, done, total)
	})
	if err != nil {
		report.FailureCause = fmt.Sprintf("processor failed: %v", err)
		if !opts.DryRun {
			r.Status.FailMigration(entity, report.FailureCause)
		}
		return report
	}

	report.Success = result.Success
	report.TotalProcessed = result.TotalProcessed
	report.TotalFailed = result.TotalFailed
	report.Errors = result.Errors

	if opts.DryRun {
		return report
	}

	if result.TotalFailed == 0 {
		r.Status.CompleteMigration(entity)
	} else if len(result.Errors) > 0 {
		r.Status.FailMigration(entity, result.Errors[0].Err)
		report.RolledBack, report.RollbackError = r.rollback(ctx, entity)
	} else {
		// Only individual records were skipped; the entity stays usable but
		// is not declared fully migrated.
		r.Status.FailMigration(entity, fmt.Sprintf("%d records failed validation", result.TotalFailed))
	}

	post, err := r.Auditor.Audit(ctx, entity)
	if err == nil {
		report.PostScore = post.Summary.HealthScore
		logger.Infof("Post-migration health for %s: %d", entity, post.Summary.HealthScore)
	}
	return report
}

func (r *Runner) rollback(ctx context.Context, entity string) (bool, string) {
	logger.Warnf("Rolling back %s after batch failures", entity)
	err := r.Backups.RestoreFromBackup(ctx, entity, backup.RestoreOptions{
		ValidateBeforeRestore: true,
		CreateRestorePoint:    false,
	})
	if err != nil {
		return false, err.Error()
	}
	return true, ""
}

// MigrateAll runs every registered entity sequentially; one entity's failure
// never aborts the rest.
func (r *Runner) MigrateAll(ctx context.Context, opts RunOptions) []RunReport {
	entities := r.Registry.Entities()
	reports := make([]RunReport, 0, len(entities))
	for _, entity := range entities {
		reports = append(reports, r.MigrateEntity(ctx, entity, opts))
	}
	return reports
}

// SafelyDisableCompatibilityLayer checks every condition that must hold
// before the compatibility middleware may be turned off for an entity:
// completed status, zero failed records, no remaining legacy-field issues,
// and a middleware success rate of at least 0.95. Blocking issues and the
// recommended remediation are returned, never silently allowed.
func (r *Runner) SafelyDisableCompatibilityLayer(ctx context.Context, entity string) DisableCheck {
	check := DisableCheck{Entity: entity}

	status, ok := r.Status.Get(entity)
	if !ok || status.State != migrate.StateCompleted {
		check.Issues = append(check.Issues, "migration is not complete")
		check.Recommendations = append(check.Recommendations, "run the migration to completion before disabling the compatibility layer")
	}
	if status.RecordsFailed > 0 {
		check.Issues = append(check.Issues, fmt.Sprintf("%d records failed migration", status.RecordsFailed))
		check.Recommendations = append(check.Recommendations, "re-run the migration or repair the failed records")
	}

	result, err := r.Auditor.Audit(ctx, entity)
	if err != nil {
		check.Issues = append(check.Issues, fmt.Sprintf("consistency audit failed: %v", err))
	} else {
		legacy := 0
		for _, issue := range result.Issues {
			if strings.HasPrefix(issue.Message, "legacy field") {
				legacy++
			}
		}
		if legacy > 0 {
			check.Issues = append(check.Issues, fmt.Sprintf("%d records still carry legacy field names", legacy))
			check.Recommendations = append(check.Recommendations, "re-run the migration to normalize the remaining legacy fields")
		}
	}

	if rate := r.Middleware.SuccessRate(entity); rate < 0.95 {
		check.Issues = append(check.Issues, fmt.Sprintf("middleware success rate %.2f is below 0.95", rate))
		check.Recommendations = append(check.Recommendations, "investigate recent middleware failures before disabling")
	}

	check.CanDisable = len(check.Issues) == 0
	if check.CanDisable {
		check.Recommendations = append(check.Recommendations,
			fmt.Sprintf("compatibility layer for %s can safely be disabled", entity))
	}
	return check
}

// Report renders a human-readable multi-entity summary combining status
// statistics and audit health.
func (r *Runner) Report(ctx context.Context, entities ...string) (string, error) {
	if len(entities) == 0 {
		entities = r.Registry.Entities()
	}

	var b strings.Builder
	stats := r.Status.Statistics()
	fmt.Fprintf(&b, "Migration overview: %d tracked, %d completed, %d in progress, %d failed\n\n",
		stats.Total, stats.Completed, stats.InProgress, stats.Failed)

	for _, entity := range entities {
		result, err := r.Auditor.Audit(ctx, entity)
		if err != nil {
			return "", err
		}
		st, _ := r.Status.Get(entity)
		state := st.State
		if state == "" {
			state = migrate.StateNotStarted
		}
		fmt.Fprintf(&b, "%s: %d records, state %s, health %d/100 (%d errors, %d warnings)\n",
			entity, result.TotalRecords, state,
			result.Summary.HealthScore, result.Summary.Errors, result.Summary.Warnings)
		for _, issue := range result.Issues {
			fmt.Fprintf(&b, "  [%s] %s record=%s field=%s: %s\n",
				issue.Severity, issue.Type, issue.RecordID, issue.Field, issue.Message)
		}
	}
	return b.String(), nil
}
