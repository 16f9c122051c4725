// Package audit implements the read-only data-integrity sweep that scores an
// entity's current data health.
package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/schema"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/store"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/utils"
)

// IssueType classifies integrity issues.
type IssueType string

const (
	IssueMissingRequired     IssueType = "missing_required"
	IssueInvalidFormat       IssueType = "invalid_format"
	IssueConstraintViolation IssueType = "constraint_violation"
	IssueOrphanedReference   IssueType = "orphaned_reference"
	IssueDuplicateValue      IssueType = "duplicate_value"
)

// Severity grades an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one integrity finding, produced fresh on each audit call.
type Issue struct {
	Type     IssueType
	RecordID string
	Field    string
	Message  string
	Severity Severity
}

// Summary aggregates an audit.
type Summary struct {
	Errors      int
	Warnings    int
	HealthScore int
}

// Result is the outcome of auditing one entity.
type Result struct {
	Entity       string
	TotalRecords int
	Issues       []Issue
	Summary      Summary
}

// Auditor sweeps an entity's current data for integrity issues. It never
// mutates stored data.
type Auditor struct {
	store    store.Store
	registry *schema.Registry
	rules    schema.RuleSet
}

func NewAuditor(st store.Store, registry *schema.Registry, rules schema.RuleSet) *Auditor {
	return &Auditor{store: st, registry: registry, rules: rules}
}

// Audit scores the entity's current data. Lingering legacy-shaped fields and
// unresolved string references are warnings; missing required fields,
// negative amounts, and duplicated unique values are errors.
func (a *Auditor) Audit(ctx context.Context, entity string) (Result, error) {
	records, err := a.store.Query(ctx, entity, store.Query{})
	if err != nil {
		return Result{}, fmt.Errorf("audit %s: %w", entity, err)
	}

	rules := a.rules.Rules(entity)
	mappings := a.registry.Mappings(entity)

	var issues []Issue
	for _, rec := range records {
		issues = append(issues, a.auditRecord(rec, rules, mappings)...)
	}
	issues = append(issues, duplicateIssues(records, rules.Unique)...)

	summary := Summary{}
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			summary.Errors++
		} else {
			summary.Warnings++
		}
	}
	summary.HealthScore = healthScore(summary.Errors, summary.Warnings)

	return Result{
		Entity:       entity,
		TotalRecords: len(records),
		Issues:       issues,
		Summary:      summary,
	}, nil
}

func (a *Auditor) auditRecord(rec models.Record, rules schema.EntityRules, mappings []schema.FieldMap) []Issue {
	var issues []Issue
	id := rec.ID()

	for _, field := range rules.Required {
		if utils.IsEmpty(rec[field]) {
			issues = append(issues, Issue{
				Type:     IssueMissingRequired,
				RecordID: id,
				Field:    field,
				Message:  fmt.Sprintf("required field %q is missing or empty", field),
				Severity: SeverityError,
			})
		}
	}

	for _, field := range rules.NonNegative {
		if val, ok := rec[field]; ok {
			if n, numeric := utils.Numeric(val); numeric && n < 0 {
				issues = append(issues, Issue{
					Type:     IssueConstraintViolation,
					RecordID: id,
					Field:    field,
					Message:  fmt.Sprintf("field %q is negative: %v", field, val),
					Severity: SeverityError,
				})
			}
		}
	}

	for _, field := range rules.EmailFields {
		if val, ok := rec[field].(string); ok && val != "" && !strings.Contains(val, "@") {
			issues = append(issues, Issue{
				Type:     IssueInvalidFormat,
				RecordID: id,
				Field:    field,
				Message:  fmt.Sprintf("field %q is not a valid email address", field),
				Severity: SeverityError,
			})
		}
	}

	// A legacy field name still present means the record has not been
	// migrated yet; that is expected mid-rollout, so only a warning.
	for _, fm := range mappings {
		if rec.Has(fm.Legacy) {
			issues = append(issues, Issue{
				Type:     IssueConstraintViolation,
				RecordID: id,
				Field:    fm.Legacy,
				Message:  fmt.Sprintf("legacy field %q still present (canonical: %q)", fm.Legacy, fm.Canonical),
				Severity: SeverityWarning,
			})
		}
	}

	for _, ref := range rules.References {
		name, hasName := rec[ref.Field].(string)
		if hasName && name != "" && !rec.Has(ref.IDField) {
			issues = append(issues, Issue{
				Type:     IssueOrphanedReference,
				RecordID: id,
				Field:    ref.Field,
				Message:  fmt.Sprintf("string reference %q has no matching %q", ref.Field, ref.IDField),
				Severity: SeverityWarning,
			})
		}
	}

	return issues
}

// duplicateIssues emits one issue per record carrying a duplicated value in
// a field declared unique.
func duplicateIssues(records []models.Record, unique []string) []Issue {
	var issues []Issue
	for _, field := range unique {
		seen := make(map[string][]string)
		for _, rec := range records {
			if val, ok := rec[field].(string); ok && val != "" {
				seen[val] = append(seen[val], rec.ID())
			}
		}
		for val, ids := range seen {
			if len(ids) < 2 {
				continue
			}
			for _, id := range ids {
				issues = append(issues, Issue{
					Type:     IssueDuplicateValue,
					RecordID: id,
					Field:    field,
					Message:  fmt.Sprintf("duplicate %s %q shared by %d records", field, val, len(ids)),
					Severity: SeverityError,
				})
			}
		}
	}
	return issues
}

func healthScore(errors, warnings int) int {
	score := 100 - 10*errors - 2*warnings
	if score < 0 {
		return 0
	}
	return score
}
