package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/schema"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/store"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
)

func newTestAuditor(t *testing.T) (*Auditor, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewAuditor(mem, schema.DefaultRegistry(), schema.DefaultRules()), mem
}

func TestAuditEmptyEntityScoresPerfect(t *testing.T) {
	a, _ := newTestAuditor(t)
	result, err := a.Audit(context.Background(), "products")
	require.NoError(t, err)
	assert.Zero(t, result.TotalRecords)
	assert.Empty(t, result.Issues)
	assert.Equal(t, 100, result.Summary.HealthScore)
}

func TestAuditCleanRecords(t *testing.T) {
	a, mem := newTestAuditor(t)
	mem.Seed("products",
		models.Record{"id": "p1", "title": "Ring", "sku": "R-1", "price": 10.0},
		models.Record{"id": "p2", "title": "Chain", "sku": "C-1", "price": 20.0},
	)
	result, err := a.Audit(context.Background(), "products")
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRecords)
	assert.Equal(t, 100, result.Summary.HealthScore)
}

func TestAuditWarningsOnlyScore(t *testing.T) {
	a, mem := newTestAuditor(t)
	// Three legacy-shaped fields on one record: warnings, not errors.
	mem.Seed("products", models.Record{
		"id":        "p1",
		"title":     "Ring",
		"name":      "Ring",
		"createdat": "2023-01-01",
		"updatedat": "2023-01-02",
	})
	result, err := a.Audit(context.Background(), "products")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Errors)
	assert.Equal(t, 3, result.Summary.Warnings)
	assert.Equal(t, 94, result.Summary.HealthScore)
}

func TestAuditErrorTypes(t *testing.T) {
	a, mem := newTestAuditor(t)
	mem.Seed("products", models.Record{"id": "p1", "price": -3.0}) // missing title, negative price
	result, err := a.Audit(context.Background(), "products")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.Errors)
	assert.Equal(t, 80, result.Summary.HealthScore)

	types := map[IssueType]bool{}
	for _, issue := range result.Issues {
		types[issue.Type] = true
	}
	assert.True(t, types[IssueMissingRequired])
	assert.True(t, types[IssueConstraintViolation])
}

func TestAuditDuplicateUniqueValues(t *testing.T) {
	a, mem := newTestAuditor(t)
	mem.Seed("products",
		models.Record{"id": "p1", "title": "Ring", "sku": "DUP"},
		models.Record{"id": "p2", "title": "Chain", "sku": "DUP"},
		models.Record{"id": "p3", "title": "Band", "sku": "B-1"},
	)
	result, err := a.Audit(context.Background(), "products")
	require.NoError(t, err)

	dups := 0
	for _, issue := range result.Issues {
		if issue.Type == IssueDuplicateValue {
			dups++
			assert.Equal(t, "sku", issue.Field)
			assert.Equal(t, SeverityError, issue.Severity)
		}
	}
	assert.Equal(t, 2, dups, "one issue per offending record")
}

func TestAuditOrphanedReferenceWarning(t *testing.T) {
	a, mem := newTestAuditor(t)
	mem.Seed("products", models.Record{"id": "p1", "title": "Ring", "brand": "Acme"})
	result, err := a.Audit(context.Background(), "products")
	require.NoError(t, err)

	found := false
	for _, issue := range result.Issues {
		if issue.Type == IssueOrphanedReference {
			found = true
			assert.Equal(t, SeverityWarning, issue.Severity)
		}
	}
	assert.True(t, found)
}

func TestAuditScoreClampsAtZero(t *testing.T) {
	a, mem := newTestAuditor(t)
	for i := 0; i < 15; i++ {
		mem.Seed("products", models.Record{"id": string(rune('a' + i))})
	}
	result, err := a.Audit(context.Background(), "products")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Summary.Errors, 11)
	assert.Equal(t, 0, result.Summary.HealthScore)
}

func TestAuditNeverMutates(t *testing.T) {
	a, mem := newTestAuditor(t)
	mem.Seed("products", models.Record{"id": "p1", "name": "Ring"})

	before, _ := mem.Query(context.Background(), "products", store.Query{})
	_, err := a.Audit(context.Background(), "products")
	require.NoError(t, err)
	after, _ := mem.Query(context.Background(), "products", store.Query{})
	assert.Equal(t, before, after)
}
