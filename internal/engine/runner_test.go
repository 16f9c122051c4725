package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/migrate"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/schema"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/store"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
)

func newTestRunner(t *testing.T) (*Runner, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return New(mem, schema.DefaultRegistry(), schema.DefaultRules()), mem
}

func seedLegacyProducts(mem *store.Memory, n int) {
	for i := 0; i < n; i++ {
		mem.Seed("products", models.Record{
			"id":        fmt.Sprintf("p%03d", i),
			"name":      fmt.Sprintf("Product %d", i),
			"sku":       fmt.Sprintf("SKU-%03d", i),
			"createdat": "2023-01-01",
			"price":     float64(i),
		})
	}
}

func TestMigrateEntityEndToEnd(t *testing.T) {
	r, mem := newTestRunner(t)
	mem.Seed("brands", models.Record{"id": "b1", "name": "Acme"})
	seedLegacyProducts(mem, 12)
	mem.Seed("products", models.Record{
		"id": "p-branded", "name": "Branded", "sku": "SKU-B", "brand": "Acme", "price": 9.0,
	})

	report := r.MigrateEntity(context.Background(), "products", RunOptions{BatchSize: 5, MaxConcurrent: 2})
	require.Empty(t, report.FailureCause)
	assert.True(t, report.Success)
	assert.Equal(t, 13, report.TotalProcessed)
	assert.Zero(t, report.TotalFailed)
	assert.NotEmpty(t, report.BackupChecksum)

	// Records are canonical now.
	recs, err := mem.Query(context.Background(), "products", store.Query{})
	require.NoError(t, err)
	for _, rec := range recs {
		assert.False(t, rec.Has("name"), "record %s still legacy", rec.ID())
		assert.True(t, rec.Has("title"))
	}

	// The brand reference was resolved.
	branded, err := mem.Query(context.Background(), "products", store.Query{Where: map[string]any{"id": "p-branded"}})
	require.NoError(t, err)
	require.Len(t, branded, 1)
	assert.Equal(t, "b1", branded[0]["brandId"])

	assert.True(t, r.Status.IsMigrated("products"))
	assert.False(t, r.Middleware.ShouldApply("products"))
	assert.Greater(t, report.PostScore, report.BaselineScore)
}

func TestMigrateEntityInvalidRecordsFailStatus(t *testing.T) {
	r, mem := newTestRunner(t)
	seedLegacyProducts(mem, 5)
	mem.Seed("products", models.Record{"id": "bad", "price": -1.0}) // no title, negative price

	report := r.MigrateEntity(context.Background(), "products", RunOptions{BatchSize: 3, MaxConcurrent: 1})
	assert.Equal(t, 5, report.TotalProcessed)
	assert.Equal(t, 1, report.TotalFailed)

	st, ok := r.Status.Get("products")
	require.True(t, ok)
	assert.Equal(t, migrate.StateFailed, st.State)
}

func TestMigrateEntityBatchFailureRollsBack(t *testing.T) {
	r, mem := newTestRunner(t)
	seedLegacyProducts(mem, 10)

	writes := 0
	mem.TransactErr = func(ops []store.Op) error {
		if ops[0].Kind != store.OpUpsert {
			return nil
		}
		writes++
		if writes == 2 {
			return fmt.Errorf("forced write failure")
		}
		return nil
	}

	report := r.MigrateEntity(context.Background(), "products", RunOptions{BatchSize: 5, MaxConcurrent: 1})
	assert.False(t, report.Success)
	require.NotEmpty(t, report.Errors)

	// The failed run restored the pre-migration backup.
	mem.TransactErr = nil
	assert.True(t, report.RolledBack, "rollback error: %s", report.RollbackError)
	recs, err := mem.Query(context.Background(), "products", store.Query{})
	require.NoError(t, err)
	legacy := 0
	for _, rec := range recs {
		if rec.Has("name") {
			legacy++
		}
	}
	assert.Equal(t, 10, legacy, "restore should bring back the legacy-shaped records")
}

func TestMigrateEntityDryRun(t *testing.T) {
	r, mem := newTestRunner(t)
	seedLegacyProducts(mem, 4)

	report := r.MigrateEntity(context.Background(), "products", RunOptions{BatchSize: 2, MaxConcurrent: 1, DryRun: true})
	assert.True(t, report.Success)
	assert.Equal(t, 4, report.TotalProcessed)

	recs, _ := mem.Query(context.Background(), "products", store.Query{})
	for _, rec := range recs {
		assert.True(t, rec.Has("name"), "dry run must not rewrite records")
	}
	assert.False(t, r.Status.IsMigrated("products"))
	assert.Empty(t, r.Backups.ListBackups(), "dry run must not snapshot")
}

func TestMigrateAllContinuesPastFailures(t *testing.T) {
	r, mem := newTestRunner(t)
	seedLegacyProducts(mem, 3)
	mem.Seed("orders", models.Record{"id": "o1", "total": -5.0}) // invalid, run fails

	reports := r.MigrateAll(context.Background(), RunOptions{BatchSize: 10, MaxConcurrent: 1})
	assert.Len(t, reports, len(r.Registry.Entities()))

	byEntity := map[string]RunReport{}
	for _, rep := range reports {
		byEntity[rep.Entity] = rep
	}
	assert.Zero(t, byEntity["products"].TotalFailed)
	assert.Equal(t, 1, byEntity["orders"].TotalFailed)
}

func TestSafelyDisableAfterCleanMigration(t *testing.T) {
	r, mem := newTestRunner(t)
	seedLegacyProducts(mem, 6)

	report := r.MigrateEntity(context.Background(), "products", RunOptions{BatchSize: 3, MaxConcurrent: 2})
	require.True(t, report.Success)

	check := r.SafelyDisableCompatibilityLayer(context.Background(), "products")
	assert.True(t, check.CanDisable)
	assert.Empty(t, check.Issues)
	found := false
	for _, rec := range check.Recommendations {
		if strings.Contains(rec, "safely be disabled") {
			found = true
		}
	}
	assert.True(t, found, "recommendations: %v", check.Recommendations)
}

func TestSafelyDisableBlockedMidMigration(t *testing.T) {
	r, _ := newTestRunner(t)
	r.Status.StartMigration("products", 10)

	check := r.SafelyDisableCompatibilityLayer(context.Background(), "products")
	assert.False(t, check.CanDisable)
	assert.Contains(t, check.Issues, "migration is not complete")
}

func TestSafelyDisableBlockedByFailedRecords(t *testing.T) {
	r, _ := newTestRunner(t)
	r.Status.StartMigration("products", 10)
	r.Status.UpdateProgress("products", 8, 2)
	r.Status.CompleteMigration("products")

	check := r.SafelyDisableCompatibilityLayer(context.Background(), "products")
	assert.False(t, check.CanDisable)
	assert.Contains(t, check.Issues, "2 records failed migration")
}

func TestSafelyDisableBlockedByLegacyFields(t *testing.T) {
	r, mem := newTestRunner(t)
	mem.Seed("products", models.Record{"id": "p1", "title": "Ring", "name": "Ring"})
	r.Status.StartMigration("products", 1)
	r.Status.CompleteMigration("products")

	check := r.SafelyDisableCompatibilityLayer(context.Background(), "products")
	assert.False(t, check.CanDisable)
	found := false
	for _, issue := range check.Issues {
		if strings.Contains(issue, "legacy field names") {
			found = true
		}
	}
	assert.True(t, found, "issues: %v", check.Issues)
}

func TestSafelyDisableBlockedByLowSuccessRate(t *testing.T) {
	r, mem := newTestRunner(t)
	mem.Seed("products", models.Record{"id": "p1", "title": "Ring"})
	r.Status.StartMigration("products", 1)
	r.Status.CompleteMigration("products")

	for i := 0; i < 10; i++ {
		r.Middleware.RecordOutcome("products", i%2 == 0)
	}
	check := r.SafelyDisableCompatibilityLayer(context.Background(), "products")
	assert.False(t, check.CanDisable)
}

func TestReportRendersAllEntities(t *testing.T) {
	r, mem := newTestRunner(t)
	seedLegacyProducts(mem, 2)

	text, err := r.Report(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "Migration overview")
	for _, entity := range r.Registry.Entities() {
		assert.Contains(t, text, entity)
	}
	assert.Contains(t, text, "legacy field")
}
