package migrate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/store"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
)

func seedRecords(mem *store.Memory, entity string, n int) {
	for i := 0; i < n; i++ {
		mem.Seed(entity, models.Record{
			"id":   fmt.Sprintf("rec-%03d", i),
			"name": fmt.Sprintf("Product %d", i),
		})
	}
}

func identity(rec models.Record) (models.Record, error) {
	out := rec.Clone()
	out["migrated"] = true
	return out, nil
}

func TestRunMigratesAllBatches(t *testing.T) {
	mem := store.NewMemory()
	seedRecords(mem, "products", 25)
	status := NewStatusStore()
	p := NewProcessor(mem, status)

	result, err := p.Run(context.Background(), "products", 10, 2, identity, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 25, result.TotalProcessed)
	assert.Equal(t, 0, result.TotalFailed)
	assert.Empty(t, result.Errors)

	recs, err := mem.Query(context.Background(), "products", store.Query{})
	require.NoError(t, err)
	for _, rec := range recs {
		assert.Equal(t, true, rec["migrated"])
	}

	st, ok := status.Get("products")
	require.True(t, ok)
	assert.Equal(t, 25, st.RecordsMigrated)
}

func TestRunEmptyEntity(t *testing.T) {
	mem := store.NewMemory()
	p := NewProcessor(mem, NewStatusStore())

	result, err := p.Run(context.Background(), "products", 10, 2, identity, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, result.TotalProcessed)
}

func TestRunBatchFailureIsolated(t *testing.T) {
	mem := store.NewMemory()
	seedRecords(mem, "products", 50) // 5 batches of 10
	// Fail exactly the batch containing rec-020.
	mem.TransactErr = func(ops []store.Op) error {
		for _, op := range ops {
			if op.ID == "rec-020" {
				return errors.New("forced write failure")
			}
		}
		return nil
	}
	p := NewProcessor(mem, NewStatusStore())

	result, err := p.Run(context.Background(), "products", 10, 2, identity, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 40, result.TotalProcessed)
	assert.Equal(t, 10, result.TotalFailed, "exactly the failed batch's records count as failed")
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].BatchIndex)

	// The other 4 batches' records are migrated.
	recs, err := mem.Query(context.Background(), "products", store.Query{})
	require.NoError(t, err)
	migrated := 0
	for _, rec := range recs {
		if rec["migrated"] == true {
			migrated++
		}
	}
	assert.Equal(t, 40, migrated)
}

func TestRunRecordFailureSkipsRecordOnly(t *testing.T) {
	mem := store.NewMemory()
	seedRecords(mem, "products", 10)
	p := NewProcessor(mem, NewStatusStore())

	transform := func(rec models.Record) (models.Record, error) {
		if rec.ID() == "rec-003" {
			return nil, errors.New("validation failed")
		}
		return identity(rec)
	}

	result, err := p.Run(context.Background(), "products", 4, 1, transform, nil)
	require.NoError(t, err)
	assert.True(t, result.Success, "record-level failures do not fail the run")
	assert.Equal(t, 9, result.TotalProcessed)
	assert.Equal(t, 1, result.TotalFailed)
	assert.Empty(t, result.Errors)
}

func TestRunProgressCallback(t *testing.T) {
	mem := store.NewMemory()
	seedRecords(mem, "products", 30)
	p := NewProcessor(mem, NewStatusStore())

	var mu sync.Mutex
	var calls []int
	progress := func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 30, total)
		calls = append(calls, done)
	}

	_, err := p.Run(context.Background(), "products", 10, 1, identity, progress)
	require.NoError(t, err)
	assert.Len(t, calls, 3, "one callback per batch")
	assert.Equal(t, 30, calls[len(calls)-1])
}

func TestRunDryRunWritesNothing(t *testing.T) {
	mem := store.NewMemory()
	seedRecords(mem, "products", 10)
	status := NewStatusStore()
	p := NewProcessor(mem, status)
	p.SetDryRun(true)

	result, err := p.Run(context.Background(), "products", 5, 2, identity, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 10, result.TotalProcessed)

	recs, _ := mem.Query(context.Background(), "products", store.Query{})
	for _, rec := range recs {
		assert.False(t, rec.Has("migrated"), "dry run must not write")
	}
	_, ok := status.Get("products")
	assert.False(t, ok, "dry run must not touch status")
}

func TestPartitionPreservesOrder(t *testing.T) {
	records := []models.Record{
		{"id": "a"}, {"id": "b"}, {"id": "c"}, {"id": "d"}, {"id": "e"},
	}
	batches := partition(records, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, "a", batches[0][0].ID())
	assert.Equal(t, "c", batches[1][0].ID())
	assert.Equal(t, "e", batches[2][0].ID())
}
