package migrate

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/store"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/logger"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
)

// TransformFunc converts one record; an error marks the record failed and
// excludes it from the batch write without failing the batch.
type TransformFunc func(models.Record) (models.Record, error)

// ProgressFunc fires after every finished batch with cumulative counts.
type ProgressFunc func(processed, total int)

// BatchError records one failed batch.
type BatchError struct {
	BatchIndex int
	Err        string
}

// Result is the outcome of one processor run. Partial completion is expected
// on large legacy datasets: Success is true when no batch write failed, even
// if individual records were skipped as invalid (see TotalFailed).
type Result struct {
	Success        bool
	TotalProcessed int
	TotalFailed    int
	Errors         []BatchError
}

// Processor paginates an entity's records into fixed-size batches and
// processes them in waves of bounded concurrency. Each batch is written back
// as one transact call; a batch failure is isolated and never aborts sibling
// batches or later waves.
type Processor struct {
	store  store.Store
	status *StatusStore
	dryRun bool
}

func NewProcessor(st store.Store, status *StatusStore) *Processor {
	return &Processor{store: st, status: status}
}

// SetDryRun makes Run transform and count without writing or mutating status.
func (p *Processor) SetDryRun(v bool) {
	p.dryRun = v
}

// Run migrates every record of the entity through transformFn. Batches
// preserve the store's record order; batches within one wave may complete in
// any order. A wave already dispatched runs to completion.
func (p *Processor) Run(ctx context.Context, entity string, batchSize, maxConcurrent int, transformFn TransformFunc, progress ProgressFunc) (Result, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	records, err := p.store.Query(ctx, entity, store.Query{})
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s records: %w", entity, err)
	}

	total := len(records)
	if !p.dryRun {
		p.status.StartMigration(entity, total)
	}
	if total == 0 {
		return Result{Success: true}, nil
	}

	batches := partition(records, batchSize)
	logger.Infof("Processing %d %s records in %d batches (batch size %d, concurrency %d)",
		total, entity, len(batches), batchSize, maxConcurrent)

	var (
		mu        sync.Mutex
		processed int
		failed    int
		batchErrs []BatchError
	)

	for wave := 0; wave < len(batches); wave += maxConcurrent {
		end := wave + maxConcurrent
		if end > len(batches) {
			end = len(batches)
		}

		var g errgroup.Group
		for idx := wave; idx < end; idx++ {
			batchIndex := idx
			batch := batches[idx]
			g.Go(func() error {
				ok, recFailed, err := p.processBatch(ctx, entity, batch, transformFn)

				mu.Lock()
				if ok {
					processed += len(batch) - recFailed
					failed += recFailed
				} else {
					failed += len(batch)
					batchErrs = append(batchErrs, BatchError{BatchIndex: batchIndex, Err: err.Error()})
				}
				done := processed + failed
				if !p.dryRun {
					p.status.UpdateProgress(entity, processed, failed)
				}
				mu.Unlock()

				if progress != nil {
					progress(done, total)
				}
				return err
			})
		}
		// The wave barrier bounds peak load on the store; errors were already
		// recorded per batch, the first is only logged.
		if err := g.Wait(); err != nil {
			logger.Warnf("wave of %s batches finished with failures: %v", entity, err)
		}
	}

	return Result{
		Success:        len(batchErrs) == 0,
		TotalProcessed: processed,
		TotalFailed:    failed,
		Errors:         batchErrs,
	}, nil
}

// processBatch transforms every record and writes the survivors back as one
// transact call. Per-record transform failures are skipped, not fatal; a
// write failure fails the whole batch.
func (p *Processor) processBatch(ctx context.Context, entity string, batch []models.Record, transformFn TransformFunc) (ok bool, recFailed int, err error) {
	ops := make([]store.Op, 0, len(batch))
	for _, rec := range batch {
		transformed, terr := transformFn(rec)
		if terr != nil {
			logger.Warnf("skipping %s record %s: %v", entity, rec.ID(), terr)
			recFailed++
			continue
		}
		ops = append(ops, store.Upsert(entity, transformed))
	}

	if p.dryRun || len(ops) == 0 {
		return true, recFailed, nil
	}
	if err := p.store.Transact(ctx, ops); err != nil {
		return false, 0, fmt.Errorf("batch write failed: %w", err)
	}
	return true, recFailed, nil
}

func partition(records []models.Record, size int) [][]models.Record {
	var batches [][]models.Record
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}
