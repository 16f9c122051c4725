package backup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/schema"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/store"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/logger"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/utils"
)

var (
	// ErrNoBackupFound is returned when a restore or clear targets an entity
	// with no snapshot.
	ErrNoBackupFound = errors.New("no backup found")
	// ErrIntegrityCheckFailed is returned when a snapshot's recomputed
	// checksum does not match the stored one.
	ErrIntegrityCheckFailed = errors.New("integrity check failed")
	// ErrBackupInvalid is returned when a requested pre-backup validation
	// finds records violating the entity's required-field set.
	ErrBackupInvalid = errors.New("backup validation failed")
)

// restorePointSuffix marks the distinguished snapshot taken of the current
// state just before a restore, so a restore can itself be undone.
const restorePointSuffix = ":restore_point"

// defaultRestoreBatch bounds how many records go into one transact call
// during a restore, so a very large restore never exceeds a single write
// operation's size limit.
const defaultRestoreBatch = 100

// Metadata describes one snapshot.
type Metadata struct {
	Version     string
	Description string
	CreatedAt   time.Time
	RecordCount int
	Checksum    string
}

// Snapshot is a full copy of an entity's records plus metadata. Later
// snapshots of the same entity supersede earlier ones.
type Snapshot struct {
	Entity   string
	Records  []models.Record
	Metadata Metadata
}

// HistoryEntry is one append-only rollback history record.
type HistoryEntry struct {
	Timestamp time.Time
	Version   string
	Action    string
	Success   bool
	Error     string
}

// Options controls CreateBackup.
type Options struct {
	Version           string
	Description       string
	ValidateIntegrity bool
}

// RestoreOptions controls RestoreFromBackup.
type RestoreOptions struct {
	ValidateBeforeRestore bool
	CreateRestorePoint    bool
}

// Verification is the non-destructive backup health check.
type Verification struct {
	Exists bool
	Valid  bool
	Issues []string
}

// EmergencyResult is the outcome of an emergency rollback across entities.
type EmergencyResult struct {
	Success bool
	Reason  string
	Errors  map[string]string
}

// Manager keeps entity snapshots and rollback history. The snapshot table is
// replaced whole-value under one mutex; no lock is held across a store call.
type Manager struct {
	store store.Store
	rules schema.RuleSet

	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	history   map[string][]HistoryEntry

	restoreBatch int
}

func NewManager(st store.Store, rules schema.RuleSet) *Manager {
	return &Manager{
		store:        st,
		rules:        rules,
		snapshots:    make(map[string]*Snapshot),
		history:      make(map[string][]HistoryEntry),
		restoreBatch: defaultRestoreBatch,
	}
}

// CreateBackup snapshots the entity's current records under the entity key,
// superseding any earlier snapshot. With ValidateIntegrity set it fails if
// any record violates the entity's required-field set.
func (m *Manager) CreateBackup(ctx context.Context, entity string, opts Options) error {
	records, err := m.store.Query(ctx, entity, store.Query{})
	if err != nil {
		return fmt.Errorf("fetch %s records for backup: %w", entity, err)
	}

	if opts.ValidateIntegrity {
		if issues := m.requiredFieldIssues(entity, records); len(issues) > 0 {
			return fmt.Errorf("%w for %s: %s", ErrBackupInvalid, entity, issues[0])
		}
	}

	snap := &Snapshot{
		Entity:  entity,
		Records: cloneAll(records),
		Metadata: Metadata{
			Version:     opts.Version,
			Description: opts.Description,
			CreatedAt:   time.Now(),
			RecordCount: len(records),
			Checksum:    Checksum(records),
		},
	}

	m.mu.Lock()
	m.snapshots[entity] = snap
	m.mu.Unlock()

	logger.Infof("Created backup for %s: %d records, checksum %.12s", entity, len(records), snap.Metadata.Checksum)
	return nil
}

// RestoreFromBackup replaces the entity's current records with the snapshot.
// Deletes and re-writes happen in fixed-size batches. The rollback history
// gets an entry whether the restore succeeded or not.
func (m *Manager) RestoreFromBackup(ctx context.Context, entity string, opts RestoreOptions) error {
	snap := m.snapshot(entity)
	if snap == nil {
		return fmt.Errorf("%w for entity %s", ErrNoBackupFound, entity)
	}

	if opts.ValidateBeforeRestore {
		if got := Checksum(snap.Records); got != snap.Metadata.Checksum {
			m.appendHistory(entity, snap.Metadata.Version, "restore", false, "checksum mismatch")
			return fmt.Errorf("%w: snapshot checksum mismatch for %s", ErrIntegrityCheckFailed, entity)
		}
	}

	if opts.CreateRestorePoint {
		current, err := m.store.Query(ctx, entity, store.Query{})
		if err != nil {
			return fmt.Errorf("snapshot current %s state for restore point: %w", entity, err)
		}
		point := &Snapshot{
			Entity:  entity,
			Records: cloneAll(current),
			Metadata: Metadata{
				Version:     snap.Metadata.Version,
				Description: "pre-restore state",
				CreatedAt:   time.Now(),
				RecordCount: len(current),
				Checksum:    Checksum(current),
			},
		}
		m.mu.Lock()
		m.snapshots[entity+restorePointSuffix] = point
		m.mu.Unlock()
	}

	if err := m.replaceRecords(ctx, entity, snap.Records); err != nil {
		m.appendHistory(entity, snap.Metadata.Version, "restore", false, err.Error())
		return err
	}

	m.appendHistory(entity, snap.Metadata.Version, "restore", true, "")
	logger.Infof("Restored %s from backup: %d records", entity, len(snap.Records))
	return nil
}

// RestoreFromRestorePoint undoes a restore using the distinguished
// pre-restore snapshot.
func (m *Manager) RestoreFromRestorePoint(ctx context.Context, entity string) error {
	point := m.snapshot(entity + restorePointSuffix)
	if point == nil {
		return fmt.Errorf("%w: no restore point for entity %s", ErrNoBackupFound, entity)
	}
	if err := m.replaceRecords(ctx, entity, point.Records); err != nil {
		m.appendHistory(entity, point.Metadata.Version, "restore_point", false, err.Error())
		return err
	}
	m.appendHistory(entity, point.Metadata.Version, "restore_point", true, "")
	return nil
}

// VerifyBackup is the non-destructive health check run before any restore:
// it recomputes the snapshot checksum, validates required fields, and
// compares the snapshot against the live record set to detect drift.
func (m *Manager) VerifyBackup(ctx context.Context, entity string) Verification {
	snap := m.snapshot(entity)
	if snap == nil {
		return Verification{Exists: false, Valid: false, Issues: []string{"no backup exists"}}
	}

	v := Verification{Exists: true, Valid: true}
	if got := Checksum(snap.Records); got != snap.Metadata.Checksum {
		v.Valid = false
		v.Issues = append(v.Issues, "snapshot corrupted: stored checksum does not match record set")
	}
	if issues := m.requiredFieldIssues(entity, snap.Records); len(issues) > 0 {
		v.Valid = false
		v.Issues = append(v.Issues, issues...)
	}

	current, err := m.store.Query(ctx, entity, store.Query{})
	if err != nil {
		v.Valid = false
		v.Issues = append(v.Issues, fmt.Sprintf("could not read live data: %v", err))
		return v
	}
	if Checksum(current) != snap.Metadata.Checksum {
		v.Valid = false
		v.Issues = append(v.Issues, "checksum mismatch: live data has drifted from the backup")
	}
	return v
}

// ListBackups returns the metadata of every held snapshot, restore points
// included, sorted by entity key.
func (m *Manager) ListBackups() map[string]Metadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Metadata, len(m.snapshots))
	for key, snap := range m.snapshots {
		out[key] = snap.Metadata
	}
	return out
}

// RollbackHistory returns the entity's append-only history, oldest first.
func (m *Manager) RollbackHistory(entity string) []HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]HistoryEntry, len(m.history[entity]))
	copy(out, m.history[entity])
	return out
}

// ClearBackup drops the entity's snapshot (and restore point). Without force
// it refuses to clear a snapshot that is the only copy of drifted data.
func (m *Manager) ClearBackup(ctx context.Context, entity string, force bool) error {
	snap := m.snapshot(entity)
	if snap == nil {
		return fmt.Errorf("%w for entity %s", ErrNoBackupFound, entity)
	}
	if !force {
		current, err := m.store.Query(ctx, entity, store.Query{})
		if err != nil {
			return fmt.Errorf("check live %s data before clear: %w", entity, err)
		}
		if Checksum(current) != snap.Metadata.Checksum {
			return fmt.Errorf("live %s data differs from backup; use force to clear anyway", entity)
		}
	}
	m.mu.Lock()
	delete(m.snapshots, entity)
	delete(m.snapshots, entity+restorePointSuffix)
	m.mu.Unlock()
	return nil
}

// EmergencyRollback restores each entity from a fresh emergency backup,
// skipping non-essential validation for speed. Per-entity failures are
// collected; Success requires every entity to roll back cleanly.
func (m *Manager) EmergencyRollback(ctx context.Context, reason string, entities []string) EmergencyResult {
	result := EmergencyResult{Success: true, Reason: reason, Errors: make(map[string]string)}
	logger.Warnf("EMERGENCY ROLLBACK: %s (entities: %v)", reason, entities)

	for _, entity := range entities {
		if err := m.emergencyRollbackEntity(ctx, entity); err != nil {
			result.Success = false
			result.Errors[entity] = err.Error()
			m.appendHistory(entity, "emergency", "emergency_rollback", false, err.Error())
			continue
		}
		m.appendHistory(entity, "emergency", "emergency_rollback", true, "")
	}
	return result
}

func (m *Manager) emergencyRollbackEntity(ctx context.Context, entity string) error {
	if m.snapshot(entity) == nil {
		return fmt.Errorf("%w for entity %s", ErrNoBackupFound, entity)
	}
	// The restore point keeps the rollback itself recoverable; every other
	// non-essential check is skipped for speed.
	return m.RestoreFromBackup(ctx, entity, RestoreOptions{ValidateBeforeRestore: false, CreateRestorePoint: true})
}

// replaceRecords deletes every current record for the entity and re-writes
// the snapshot records, both in fixed-size batches.
func (m *Manager) replaceRecords(ctx context.Context, entity string, records []models.Record) error {
	current, err := m.store.Query(ctx, entity, store.Query{})
	if err != nil {
		return fmt.Errorf("fetch current %s records: %w", entity, err)
	}

	var deletes []store.Op
	for _, rec := range current {
		deletes = append(deletes, store.Delete(entity, rec.ID()))
	}
	if err := m.transactBatched(ctx, deletes); err != nil {
		return fmt.Errorf("clear %s records: %w", entity, err)
	}

	var upserts []store.Op
	for _, rec := range records {
		upserts = append(upserts, store.Upsert(entity, rec.Clone()))
	}
	if err := m.transactBatched(ctx, upserts); err != nil {
		return fmt.Errorf("rewrite %s records: %w", entity, err)
	}
	return nil
}

func (m *Manager) transactBatched(ctx context.Context, ops []store.Op) error {
	for start := 0; start < len(ops); start += m.restoreBatch {
		end := start + m.restoreBatch
		if end > len(ops) {
			end = len(ops)
		}
		if err := m.store.Transact(ctx, ops[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) snapshot(key string) *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots[key]
}

func (m *Manager) appendHistory(entity, version, action string, success bool, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[entity] = append(m.history[entity], HistoryEntry{
		Timestamp: time.Now(),
		Version:   version,
		Action:    action,
		Success:   success,
		Error:     errMsg,
	})
}

func (m *Manager) requiredFieldIssues(entity string, records []models.Record) []string {
	required := m.rules.Rules(entity).Required
	if len(required) == 0 {
		return nil
	}
	var issues []string
	for _, rec := range records {
		for _, field := range required {
			if utils.IsEmpty(rec[field]) {
				issues = append(issues, fmt.Sprintf("record %s missing required field %q", rec.ID(), field))
			}
		}
	}
	sort.Strings(issues)
	return issues
}

func cloneAll(records []models.Record) []models.Record {
	out := make([]models.Record, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}
