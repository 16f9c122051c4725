// Package migrate implements the migration engine: record transformation,
// relationship resolution, the per-entity status store, the batched
// concurrent processor, and run orchestration.
package migrate

import (
	"sync"
	"time"
)

// State is the lifecycle state of one entity's migration.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Status is one entity's migration status. Values are replaced whole on
// every update, never mutated field-by-field in place.
type Status struct {
	Entity          string
	State           State
	RecordsTotal    int
	RecordsMigrated int
	RecordsFailed   int
	StartedAt       *time.Time
	CompletedAt     *time.Time
	LastError       string
	Version         string
}

// Statistics aggregates status counts across tracked entities.
type Statistics struct {
	Total      int
	NotStarted int
	InProgress int
	Completed  int
	Failed     int
}

// StatusStore is the process-wide table of per-entity migration statuses.
// It is the single source of truth for whether compatibility shims are still
// needed. Construct one per process and pass it by reference.
type StatusStore struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

func NewStatusStore() *StatusStore {
	return &StatusStore{statuses: make(map[string]Status)}
}

// Get returns the entity's status and whether one is tracked.
func (s *StatusStore) Get(entity string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[entity]
	return st, ok
}

// Set replaces the entity's status wholesale.
func (s *StatusStore) Set(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[st.Entity] = st
}

// IsMigrated reports whether the entity's migration has completed.
func (s *StatusStore) IsMigrated(entity string) bool {
	st, ok := s.Get(entity)
	return ok && st.State == StateCompleted
}

// IsAllMigrated reports whether every listed entity has completed.
func (s *StatusStore) IsAllMigrated(entities []string) bool {
	for _, e := range entities {
		if !s.IsMigrated(e) {
			return false
		}
	}
	return true
}

// Statistics aggregates counts across all tracked entities.
func (s *StatusStore) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Statistics{Total: len(s.statuses)}
	for _, st := range s.statuses {
		switch st.State {
		case StateInProgress:
			stats.InProgress++
		case StateCompleted:
			stats.Completed++
		case StateFailed:
			stats.Failed++
		default:
			stats.NotStarted++
		}
	}
	return stats
}

// StartMigration transitions the entity to in_progress with a fresh counter
// set and records the start time.
func (s *StatusStore) StartMigration(entity string, total int) {
	now := time.Now()
	prev, _ := s.Get(entity)
	s.Set(Status{
		Entity:       entity,
		State:        StateInProgress,
		RecordsTotal: total,
		StartedAt:    &now,
		Version:      prev.Version,
	})
}

// UpdateProgress replaces the migrated/failed counters.
func (s *StatusStore) UpdateProgress(entity string, migrated, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statuses[entity]
	st.Entity = entity
	st.RecordsMigrated = migrated
	st.RecordsFailed = failed
	s.statuses[entity] = st
}

// CompleteMigration transitions the entity to completed.
func (s *StatusStore) CompleteMigration(entity string) {
	now := time.Now()
	st, _ := s.Get(entity)
	st.Entity = entity
	st.State = StateCompleted
	st.CompletedAt = &now
	st.LastError = ""
	s.Set(st)
}

// FailMigration transitions the entity to failed and records the error.
func (s *StatusStore) FailMigration(entity string, errMsg string) {
	now := time.Now()
	st, _ := s.Get(entity)
	st.Entity = entity
	st.State = StateFailed
	st.CompletedAt = &now
	st.LastError = errMsg
	s.Set(st)
}
