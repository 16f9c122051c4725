// Package compat is the compatibility layer that lets legacy and canonical
// field names coexist during a phased migration: outbound queries are
// rewritten to canonical names, inbound results get legacy aliases re-added
// until the entity's migration completes.
package compat

import (
	"sync"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/migrate"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/schema"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/store"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
)

// Middleware rewrites queries and results for entities not yet fully
// migrated. It also tracks operation outcomes so the safety-to-disable check
// can require a minimum success rate.
type Middleware struct {
	registry *schema.Registry
	status   *migrate.StatusStore

	mu       sync.Mutex
	outcomes map[string]*outcomeCounter
}

type outcomeCounter struct {
	total   int
	success int
}

func NewMiddleware(registry *schema.Registry, status *migrate.StatusStore) *Middleware {
	return &Middleware{
		registry: registry,
		status:   status,
		outcomes: make(map[string]*outcomeCounter),
	}
}

// ShouldApply is the single switch for the compatibility layer: true until
// the entity's migration status is completed.
func (m *Middleware) ShouldApply(entity string) bool {
	return !m.status.IsMigrated(entity)
}

// TransformQuery rewrites where keys, order fields, and select lists from
// legacy to canonical names. Unlike the record transformer this is a pure
// read-side rename: the legacy key is replaced, nothing else is touched.
func (m *Middleware) TransformQuery(entity string, q store.Query) store.Query {
	if !m.ShouldApply(entity) {
		return q
	}
	mappings := m.registry.Mappings(entity)
	if len(mappings) == 0 {
		return q
	}

	canonical := make(map[string]string, len(mappings))
	for _, fm := range mappings {
		canonical[fm.Legacy] = fm.Canonical
	}
	rename := func(field string) string {
		if c, ok := canonical[field]; ok {
			return c
		}
		return field
	}

	out := store.Query{Limit: q.Limit}

	if q.Where != nil {
		out.Where = make(map[string]any, len(q.Where))
		for k, v := range q.Where {
			out.Where[rename(k)] = v
		}
	}

	switch order := q.Order.(type) {
	case string:
		out.Order = rename(order)
	case []string:
		fields := make([]string, len(order))
		for i, f := range order {
			fields[i] = rename(f)
		}
		out.Order = fields
	case map[string]any:
		obj := make(map[string]any, len(order))
		for k, v := range order {
			obj[k] = v
		}
		if field, ok := obj["field"].(string); ok {
			obj["field"] = rename(field)
		}
		out.Order = obj
	default:
		out.Order = q.Order
	}

	if len(q.Select) > 0 {
		out.Select = make([]string, len(q.Select))
		for i, f := range q.Select {
			out.Select[i] = rename(f)
		}
	}

	return out
}

// TransformResults re-adds legacy aliases onto result records so call sites
// still reading legacy keys keep working mid-rollout. The canonical value is
// copied to the legacy key only when the legacy key is absent. Once the
// entity is migrated, results pass through unchanged.
func (m *Middleware) TransformResults(entity string, records []models.Record) []models.Record {
	if !m.ShouldApply(entity) {
		return records
	}
	mappings := m.registry.Mappings(entity)
	if len(mappings) == 0 {
		return records
	}

	out := make([]models.Record, len(records))
	for i, rec := range records {
		aliased := rec.Clone()
		for _, fm := range mappings {
			if val, ok := aliased[fm.Canonical]; ok && !aliased.Has(fm.Legacy) {
				aliased[fm.Legacy] = val
			}
		}
		out[i] = aliased
	}
	return out
}

// RecordOutcome tracks one middleware-mediated operation's outcome.
func (m *Middleware) RecordOutcome(entity string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.outcomes[entity]
	if c == nil {
		c = &outcomeCounter{}
		m.outcomes[entity] = c
	}
	c.total++
	if ok {
		c.success++
	}
}

// SuccessRate returns the entity's tracked operation success rate in [0,1].
// With no tracked operations it returns 1: an idle entity is not blocked
// from disabling the layer.
func (m *Middleware) SuccessRate(entity string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.outcomes[entity]
	if c == nil || c.total == 0 {
		return 1
	}
	return float64(c.success) / float64(c.total)
}
