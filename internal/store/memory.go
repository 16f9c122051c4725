package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/utils"
)

// Memory is an in-process Store used by tests and dry runs. Queries return
// records in insertion order unless an order is requested.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]map[string]models.Record
	order map[string][]string

	// TransactErr, when set, is consulted before applying a Transact call so
	// tests can force batch failures.
	TransactErr func(ops []Op) error
}

func NewMemory() *Memory {
	return &Memory{
		data:  make(map[string]map[string]models.Record),
		order: make(map[string][]string),
	}
}

// Seed inserts records directly, bypassing Transact hooks.
func (m *Memory) Seed(entity string, recs ...models.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		m.put(entity, rec.Clone())
	}
}

func (m *Memory) put(entity string, rec models.Record) {
	if m.data[entity] == nil {
		m.data[entity] = make(map[string]models.Record)
	}
	id := rec.ID()
	if _, exists := m.data[entity][id]; !exists {
		m.order[entity] = append(m.order[entity], id)
	}
	m.data[entity][id] = rec
}

func (m *Memory) Query(_ context.Context, entity string, q Query) ([]models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []models.Record
	for _, id := range m.order[entity] {
		rec := m.data[entity][id]
		if !matches(rec, q.Where) {
			continue
		}
		results = append(results, rec.Clone())
	}

	if field, desc := orderField(q.Order); field != "" {
		sort.SliceStable(results, func(i, j int) bool {
			less := lessValues(results[i][field], results[j][field])
			if desc {
				return !less
			}
			return less
		})
	}
	if len(q.Select) > 0 {
		for i, rec := range results {
			projected := models.Record{"id": rec.ID()}
			for _, f := range q.Select {
				if v, ok := rec[f]; ok {
					projected[f] = v
				}
			}
			results[i] = projected
		}
	}
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

func (m *Memory) Transact(_ context.Context, ops []Op) error {
	if m.TransactErr != nil {
		if err := m.TransactErr(ops); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		switch op.Kind {
		case OpUpsert:
			if op.ID == "" {
				return fmt.Errorf("upsert into %s: missing record id", op.Entity)
			}
			m.put(op.Entity, op.Fields.Clone())
		case OpDelete:
			if m.data[op.Entity] != nil {
				delete(m.data[op.Entity], op.ID)
				ids := m.order[op.Entity][:0]
				for _, id := range m.order[op.Entity] {
					if id != op.ID {
						ids = append(ids, id)
					}
				}
				m.order[op.Entity] = ids
			}
		default:
			return fmt.Errorf("unknown op kind %q", op.Kind)
		}
	}
	return nil
}

func (m *Memory) NewID() string {
	return uuid.NewString()
}

// Count returns the number of records currently held for an entity.
func (m *Memory) Count(entity string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data[entity])
}

func matches(rec models.Record, where map[string]any) bool {
	for k, want := range where {
		got, ok := rec[k]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func orderField(order any) (string, bool) {
	switch o := order.(type) {
	case string:
		return o, false
	case []string:
		if len(o) > 0 {
			return o[0], false
		}
	case map[string]any:
		field, _ := o["field"].(string)
		dir, _ := o["direction"].(string)
		return field, dir == "desc"
	}
	return "", false
}

func lessValues(a, b any) bool {
	af, aok := utils.Numeric(a)
	bf, bok := utils.Numeric(b)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}
