// Package store defines the narrow document-store contract the engine
// consumes, plus the MongoDB adapter and an in-memory implementation used by
// tests and dry runs.
package store

import (
	"context"

	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
)

// OpKind discriminates transact operations.
type OpKind string

const (
	OpUpsert OpKind = "upsert"
	OpDelete OpKind = "delete"
)

// Op is a single per-record operation inside a Transact call.
type Op struct {
	Kind   OpKind
	Entity string
	ID     string
	Fields models.Record
}

// Query is the filter/order/select descriptor for one entity. Order accepts
// the three shapes legacy call sites produce: a field name string, a list of
// field names, or a {"field": ..., "direction": ...} object.
type Query struct {
	Where  map[string]any
	Order  any
	Select []string
	Limit  int
}

// Store is the document-store collaborator. Transact is all-or-nothing: a
// returned error means none of the ops are assumed applied.
type Store interface {
	Query(ctx context.Context, entity string, q Query) ([]models.Record, error)
	Transact(ctx context.Context, ops []Op) error
	NewID() string
}

// Upsert builds an upsert op for a record, keyed by its id field.
func Upsert(entity string, rec models.Record) Op {
	return Op{Kind: OpUpsert, Entity: entity, ID: rec.ID(), Fields: rec}
}

// Delete builds a delete op.
func Delete(entity, id string) Op {
	return Op{Kind: OpDelete, Entity: entity, ID: id}
}
