package migrate

import (
	"context"
	"fmt"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/schema"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/store"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/logger"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
)

// Lookups maps a referenced entity kind to its name→id table.
type Lookups map[string]map[string]string

// Resolver rewrites denormalized string references (a brand name copied into
// the record) into foreign-key id fields, using lookup tables built from the
// referenced entities.
type Resolver struct {
	store store.Store
	rules schema.RuleSet
}

func NewResolver(st store.Store, rules schema.RuleSet) *Resolver {
	return &Resolver{store: st, rules: rules}
}

// BuildLookups scans every entity kind referenced by any rule table and
// builds its name→id table in one query each.
func (r *Resolver) BuildLookups(ctx context.Context) (Lookups, error) {
	kinds := make(map[string]bool)
	for _, rules := range r.rules {
		for _, ref := range rules.References {
			kinds[ref.RefEntity] = true
		}
	}

	lookups := make(Lookups, len(kinds))
	for kind := range kinds {
		recs, err := r.store.Query(ctx, kind, store.Query{})
		if err != nil {
			return nil, fmt.Errorf("build lookup for %s: %w", kind, err)
		}
		table := make(map[string]string, len(recs))
		for _, rec := range recs {
			if name, ok := rec["name"].(string); ok && name != "" && rec.ID() != "" {
				table[name] = rec.ID()
			}
		}
		lookups[kind] = table
	}
	return lookups, nil
}

// Resolve rewrites each resolvable reference field on a copy of the record:
// on a lookup hit the id field is written and the name field removed; on a
// miss the name field is left untouched. A miss is a later-fixable gap, not
// an error.
func (r *Resolver) Resolve(entity string, rec models.Record, lookups Lookups) models.Record {
	refs := r.rules.Rules(entity).References
	if len(refs) == 0 {
		return rec
	}
	out := rec.Clone()
	for _, ref := range refs {
		name, ok := out[ref.Field].(string)
		if !ok || name == "" {
			continue
		}
		if out.Has(ref.IDField) {
			// Already normalized; just drop the stale name copy.
			delete(out, ref.Field)
			continue
		}
		id, hit := lookups[ref.RefEntity][name]
		if !hit {
			logger.Warnf("unresolved %s reference %q on %s %s", ref.RefEntity, name, entity, out.ID())
			continue
		}
		out[ref.IDField] = id
		delete(out, ref.Field)
	}
	return out
}
