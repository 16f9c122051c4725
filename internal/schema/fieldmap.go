// Package schema holds the static description of the legacy and canonical
// field layouts: per-entity legacy→canonical field maps and the validation
// rule tables built from the same layout. Loaded once at startup and
// read-only for the life of the process.
package schema

import "fmt"

// FieldMap is one legacy→canonical rename for an entity.
type FieldMap struct {
	Legacy    string `yaml:"legacy"`
	Canonical string `yaml:"canonical"`
}

// Registry is the per-entity table of field maps. Immutable after Build.
type Registry struct {
	maps     map[string][]FieldMap
	entities []string
}

// Build validates and freezes a set of field maps. It rejects a canonical
// key mapped twice for the same entity, and the same for legacy keys.
func Build(maps map[string][]FieldMap) (*Registry, error) {
	entities := make([]string, 0, len(maps))
	for entity, fms := range maps {
		legacySeen := make(map[string]bool, len(fms))
		canonicalSeen := make(map[string]bool, len(fms))
		for _, fm := range fms {
			if fm.Legacy == "" || fm.Canonical == "" {
				return nil, fmt.Errorf("entity %s: empty field name in mapping %+v", entity, fm)
			}
			if legacySeen[fm.Legacy] {
				return nil, fmt.Errorf("entity %s: legacy key %q mapped twice", entity, fm.Legacy)
			}
			if canonicalSeen[fm.Canonical] {
				return nil, fmt.Errorf("entity %s: canonical key %q mapped twice", entity, fm.Canonical)
			}
			legacySeen[fm.Legacy] = true
			canonicalSeen[fm.Canonical] = true
		}
		entities = append(entities, entity)
	}
	return &Registry{maps: maps, entities: entities}, nil
}

// Mappings returns the ordered field maps for an entity, nil if untracked.
func (r *Registry) Mappings(entity string) []FieldMap {
	return r.maps[entity]
}

// Entities lists every entity the registry knows about.
func (r *Registry) Entities() []string {
	out := make([]string, len(r.entities))
	copy(out, r.entities)
	return out
}

// DefaultRegistry returns the built-in field maps for the POS dataset.
func DefaultRegistry() *Registry {
	r, err := Build(defaultFieldMaps())
	if err != nil {
		// The built-in tables are compile-time data; a collision here is a
		// programmer error.
		panic(err)
	}
	return r
}

func defaultFieldMaps() map[string][]FieldMap {
	return map[string][]FieldMap{
		"products": {
			{Legacy: "name", Canonical: "title"},
			{Legacy: "createdat", Canonical: "createdAt"},
			{Legacy: "updatedat", Canonical: "updatedAt"},
			{Legacy: "saleprice", Canonical: "salePrice"},
			{Legacy: "costprice", Canonical: "cost"},
			{Legacy: "stockqty", Canonical: "stock"},
			{Legacy: "publishedat", Canonical: "publishedAt"},
		},
		"orders": {
			{Legacy: "ordernumber", Canonical: "orderNumber"},
			{Legacy: "referid", Canonical: "referenceId"},
			{Legacy: "createdat", Canonical: "createdAt"},
			{Legacy: "updatedat", Canonical: "updatedAt"},
			{Legacy: "taxamt", Canonical: "taxAmount"},
			{Legacy: "discamt", Canonical: "discountAmount"},
			{Legacy: "custname", Canonical: "customerName"},
			{Legacy: "custemail", Canonical: "customerEmail"},
			{Legacy: "fulfill", Canonical: "fulfillmentStatus"},
			{Legacy: "paymentstatus", Canonical: "paymentStatus"},
		},
		"items": {
			{Legacy: "productid", Canonical: "productId"},
			{Legacy: "variantname", Canonical: "variantTitle"},
			{Legacy: "createdat", Canonical: "createdAt"},
			{Legacy: "updatedat", Canonical: "updatedAt"},
			{Legacy: "onhand", Canonical: "onHand"},
			{Legacy: "reorderlevel", Canonical: "reorderLevel"},
		},
		"customers": {
			{Legacy: "createdat", Canonical: "createdAt"},
			{Legacy: "updatedat", Canonical: "updatedAt"},
			{Legacy: "phonenumber", Canonical: "phone"},
			{Legacy: "defaultaddress", Canonical: "defaultAddress"},
		},
		"collections": {
			{Legacy: "createdat", Canonical: "createdAt"},
			{Legacy: "updatedat", Canonical: "updatedAt"},
			{Legacy: "sortorder", Canonical: "sortOrder"},
			{Legacy: "isactive", Canonical: "isActive"},
		},
	}
}
