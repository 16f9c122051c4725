// Package models holds the shared data shapes the engine passes between
// its components: open document records and transform verdicts.
package models

// Record is an open mapping from field name to value, as stored in the
// document store. The engine only ever holds transient copies; the store
// owns the persisted data.
type Record map[string]any

// ID returns the record's stable identifier, or "" if unset.
func (r Record) ID() string {
	if v, ok := r["id"].(string); ok {
		return v
	}
	return ""
}

// Clone returns a shallow copy so transforms never mutate the caller's map.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether the field is present, regardless of value.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// TransformResult is the verdict for a single record transform. Validation
// failures are accumulated as data; callers decide record disposition.
type TransformResult struct {
	Record Record
	Valid  bool
	Errors []string
}
