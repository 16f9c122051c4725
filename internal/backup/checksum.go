// Package backup implements checksummed entity snapshots, verified restore,
// rollback history, and the emergency rollback path.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
)

// Checksum fingerprints a record set. Records are serialized sorted by id
// (encoding/json emits map keys sorted), so the result is stable across
// process restarts and invariant under record insertion order, but changes
// whenever any field value changes.
func Checksum(records []models.Record) string {
	sorted := make([]models.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })

	h := sha256.New()
	for _, rec := range sorted {
		data, err := json.Marshal(rec)
		if err != nil {
			// Store records are JSON-decodable values by construction; an
			// unmarshalable one is a programmer error upstream.
			panic(err)
		}
		h.Write(data)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
