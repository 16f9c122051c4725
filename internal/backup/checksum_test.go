package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
)

func TestChecksumOrderIndependent(t *testing.T) {
	a := models.Record{"id": "1", "title": "Ring", "price": 10.0}
	b := models.Record{"id": "2", "title": "Chain", "price": 25.0}
	c := models.Record{"id": "3", "title": "Band", "price": 5.0}

	sum1 := Checksum([]models.Record{a, b, c})
	sum2 := Checksum([]models.Record{c, a, b})
	assert.Equal(t, sum1, sum2, "checksum must be invariant under record permutation")
}

func TestChecksumSensitiveToValues(t *testing.T) {
	base := []models.Record{{"id": "1", "title": "Ring", "price": 10.0}}
	changed := []models.Record{{"id": "1", "title": "Ring", "price": 11.0}}
	assert.NotEqual(t, Checksum(base), Checksum(changed))
}

func TestChecksumSensitiveToMembership(t *testing.T) {
	two := []models.Record{{"id": "1", "title": "Ring"}, {"id": "2", "title": "Chain"}}
	one := []models.Record{{"id": "1", "title": "Ring"}}
	assert.NotEqual(t, Checksum(two), Checksum(one))
}

func TestChecksumStableAcrossCalls(t *testing.T) {
	recs := []models.Record{{"id": "1", "nested": map[string]any{"a": 1.0, "b": 2.0}}}
	assert.Equal(t, Checksum(recs), Checksum(recs))
}

func TestChecksumEmptySet(t *testing.T) {
	assert.NotEmpty(t, Checksum(nil))
	assert.Equal(t, Checksum(nil), Checksum([]models.Record{}))
}
