package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/schema"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/store"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
)

func newTestResolver(t *testing.T) (*Resolver, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.Seed("brands",
		models.Record{"id": "b1", "name": "Acme"},
		models.Record{"id": "b2", "name": "Globex"},
	)
	mem.Seed("vendors", models.Record{"id": "v1", "name": "North Supply"})
	return NewResolver(mem, schema.DefaultRules()), mem
}

func TestBuildLookups(t *testing.T) {
	r, _ := newTestResolver(t)

	lookups, err := r.BuildLookups(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "b1", lookups["brands"]["Acme"])
	assert.Equal(t, "b2", lookups["brands"]["Globex"])
	assert.Equal(t, "v1", lookups["vendors"]["North Supply"])
	// Referenced kinds with no records still get an empty table.
	assert.NotNil(t, lookups["categories"])
}

func TestResolveRewritesReference(t *testing.T) {
	r, _ := newTestResolver(t)
	lookups, err := r.BuildLookups(context.Background())
	require.NoError(t, err)

	out := r.Resolve("products", models.Record{"id": "p1", "brand": "Acme"}, lookups)
	assert.Equal(t, "b1", out["brandId"])
	assert.False(t, out.Has("brand"), "resolved name field is removed")
}

func TestResolveMissLeavesFieldUntouched(t *testing.T) {
	r, _ := newTestResolver(t)
	lookups, err := r.BuildLookups(context.Background())
	require.NoError(t, err)

	out := r.Resolve("products", models.Record{"id": "p1", "brand": "Unknown Brand"}, lookups)
	assert.Equal(t, "Unknown Brand", out["brand"], "an unresolvable reference is not an error")
	assert.False(t, out.Has("brandId"))
}

func TestResolveExistingIDWins(t *testing.T) {
	r, _ := newTestResolver(t)
	lookups, err := r.BuildLookups(context.Background())
	require.NoError(t, err)

	out := r.Resolve("products", models.Record{"id": "p1", "brand": "Acme", "brandId": "b9"}, lookups)
	assert.Equal(t, "b9", out["brandId"])
	assert.False(t, out.Has("brand"))
}

func TestResolveEntityWithoutReferences(t *testing.T) {
	r, _ := newTestResolver(t)
	rec := models.Record{"id": "c1", "name": "Jane"}
	out := r.Resolve("customers", rec, Lookups{})
	assert.Equal(t, rec, out)
}
