package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchemaFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSchemaDefaults(t *testing.T) {
	registry, rules, err := LoadSchema("")
	require.NoError(t, err)
	assert.NotEmpty(t, registry.Mappings("products"))
	assert.Contains(t, rules.Rules("products").Required, "title")
}

func TestLoadSchemaMergesFileOverDefaults(t *testing.T) {
	path := writeSchemaFile(t, `
fieldMaps:
  suppliers:
    - legacy: suppliername
      canonical: supplierName
rules:
  suppliers:
    required:
      - supplierName
`)

	registry, rules, err := LoadSchema(path)
	require.NoError(t, err)

	maps := registry.Mappings("suppliers")
	require.Len(t, maps, 1)
	assert.Equal(t, "suppliername", maps[0].Legacy)
	assert.Equal(t, "supplierName", maps[0].Canonical)
	assert.Equal(t, []string{"supplierName"}, rules.Rules("suppliers").Required)

	// Built-in entities survive the merge.
	assert.NotEmpty(t, registry.Mappings("products"))
	assert.Contains(t, rules.Rules("orders").Required, "orderNumber")
}

func TestLoadSchemaEntityOverrideReplacesWhole(t *testing.T) {
	path := writeSchemaFile(t, `
fieldMaps:
  products:
    - legacy: name
      canonical: title
`)

	registry, _, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Len(t, registry.Mappings("products"), 1)
}

func TestLoadSchemaRejectsDuplicateMapping(t *testing.T) {
	path := writeSchemaFile(t, `
fieldMaps:
  products:
    - legacy: name
      canonical: title
    - legacy: name
      canonical: displayName
`)

	_, _, err := LoadSchema(path)
	assert.ErrorContains(t, err, "mapped twice")
}

func TestLoadSchemaMissingFile(t *testing.T) {
	_, _, err := LoadSchema(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read schema file")
}
