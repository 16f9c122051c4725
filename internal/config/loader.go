package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/schema"
)

// SchemaFile is the YAML shape of an external schema-config file. Entities
// present in the file replace the built-in definition for that entity;
// absent entities keep the defaults.
type SchemaFile struct {
	FieldMaps map[string][]schema.FieldMap  `yaml:"fieldMaps"`
	Rules     map[string]schema.EntityRules `yaml:"rules"`
}

// LoadSchema returns the field-map registry and rule set, merging an
// optional YAML schema file over the built-in tables. An empty path returns
// the defaults untouched.
func LoadSchema(path string) (*schema.Registry, schema.RuleSet, error) {
	registry := schema.DefaultRegistry()
	rules := schema.DefaultRules()
	if path == "" {
		return registry, rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read schema file %q: %w", path, err)
	}

	var file SchemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse schema file %q: %w", path, err)
	}

	if len(file.FieldMaps) > 0 {
		merged := make(map[string][]schema.FieldMap)
		for _, entity := range registry.Entities() {
			merged[entity] = registry.Mappings(entity)
		}
		for entity, maps := range file.FieldMaps {
			merged[entity] = maps
		}
		registry, err = schema.Build(merged)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid schema file %q: %w", path, err)
		}
	}

	for entity, entityRules := range file.Rules {
		rules[entity] = entityRules
	}

	return registry, rules, nil
}
