package migrate

import (
	"fmt"
	"regexp"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/schema"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/utils"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Transformer applies field-map renaming, structured-field coercion, and
// rule validation to a single record.
type Transformer struct {
	registry *schema.Registry
	rules    schema.RuleSet
}

func NewTransformer(registry *schema.Registry, rules schema.RuleSet) *Transformer {
	return &Transformer{registry: registry, rules: rules}
}

// Transform maps a record from the legacy layout to the canonical one and
// validates it. The input record is never mutated. A value already present
// under the canonical key always wins over the legacy one, and legacy keys
// are stripped even when no copy happened. Every violated rule is reported;
// validation never short-circuits.
func (t *Transformer) Transform(entity string, rec models.Record) models.TransformResult {
	out := rec.Clone()

	for _, fm := range t.registry.Mappings(entity) {
		if val, ok := out[fm.Legacy]; ok {
			if !out.Has(fm.Canonical) {
				out[fm.Canonical] = val
			}
			delete(out, fm.Legacy)
		}
	}

	rules := t.rules.Rules(entity)
	for _, field := range rules.Structured {
		if raw, ok := out[field].(string); ok {
			out[field] = utils.ParseStructured(raw)
		}
	}

	errs := validate(out, rules)
	return models.TransformResult{Record: out, Valid: len(errs) == 0, Errors: errs}
}

func validate(rec models.Record, rules schema.EntityRules) []string {
	var errs []string

	for _, field := range rules.Required {
		if utils.IsEmpty(rec[field]) {
			errs = append(errs, fmt.Sprintf("missing required field %q", field))
		}
	}

	for _, field := range rules.NonNegative {
		if val, ok := rec[field]; ok {
			if n, numeric := utils.Numeric(val); numeric && n < 0 {
				errs = append(errs, fmt.Sprintf("field %q must be non-negative, got %v", field, val))
			}
		}
	}

	for _, field := range rules.Positive {
		if val, ok := rec[field]; ok {
			if n, numeric := utils.Numeric(val); numeric && n <= 0 {
				errs = append(errs, fmt.Sprintf("field %q must be positive, got %v", field, val))
			}
		}
	}

	for field, allowed := range rules.Enums {
		val, ok := rec[field].(string)
		if !ok || val == "" {
			continue
		}
		found := false
		for _, a := range allowed {
			if val == a {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Sprintf("field %q has invalid value %q, allowed: %v", field, val, allowed))
		}
	}

	for _, field := range rules.EmailFields {
		if val, ok := rec[field].(string); ok && val != "" && !emailPattern.MatchString(val) {
			errs = append(errs, fmt.Sprintf("field %q is not a valid email address: %q", field, val))
		}
	}

	return errs
}
