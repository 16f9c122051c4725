package schema

// Reference declares a denormalized string field (a name copied from another
// entity) and the foreign-key field it should be rewritten into.
type Reference struct {
	Field     string `yaml:"field"`
	IDField   string `yaml:"idField"`
	RefEntity string `yaml:"refEntity"`
}

// EntityRules is the per-entity validation rule table applied by the
// transformer and the integrity auditor.
type EntityRules struct {
	Required    []string            `yaml:"required"`
	NonNegative []string            `yaml:"nonNegative"`
	Positive    []string            `yaml:"positive"`
	Enums       map[string][]string `yaml:"enums"`
	EmailFields []string            `yaml:"emailFields"`
	Structured  []string            `yaml:"structured"`
	Unique      []string            `yaml:"unique"`
	References  []Reference         `yaml:"references"`
}

// RuleSet maps entity name to its rule table.
type RuleSet map[string]EntityRules

// Rules returns the entity's rule table; the zero value for untracked ones.
func (rs RuleSet) Rules(entity string) EntityRules {
	return rs[entity]
}

// DefaultRules returns the built-in rule tables for the POS dataset.
func DefaultRules() RuleSet {
	return RuleSet{
		"products": {
			Required:    []string{"title"},
			NonNegative: []string{"price", "cost", "salePrice", "stock"},
			Enums:       map[string][]string{"status": {"active", "draft", "archived"}},
			Structured:  []string{"metafields", "options"},
			Unique:      []string{"sku"},
			References: []Reference{
				{Field: "brand", IDField: "brandId", RefEntity: "brands"},
				{Field: "category", IDField: "categoryId", RefEntity: "categories"},
				{Field: "vendor", IDField: "vendorId", RefEntity: "vendors"},
				{Field: "collection", IDField: "collectionId", RefEntity: "collections"},
			},
		},
		"orders": {
			Required:    []string{"orderNumber", "total"},
			NonNegative: []string{"subtotal", "total", "taxAmount", "discountAmount"},
			Enums: map[string][]string{
				"status":            {"pending", "processing", "completed", "cancelled"},
				"paymentStatus":     {"unpaid", "partial", "paid", "refunded"},
				"fulfillmentStatus": {"unfulfilled", "partial", "fulfilled"},
			},
			EmailFields: []string{"customerEmail"},
			Structured:  []string{"shippingAddress"},
			Unique:      []string{"orderNumber"},
		},
		"items": {
			Required:    []string{"sku"},
			NonNegative: []string{"onHand", "available", "committed"},
			Positive:    []string{"price"},
		},
		"customers": {
			Required:    []string{"name"},
			EmailFields: []string{"email"},
			Structured:  []string{"defaultAddress"},
			Unique:      []string{"email"},
		},
		"collections": {
			Required:    []string{"name"},
			NonNegative: []string{"sortOrder"},
		},
	}
}
