package manifest

import (
	"github.com/anycost-tools/adaptorgen/pkg/config"
	"github.com/anycost-tools/adaptorgen/pkg/tier"
)

// predicate is a named inclusion rule for one conditional fragment. Every
// predicate is total over a validated config: a nil tier section simply
// yields false.
type predicate struct {
	name     string
	fragment string
	fn       func(config.Config) bool
}

func predicatesFor(kind tier.Kind) []predicate {
	switch kind {
	case tier.Credit:
		return creditPredicates
	case tier.Structured:
		return structuredPredicates
	case tier.Enterprise:
		return enterprisePredicates
	default:
		return nil
	}
}

var creditPredicates = []predicate{
	{
		name:     "has_discount_rate",
		fragment: "fragments/credit/discount_rate.py.tpl",
		fn: func(cfg config.Config) bool {
			return cfg.Credit != nil && cfg.Credit.DiscountRate > 0
		},
	},
	{
		name:     "has_token_pools",
		fragment: "fragments/credit/token_pools.py.tpl",
		fn: func(cfg config.Config) bool {
			return cfg.Credit != nil && len(cfg.Credit.TokenPools) > 0
		},
	},
	{
		name:     "has_model_pricing",
		fragment: "fragments/credit/model_pricing.py.tpl",
		fn: func(cfg config.Config) bool {
			return cfg.Credit != nil && len(cfg.Credit.ModelPricing) > 0
		},
	},
}

var structuredPredicates = []predicate{
	{
		name:     "has_line_type_field",
		fragment: "fragments/structured/line_types.py.tpl",
		fn: func(cfg config.Config) bool {
			return cfg.Structured != nil && cfg.Structured.LineTypeField != ""
		},
	},
	{
		name:     "has_resource_id_template",
		fragment: "fragments/structured/resource_template.py.tpl",
		fn: func(cfg config.Config) bool {
			return cfg.Structured != nil && cfg.Structured.ResourceIDTemplate != ""
		},
	},
}

var enterprisePredicates = []predicate{
	{
		name:     "has_csv_structure",
		fragment: "fragments/enterprise/csv_structure.py.tpl",
		fn: func(cfg config.Config) bool {
			return cfg.Enterprise != nil && cfg.Enterprise.CSVStructure != nil
		},
	},
	{
		name:     "has_nested_response",
		fragment: "fragments/enterprise/nested_response.py.tpl",
		fn: func(cfg config.Config) bool {
			return cfg.Enterprise != nil && cfg.Enterprise.NestedResponse
		},
	},
	{
		name:     "has_pricing_rules",
		fragment: "fragments/enterprise/pricing_rules.py.tpl",
		fn: func(cfg config.Config) bool {
			return cfg.Enterprise != nil && len(cfg.Enterprise.PricingRules) > 0
		},
	},
	{
		name:     "has_fixed_costs",
		fragment: "fragments/enterprise/fixed_costs.py.tpl",
		fn: func(cfg config.Config) bool {
			return cfg.Enterprise != nil && len(cfg.Enterprise.FixedCosts) > 0
		},
	},
}
