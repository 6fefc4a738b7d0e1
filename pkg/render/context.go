package render

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/anycost-tools/adaptorgen/pkg/config"
	"github.com/anycost-tools/adaptorgen/pkg/manifest"
	"github.com/anycost-tools/adaptorgen/pkg/tier"
)

// GeneratedFile is one rendered output, held in memory until the whole set
// passes structural validation. Never mutated after creation.
type GeneratedFile struct {
	// Path is relative to the generated project root.
	Path    string
	Content []byte
	// TemplateID records provenance.
	TemplateID string
}

// BuildContext derives the render context from the validated config and the
// resolved manifest. It is a pure function: identical inputs always produce
// an identical context.
//
// Section keys mirror the configuration document (provider, api, auth, data,
// cbf_mapping, the active tier section), predicate flags are surfaced as
// top-level booleans, and derived values (class-name stem, env prefix,
// project name) are precomputed so templates never re-derive them.
func BuildContext(cfg config.Config, m manifest.Manifest) (map[string]any, error) {
	ctx := map[string]any{
		"tier":         string(m.Tier),
		"dependencies": append([]string{}, cfg.Dependencies...),

		"provider_name":       cfg.Provider.Name,
		"display_name":        cfg.Provider.DisplayName,
		"service_type":        cfg.Provider.ServiceType,
		"provider_class_name": cfg.ClassName(),
		"provider_upper":      cfg.EnvPrefix(),
		"project_name":        cfg.Provider.Name + "-anycost-adaptor",
		"default_api_key_var": cfg.EnvPrefix() + "_API_KEY",
	}

	for key, section := range map[string]any{
		"provider":    cfg.Provider,
		"api":         cfg.API,
		"auth":        cfg.Auth,
		"data":        cfg.Data,
		"cbf_mapping": cfg.CBFMapping,
	} {
		decoded, err := sectionMap(section)
		if err != nil {
			return nil, fmt.Errorf("render: build context for %s: %w", key, err)
		}
		ctx[key] = decoded
	}

	// The section must match the resolved tier, not whichever section
	// happens to be present: an explicit override can coexist with extra
	// tier sections in the document.
	var tierSection any
	switch m.Tier {
	case tier.Credit:
		if cfg.Credit != nil {
			tierSection = cfg.Credit
		}
	case tier.Structured:
		if cfg.Structured != nil {
			tierSection = cfg.Structured
		}
	case tier.Enterprise:
		if cfg.Enterprise != nil {
			tierSection = cfg.Enterprise
		}
	}
	if tierSection != nil {
		decoded, err := sectionMap(tierSection)
		if err != nil {
			return nil, fmt.Errorf("render: build context for %s: %w", m.Tier.Section(), err)
		}
		ctx[m.Tier.Section()] = decoded
	}

	for flag, included := range m.Flags {
		ctx[flag] = included
	}

	// Map-shaped config values are precomputed as sorted item lists so
	// templates iterate deterministically instead of ranging over maps.
	ctx["endpoint_items"] = sortedItems(cfg.API.Endpoints)
	ctx["resource_tag_items"] = sortedItems(cfg.CBFMapping.ResourceTags)
	if m.Tier == tier.Credit && cfg.Credit != nil {
		ctx["model_pricing_items"] = sortedItems(cfg.Credit.ModelPricing)
	} else {
		ctx["model_pricing_items"] = sortedItems(map[string]float64{})
	}
	if m.Tier == tier.Enterprise && cfg.Enterprise != nil && cfg.Enterprise.CSVStructure != nil {
		ctx["cost_category_items"] = sortedItems(cfg.Enterprise.CSVStructure.CostCategories)
	} else {
		ctx["cost_category_items"] = sortedItems(map[string]int{})
	}

	return ctx, nil
}

// sortedItems flattens a map into name/value pairs ordered by name.
func sortedItems[V any](in map[string]V) []map[string]any {
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]map[string]any, 0, len(names))
	for _, name := range names {
		items = append(items, map[string]any{"name": name, "value": in[name]})
	}
	return items
}

// sectionMap converts a typed config section into the snake_case map shape
// templates address, reusing the yaml struct tags.
func sectionMap(section any) (map[string]any, error) {
	buf, err := yaml.Marshal(section)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(buf, &out); err != nil {
		return nil, err
	}
	return out, nil
}
