package config

import (
	"fmt"
	"os"
	"strings"
)

// Load reads and validates a YAML configuration file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, perr := Parse(raw)
	if perr != nil {
		return Config{}, perr
	}
	return cfg, nil
}

// normalize reshapes legacy document layouts into the unified schema:
//
//   - slash-keyed cbf_mapping keys ("time/usage_start") become flat keys
//   - a provider-specific "<name>_config" section becomes credit_config when
//     it carries credit-style keys
//   - a top-level "endpoints" map moves under api.endpoints
//   - tierN aliases ("tier1_credit") collapse to the canonical tier names
func normalize(raw map[string]any) map[string]any {
	data := make(map[string]any, len(raw))
	for k, v := range raw {
		data[k] = v
	}

	if mapping, ok := data["cbf_mapping"].(map[string]any); ok {
		flat := make(map[string]any, len(mapping))
		for key, value := range mapping {
			flat[strings.ReplaceAll(key, "/", "_")] = value
		}
		data["cbf_mapping"] = flat
	}

	providerName := ""
	if provider, ok := data["provider"].(map[string]any); ok {
		providerName, _ = provider["name"].(string)
	}
	legacyKey := providerName + "_config"
	if legacy, ok := data[legacyKey].(map[string]any); ok && providerName != "" {
		if _, exists := data["credit_config"]; !exists && hasCreditKeys(legacy) {
			data["credit_config"] = legacy
			delete(data, legacyKey)
		}
	}

	if endpoints, ok := data["endpoints"]; ok {
		if api, ok := data["api"].(map[string]any); ok {
			api["endpoints"] = endpoints
			delete(data, "endpoints")
		}
	}

	if tier, ok := data["tier"].(string); ok {
		data["tier"] = canonicalTier(tier)
	}

	return data
}

func hasCreditKeys(section map[string]any) bool {
	for _, key := range []string{"credit_to_usd", "credits_endpoint", "token_pools"} {
		if _, ok := section[key]; ok {
			return true
		}
	}
	return false
}

func canonicalTier(tier string) string {
	switch strings.TrimSpace(tier) {
	case "tier1_credit":
		return "credit"
	case "tier2_structured":
		return "structured"
	case "tier3_enterprise":
		return "enterprise"
	default:
		return strings.TrimSpace(tier)
	}
}
