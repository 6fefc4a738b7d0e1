package config

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// tierNames is the closed set of values the explicit tier override accepts,
// after alias normalization.
var tierNames = map[string]string{
	"credit":     "credit_config",
	"structured": "structured_config",
	"enterprise": "enterprise_config",
}

// document mirrors the raw configuration layout. Pointer sections record
// presence so validation can distinguish "missing" from "zero value".
type document struct {
	Provider     *Provider          `yaml:"provider"`
	API          *API               `yaml:"api"`
	Auth         *Auth              `yaml:"auth"`
	Data         *Data              `yaml:"data"`
	CBFMapping   *CBFMapping        `yaml:"cbf_mapping"`
	Dependencies []string           `yaml:"dependencies"`
	Tier         string             `yaml:"tier"`
	Credit       *CreditSection     `yaml:"credit_config"`
	Structured   *StructuredSection `yaml:"structured_config"`
	Enterprise   *EnterpriseSection `yaml:"enterprise_config"`
}

// Parse validates a raw YAML configuration document and returns the typed,
// normalized Config. On failure it returns a SchemaErrorList holding one
// entry per violated constraint. Parse has no side effects.
func Parse(raw []byte) (Config, error) {
	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return Config{}, SchemaErrorList{{Reason: fmt.Sprintf("invalid YAML: %v", err)}}
	}
	if len(generic) == 0 {
		return Config{}, SchemaErrorList{{Reason: "document is empty"}}
	}
	return FromMap(generic)
}

// FromMap validates a raw key/value document, e.g. one assembled by the
// interactive front-end. The document is normalized (legacy key shapes,
// tier aliases) before validation.
func FromMap(raw map[string]any) (Config, error) {
	normalized := normalize(raw)

	buf, err := yaml.Marshal(normalized)
	if err != nil {
		return Config{}, SchemaErrorList{{Reason: fmt.Sprintf("encode document: %v", err)}}
	}
	var doc document
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return Config{}, SchemaErrorList{{Reason: fmt.Sprintf("decode document: %v", err)}}
	}

	if errs := validate(doc); len(errs) > 0 {
		return Config{}, errs
	}
	return build(doc), nil
}

// validate accumulates every constraint violation; it never stops early.
func validate(doc document) SchemaErrorList {
	var errs SchemaErrorList

	if doc.Provider == nil {
		errs = append(errs, SchemaError{Path: "provider", Reason: "required section is missing"})
	} else {
		if doc.Provider.Name == "" {
			errs = append(errs, SchemaError{Path: "provider.name", Reason: "must not be empty"})
		} else if !namePattern.MatchString(doc.Provider.Name) {
			errs = append(errs, SchemaError{
				Path:   "provider.name",
				Reason: fmt.Sprintf("%q must match %s (lowercase letters, digits, underscore)", doc.Provider.Name, namePattern),
			})
		}
		if doc.Provider.DisplayName == "" {
			errs = append(errs, SchemaError{Path: "provider.display_name", Reason: "must not be empty"})
		}
	}

	if doc.API == nil {
		errs = append(errs, SchemaError{Path: "api", Reason: "required section is missing"})
	} else {
		if doc.API.BaseURL == "" {
			errs = append(errs, SchemaError{Path: "api.base_url", Reason: "must not be empty"})
		} else if !strings.HasPrefix(doc.API.BaseURL, "http://") && !strings.HasPrefix(doc.API.BaseURL, "https://") {
			errs = append(errs, SchemaError{
				Path:   "api.base_url",
				Reason: fmt.Sprintf("%q must start with http:// or https://", doc.API.BaseURL),
			})
		}
		if doc.API.AuthMethod == "" {
			errs = append(errs, SchemaError{Path: "api.auth_method", Reason: "must not be empty"})
		} else if !doc.API.AuthMethod.Valid() {
			errs = append(errs, SchemaError{
				Path:   "api.auth_method",
				Reason: fmt.Sprintf("%q is not one of %s", doc.API.AuthMethod, joinMethods()),
			})
		}
	}

	if doc.Auth == nil {
		errs = append(errs, SchemaError{Path: "auth", Reason: "required section is missing"})
	} else if len(doc.Auth.RequiredEnvVars) == 0 {
		errs = append(errs, SchemaError{Path: "auth.required_env_vars", Reason: "must be non-empty"})
	} else {
		for i, name := range doc.Auth.RequiredEnvVars {
			if strings.TrimSpace(name) == "" {
				errs = append(errs, SchemaError{
					Path:   fmt.Sprintf("auth.required_env_vars[%d]", i),
					Reason: "must not be blank",
				})
			}
		}
	}

	if doc.Tier != "" {
		if _, ok := tierNames[doc.Tier]; !ok {
			errs = append(errs, SchemaError{
				Path:   "tier",
				Reason: fmt.Sprintf("%q is not one of credit, structured, enterprise", doc.Tier),
			})
		}
	}

	return errs
}

// build assembles the immutable Config from a validated document, applying
// the defaults the generated project relies on.
func build(doc document) Config {
	cfg := Config{
		Provider:     *doc.Provider,
		API:          *doc.API,
		Auth:         *doc.Auth,
		Dependencies: doc.Dependencies,
		Tier:         doc.Tier,
		Credit:       doc.Credit,
		Structured:   doc.Structured,
		Enterprise:   doc.Enterprise,
	}

	if doc.Data != nil {
		cfg.Data = *doc.Data
	}
	if cfg.Data.SourceFormat == "" {
		cfg.Data.SourceFormat = "json"
	}
	if cfg.Data.InputMethod == "" {
		cfg.Data.InputMethod = "api"
	}
	if cfg.Data.TimeField == "" {
		cfg.Data.TimeField = "timestamp"
	}
	if cfg.Data.CostField == "" {
		cfg.Data.CostField = "cost"
	}
	if cfg.Data.ResourceField == "" {
		cfg.Data.ResourceField = "resource_id"
	}

	if doc.CBFMapping != nil {
		cfg.CBFMapping = *doc.CBFMapping
	}
	if cfg.CBFMapping.CostCost == "" {
		cfg.CBFMapping.CostCost = "cost"
	}
	if cfg.CBFMapping.TimeUsageStart == "" {
		cfg.CBFMapping.TimeUsageStart = "snapshot_timestamp"
	}
	if cfg.CBFMapping.ResourceAccount == "" {
		cfg.CBFMapping.ResourceAccount = "default"
	}
	if cfg.CBFMapping.ResourceRegion == "" {
		cfg.CBFMapping.ResourceRegion = "global"
	}
	if cfg.CBFMapping.LineItemType == "" {
		cfg.CBFMapping.LineItemType = "Usage"
	}

	if cfg.API.RateLimit == 0 {
		cfg.API.RateLimit = 10
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30
	}

	if len(cfg.Dependencies) == 0 {
		cfg.Dependencies = []string{"requests>=2.28.0", "python-dotenv>=0.19.0"}
	}

	if cfg.Credit != nil && cfg.Credit.SnapshotFile == "" {
		cfg.Credit.SnapshotFile = "state/snapshots.csv"
	}
	if cfg.Enterprise != nil && cfg.Enterprise.AggregationMethod == "" {
		cfg.Enterprise.AggregationMethod = "daily"
	}

	return cfg
}

func joinMethods() string {
	methods := AuthMethods()
	names := make([]string, 0, len(methods))
	for _, m := range methods {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
