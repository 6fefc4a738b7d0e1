// Package config defines the typed provider configuration consumed by the
// generation pipeline. Both input paths (YAML document and interactive
// prompts) converge on Parse, which validates the raw document and returns an
// immutable Config. Callers must treat a returned Config as read-only.
package config

import "strings"

// AuthMethod enumerates the supported provider authentication schemes.
type AuthMethod string

const (
	AuthAPIKey       AuthMethod = "api_key"
	AuthAPIKeyHeader AuthMethod = "api_key_header"
	AuthBasic        AuthMethod = "basic_auth"
	AuthBearerToken  AuthMethod = "bearer_token"
	AuthBearerJWT    AuthMethod = "bearer_jwt"
	AuthOAuth2       AuthMethod = "oauth2"
)

// AuthMethods returns the closed set of valid auth method values.
func AuthMethods() []AuthMethod {
	return []AuthMethod{
		AuthAPIKey,
		AuthAPIKeyHeader,
		AuthBasic,
		AuthBearerToken,
		AuthBearerJWT,
		AuthOAuth2,
	}
}

// Valid reports whether the value belongs to the enumerated set.
func (m AuthMethod) Valid() bool {
	for _, known := range AuthMethods() {
		if m == known {
			return true
		}
	}
	return false
}

// Provider identifies the billing provider the adaptor integrates with.
type Provider struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	ServiceType string `yaml:"service_type"`
}

// API describes the provider's HTTP API surface.
type API struct {
	BaseURL    string            `yaml:"base_url"`
	AuthMethod AuthMethod        `yaml:"auth_method"`
	RateLimit  int               `yaml:"rate_limit"`
	Timeout    int               `yaml:"timeout"`
	Endpoints  map[string]string `yaml:"endpoints"`
}

// Auth lists the environment variables the generated adaptor reads
// credentials from.
type Auth struct {
	RequiredEnvVars []string `yaml:"required_env_vars"`
	OptionalEnvVars []string `yaml:"optional_env_vars"`
}

// Data describes the shape of the provider's billing payloads.
type Data struct {
	SourceFormat  string `yaml:"source_format"`
	InputMethod   string `yaml:"input_method"`
	TimeField     string `yaml:"time_field"`
	CostField     string `yaml:"cost_field"`
	ResourceField string `yaml:"resource_field"`
}

// CBFMapping maps provider fields onto Common Billing Format columns.
// ResourceTags entries are emitted as resource/tag:<key> columns.
type CBFMapping struct {
	CostCost          string            `yaml:"cost_cost"`
	TimeUsageStart    string            `yaml:"time_usage_start"`
	ResourceID        string            `yaml:"resource_id"`
	ResourceAccount   string            `yaml:"resource_account"`
	ResourceService   string            `yaml:"resource_service"`
	ResourceRegion    string            `yaml:"resource_region"`
	LineItemType      string            `yaml:"lineitem_type"`
	UsageAmount       string            `yaml:"usage_amount"`
	UsageUnits        string            `yaml:"usage_units"`
	ResourceTags      map[string]string `yaml:"resource_tags"`
}

// TokenPool names one of several credit pools a provider may expose.
type TokenPool struct {
	Field string `yaml:"field"`
	Label string `yaml:"label"`
}

// CreditSection configures the credit-polling tier: poll a balance endpoint,
// compute the delta, convert credits to USD.
type CreditSection struct {
	CreditsEndpoint  string             `yaml:"credits_endpoint"`
	CreditToUSD      float64            `yaml:"credit_to_usd"`
	DiscountRate     float64            `yaml:"discount_rate"`
	DiscountedRate   float64            `yaml:"discounted_rate"`
	TokenPools       []TokenPool        `yaml:"token_pools"`
	ContractValueUSD float64            `yaml:"contract_value_usd"`
	ContractStart    string             `yaml:"contract_start"`
	SnapshotFile     string             `yaml:"snapshot_file"`
	ModelPricing     map[string]float64 `yaml:"model_pricing"`
}

// FieldMappings remaps structured line-item fields per concern.
type FieldMappings struct {
	Cost     map[string]string `yaml:"cost"`
	Date     map[string]string `yaml:"date"`
	Resource map[string]string `yaml:"resource"`
	Usage    map[string]string `yaml:"usage"`
}

// StructuredSection configures the structured-billing tier: one or more
// endpoints returning typed billing line items.
type StructuredSection struct {
	RootDataKey        string        `yaml:"root_data_key"`
	LineTypeField      string        `yaml:"line_type_field"`
	FieldMappings      FieldMappings `yaml:"field_mappings"`
	Tags               []string      `yaml:"tags"`
	ResourceIDTemplate string        `yaml:"resource_id_template"`
}

// CSVStructure describes a provider CSV export layout.
type CSVStructure struct {
	HeaderRowsToSkip int            `yaml:"header_rows_to_skip"`
	DateColumn       int            `yaml:"date_column"`
	DateFormat       string         `yaml:"date_format"`
	CostCategories   map[string]int `yaml:"cost_categories"`
}

// PricingRule applies contracted vs. overage pricing to a usage counter.
type PricingRule struct {
	Name                 string  `yaml:"name"`
	ContractedCount      int     `yaml:"contracted_count"`
	BelowContractedPrice float64 `yaml:"below_contracted_price"`
	AboveContractedPrice float64 `yaml:"above_contracted_price"`
	CumulativeTracking   bool    `yaml:"cumulative_tracking"`
}

// FixedCost is a flat recurring charge emitted alongside usage records.
type FixedCost struct {
	Name          string  `yaml:"name"`
	MonthlyAmount float64 `yaml:"monthly_amount"`
	ValidUntil    string  `yaml:"valid_until"`
	ResourceID    string  `yaml:"resource_id"`
}

// EnterpriseSection configures the enterprise tier: CSV processing or nested
// API responses with contract pricing and aggregation.
type EnterpriseSection struct {
	CSVStructure        *CSVStructure     `yaml:"csv_structure"`
	NestedResponse      bool              `yaml:"nested_response"`
	PricingRules        []PricingRule     `yaml:"pricing_rules"`
	FixedCosts          []FixedCost       `yaml:"fixed_costs"`
	CostCategories      []string          `yaml:"cost_categories"`
	AggregationMethod   string            `yaml:"aggregation_method"`
	ResourceIDTemplates map[string]string `yaml:"resource_id_templates"`
	Tags                []string          `yaml:"tags"`
}

// Config is the validated top-level configuration. Exactly one tier section
// is non-nil, or Tier names the one section that is present.
type Config struct {
	Provider     Provider
	API          API
	Auth         Auth
	Data         Data
	CBFMapping   CBFMapping
	Dependencies []string

	// Tier holds the explicit override from the document, empty when the
	// tier is inferred from section presence.
	Tier string

	Credit     *CreditSection
	Structured *StructuredSection
	Enterprise *EnterpriseSection
}

// ClassName derives the Python class-name stem for the provider, e.g.
// "black_forest" -> "BlackForest".
func (c Config) ClassName() string {
	parts := strings.FieldsFunc(c.Provider.Name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// EnvPrefix derives the UPPER_SNAKE prefix used for computed environment
// variable names.
func (c Config) EnvPrefix() string {
	return strings.ReplaceAll(strings.ToUpper(c.Provider.Name), "-", "_")
}

// TierSections returns the names of the tier-specific sections present on
// the config, in declaration order.
func (c Config) TierSections() []string {
	var present []string
	if c.Credit != nil {
		present = append(present, "credit_config")
	}
	if c.Structured != nil {
		present = append(present, "structured_config")
	}
	if c.Enterprise != nil {
		present = append(present, "enterprise_config")
	}
	return present
}
