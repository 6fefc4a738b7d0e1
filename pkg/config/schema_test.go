package config

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const validCreditYAML = `
provider:
  name: bfl
  display_name: Black Forest Labs
  service_type: ai-image-generation
api:
  base_url: https://api.bfl.ml
  auth_method: api_key
auth:
  required_env_vars: [BFL_API_KEY]
credit_config:
  credits_endpoint: /credits
  credit_to_usd: 0.01
`

func TestParse_ValidCredit(t *testing.T) {
	cfg, err := Parse([]byte(validCreditYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider.Name != "bfl" {
		t.Fatalf("provider name mismatch: %q", cfg.Provider.Name)
	}
	if cfg.Credit == nil {
		t.Fatalf("credit section not decoded")
	}
	if cfg.Credit.CreditToUSD != 0.01 {
		t.Fatalf("credit_to_usd mismatch: %v", cfg.Credit.CreditToUSD)
	}
}

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(validCreditYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.RateLimit != 10 || cfg.API.Timeout != 30 {
		t.Fatalf("api defaults not applied: rate_limit=%d timeout=%d", cfg.API.RateLimit, cfg.API.Timeout)
	}
	if cfg.Credit.SnapshotFile != "state/snapshots.csv" {
		t.Fatalf("snapshot_file default not applied: %q", cfg.Credit.SnapshotFile)
	}
	if cfg.Data.CostField != "cost" || cfg.Data.TimeField != "timestamp" {
		t.Fatalf("data defaults not applied: %+v", cfg.Data)
	}
	want := []string{"requests>=2.28.0", "python-dotenv>=0.19.0"}
	if diff := cmp.Diff(want, cfg.Dependencies); diff != "" {
		t.Fatalf("dependency defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_AccumulatesEveryViolation(t *testing.T) {
	raw := `
provider:
  name: "Bad Name"
api:
  base_url: api.example.com
  auth_method: magic
auth:
  required_env_vars: []
`
	_, err := Parse([]byte(raw))
	if err == nil {
		t.Fatalf("expected schema errors")
	}

	list, ok := err.(SchemaErrorList)
	if !ok {
		t.Fatalf("expected SchemaErrorList, got %T", err)
	}

	wantPaths := []string{
		"provider.name",
		"provider.display_name",
		"api.base_url",
		"api.auth_method",
		"auth.required_env_vars",
	}
	for _, path := range wantPaths {
		if !hasPath(list, path) {
			t.Errorf("missing violation for %s in %v", path, list)
		}
	}
	if len(list) != len(wantPaths) {
		t.Fatalf("expected %d violations, got %d: %v", len(wantPaths), len(list), list)
	}
}

func TestParse_EmptyRequiredEnvVars(t *testing.T) {
	raw := `
provider:
  name: acme
  display_name: Acme
api:
  base_url: https://api.acme.io
  auth_method: bearer_token
auth:
  required_env_vars: []
structured_config:
  root_data_key: data
`
	_, err := Parse([]byte(raw))
	list, ok := err.(SchemaErrorList)
	if !ok {
		t.Fatalf("expected SchemaErrorList, got %T (%v)", err, err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one violation, got %v", list)
	}
	if list[0].Path != "auth.required_env_vars" || list[0].Reason != "must be non-empty" {
		t.Fatalf("unexpected violation: %+v", list[0])
	}
}

func TestParse_MissingSections(t *testing.T) {
	_, err := Parse([]byte("tier: credit\n"))
	list, ok := err.(SchemaErrorList)
	if !ok {
		t.Fatalf("expected SchemaErrorList, got %T", err)
	}
	for _, path := range []string{"provider", "api", "auth"} {
		if !hasPath(list, path) {
			t.Errorf("missing violation for required section %s: %v", path, list)
		}
	}
}

func TestParse_UnknownTierValue(t *testing.T) {
	raw := strings.Replace(validCreditYAML, "credit_config:", "tier: premium\ncredit_config:", 1)
	_, err := Parse([]byte(raw))
	list, ok := err.(SchemaErrorList)
	if !ok {
		t.Fatalf("expected SchemaErrorList, got %T (%v)", err, err)
	}
	if !hasPath(list, "tier") {
		t.Fatalf("expected a tier violation, got %v", list)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("provider: [unclosed"))
	if _, ok := err.(SchemaErrorList); !ok {
		t.Fatalf("expected SchemaErrorList, got %T (%v)", err, err)
	}
}

func TestFromMap_InteractiveDocumentShape(t *testing.T) {
	doc := map[string]any{
		"provider": map[string]any{
			"name":         "elevenlabs",
			"display_name": "ElevenLabs",
			"service_type": "ai-audio",
		},
		"api": map[string]any{
			"base_url":    "https://api.elevenlabs.io",
			"auth_method": "api_key_header",
		},
		"auth": map[string]any{
			"required_env_vars": []string{"ELEVENLABS_API_KEY"},
			"optional_env_vars": []string{},
		},
		"tier": "credit",
		"credit_config": map[string]any{
			"credits_endpoint": "/v1/user/subscription",
			"credit_to_usd":    0.002,
		},
	}

	cfg, err := FromMap(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tier != "credit" {
		t.Fatalf("tier mismatch: %q", cfg.Tier)
	}
	if cfg.Credit == nil || cfg.Credit.CreditsEndpoint != "/v1/user/subscription" {
		t.Fatalf("credit section mismatch: %+v", cfg.Credit)
	}
}

func TestClassName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"bfl", "Bfl"},
		{"black_forest", "BlackForest"},
		{"some-provider_x", "SomeProviderX"},
	}
	for _, tc := range cases {
		cfg := Config{Provider: Provider{Name: tc.name}}
		if got := cfg.ClassName(); got != tc.want {
			t.Errorf("ClassName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestEnvPrefix(t *testing.T) {
	cfg := Config{Provider: Provider{Name: "black-forest"}}
	if got := cfg.EnvPrefix(); got != "BLACK_FOREST" {
		t.Fatalf("EnvPrefix() = %q", got)
	}
}

func hasPath(list SchemaErrorList, path string) bool {
	for _, e := range list {
		if e.Path == path {
			return true
		}
	}
	return false
}
