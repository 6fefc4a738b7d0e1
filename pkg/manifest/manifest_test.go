package manifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/anycost-tools/adaptorgen/pkg/config"
	"github.com/anycost-tools/adaptorgen/pkg/tier"
)

func creditConfig(section config.CreditSection) config.Config {
	return config.Config{
		Provider: config.Provider{Name: "bfl", DisplayName: "Black Forest Labs"},
		Credit:   &section,
	}
}

func TestBuild_CreditEntries(t *testing.T) {
	m, err := Build(creditConfig(config.CreditSection{}), tier.Credit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPaths := []string{
		"anycost.py",
		"pyproject.toml",
		"README.md",
		".gitignore",
		"env/.env.example",
		"src/bfl_config.py",
		"src/bfl_client.py",
		"src/bfl_transform.py",
		"src/bfl_anycost_adaptor.py",
		"tests/test_transform.py",
		"src/cloudzero.py",
	}
	if diff := cmp.Diff(wantPaths, m.OutputPaths()); diff != "" {
		t.Fatalf("output paths mismatch (-want +got):\n%s", diff)
	}

	transform, ok := m.Entry("src/bfl_transform.py")
	if !ok {
		t.Fatalf("transform entry missing")
	}
	if transform.TemplateID != "src/transform_credit.py.tpl" {
		t.Fatalf("transform template mismatch: %q", transform.TemplateID)
	}
	if !transform.UserCompleted {
		t.Fatalf("transform must be marked for user completion")
	}

	static, ok := m.Entry("src/cloudzero.py")
	if !ok || !static.Static {
		t.Fatalf("cloudzero entry must be static: %+v", static)
	}

	wantDirs := []string{"env", "input", "output", "src", "state", "tests"}
	if diff := cmp.Diff(wantDirs, m.Directories); diff != "" {
		t.Fatalf("directories mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_TierSelectsTransformTemplate(t *testing.T) {
	cases := []struct {
		kind tier.Kind
		want string
	}{
		{tier.Credit, "src/transform_credit.py.tpl"},
		{tier.Structured, "src/transform_structured.py.tpl"},
		{tier.Enterprise, "src/transform_enterprise.py.tpl"},
	}
	for _, tc := range cases {
		m, err := Build(config.Config{Provider: config.Provider{Name: "x"}}, tc.kind)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		entry, _ := m.Entry("src/x_transform.py")
		if entry.TemplateID != tc.want {
			t.Errorf("tier %s: transform template %q, want %q", tc.kind, entry.TemplateID, tc.want)
		}
	}
}

func TestBuild_CreditPredicates(t *testing.T) {
	cfg := creditConfig(config.CreditSection{
		DiscountRate: 0.30,
		TokenPools:   []config.TokenPool{{Field: "character_count", Label: "Characters"}},
	})

	m, err := Build(cfg, tier.Credit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantFlags := map[string]bool{
		"has_discount_rate": true,
		"has_token_pools":   true,
		"has_model_pricing": false,
	}
	if diff := cmp.Diff(wantFlags, m.Flags); diff != "" {
		t.Fatalf("flags mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_ZeroDiscountRateExcludesFragment(t *testing.T) {
	m, err := Build(creditConfig(config.CreditSection{DiscountRate: 0}), tier.Credit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Flags["has_discount_rate"] {
		t.Fatalf("discount_rate 0 must not include the discount fragment")
	}
	for _, fragment := range m.Fragments {
		if fragment.Flag == "has_discount_rate" && fragment.Included {
			t.Fatalf("fragment inclusion disagrees with flag: %+v", fragment)
		}
	}
}

func TestBuild_EnterprisePredicates(t *testing.T) {
	cfg := config.Config{
		Provider: config.Provider{Name: "datadog"},
		Enterprise: &config.EnterpriseSection{
			CSVStructure: &config.CSVStructure{DateFormat: "%b %Y"},
			PricingRules: []config.PricingRule{{Name: "hosts"}},
		},
	}

	m, err := Build(cfg, tier.Enterprise)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantFlags := map[string]bool{
		"has_csv_structure":   true,
		"has_nested_response": false,
		"has_pricing_rules":   true,
		"has_fixed_costs":     false,
	}
	if diff := cmp.Diff(wantFlags, m.Flags); diff != "" {
		t.Fatalf("flags mismatch (-want +got):\n%s", diff)
	}
}

func TestFragmentBlockVar(t *testing.T) {
	cases := []struct {
		templateID string
		want       string
	}{
		{"fragments/credit/discount_rate.py.tpl", "discount_rate_block"},
		{"fragments/enterprise/csv_structure.py.tpl", "csv_structure_block"},
	}
	for _, tc := range cases {
		f := Fragment{TemplateID: tc.templateID}
		if got := f.BlockVar(); got != tc.want {
			t.Errorf("BlockVar(%q) = %q, want %q", tc.templateID, got, tc.want)
		}
	}
}

func TestCheckUniquePaths(t *testing.T) {
	entries := []Entry{
		{TemplateID: "a.tpl", OutputPath: "out.py"},
		{TemplateID: "b.tpl", OutputPath: "out.py"},
	}
	err := checkUniquePaths(entries)
	var dup *DuplicatePathError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicatePathError, got %T (%v)", err, err)
	}
	if !strings.Contains(err.Error(), "out.py") {
		t.Fatalf("error must name the duplicate path: %v", err)
	}
}
