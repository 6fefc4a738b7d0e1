package render

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/anycost-tools/adaptorgen/pkg/config"
	"github.com/anycost-tools/adaptorgen/pkg/manifest"
	"github.com/anycost-tools/adaptorgen/pkg/tier"
)

func testConfig() config.Config {
	return config.Config{
		Provider: config.Provider{Name: "bfl", DisplayName: "Black Forest Labs"},
		API:      config.API{BaseURL: "https://api.bfl.ml", AuthMethod: config.AuthAPIKey},
		Auth:     config.Auth{RequiredEnvVars: []string{"BFL_API_KEY"}},
		Credit:   &config.CreditSection{CreditsEndpoint: "/credits", CreditToUSD: 0.01, DiscountRate: 0.3},
	}
}

func newTestEngine(t *testing.T, files fstest.MapFS, workers int) *Engine {
	t.Helper()
	opts := []Option{WithFS(files)}
	if workers > 0 {
		opts = append(opts, WithWorkers(workers))
	}
	engine, err := NewEngine(opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestRenderAll_SubstitutesContext(t *testing.T) {
	files := fstest.MapFS{
		"greet.tpl": {Data: []byte("provider {{ provider_name }} ({{ display_name }})")},
	}
	m := manifest.Manifest{
		Tier:    tier.Credit,
		Entries: []manifest.Entry{{TemplateID: "greet.tpl", OutputPath: "greet.txt"}},
	}

	got, err := newTestEngine(t, files, 0).RenderAll(context.Background(), testConfig(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 file, got %d", len(got))
	}
	if want := "provider bfl (Black Forest Labs)"; string(got[0].Content) != want {
		t.Fatalf("rendered %q, want %q", got[0].Content, want)
	}
	if got[0].TemplateID != "greet.tpl" {
		t.Fatalf("provenance lost: %q", got[0].TemplateID)
	}
}

func TestRenderAll_MissingVariableFailsBeforeOutput(t *testing.T) {
	files := fstest.MapFS{
		"bad.tpl": {Data: []byte("{{ provider_name }} {{ not_in_context }}")},
	}
	m := manifest.Manifest{
		Tier:    tier.Credit,
		Entries: []manifest.Entry{{TemplateID: "bad.tpl", OutputPath: "bad.txt"}},
	}

	_, err := newTestEngine(t, files, 0).RenderAll(context.Background(), testConfig(), m)
	var errs ErrorList
	if !errors.As(err, &errs) {
		t.Fatalf("expected ErrorList, got %T (%v)", err, err)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if errs[0].TemplateID != "bad.tpl" || errs[0].Variable != "not_in_context" {
		t.Fatalf("error must name template and variable: %+v", errs[0])
	}
}

func TestRenderAll_AccumulatesAndSortsErrors(t *testing.T) {
	files := fstest.MapFS{
		"z.tpl":  {Data: []byte("{{ zonk }}")},
		"a.tpl":  {Data: []byte("{{ argh }}")},
		"ok.tpl": {Data: []byte("fine")},
	}
	m := manifest.Manifest{
		Tier: tier.Credit,
		Entries: []manifest.Entry{
			{TemplateID: "z.tpl", OutputPath: "z.txt"},
			{TemplateID: "ok.tpl", OutputPath: "ok.txt"},
			{TemplateID: "a.tpl", OutputPath: "a.txt"},
		},
	}

	_, err := newTestEngine(t, files, 4).RenderAll(context.Background(), testConfig(), m)
	var errs ErrorList
	if !errors.As(err, &errs) {
		t.Fatalf("expected ErrorList, got %T (%v)", err, err)
	}
	if len(errs) != 2 {
		t.Fatalf("expected both failures collected, got %v", errs)
	}
	if errs[0].TemplateID != "a.tpl" || errs[1].TemplateID != "z.tpl" {
		t.Fatalf("errors not sorted by template id: %v", errs)
	}
}

func TestRenderAll_FragmentComposition(t *testing.T) {
	files := fstest.MapFS{
		"parent.tpl":                 {Data: []byte("start\n{{ discount_rate_block }}\nend")},
		"fragments/discount.py.tpl":  {Data: []byte("RATE = {{ credit_config.discount_rate }}\n")},
	}
	m := manifest.Manifest{
		Tier:    tier.Credit,
		Entries: []manifest.Entry{{TemplateID: "parent.tpl", OutputPath: "parent.py"}},
		Fragments: []manifest.Fragment{
			{TemplateID: "fragments/discount.py.tpl", Flag: "has_discount_rate", Included: true},
		},
		Flags: map[string]bool{"has_discount_rate": true},
	}

	got, err := newTestEngine(t, files, 0).RenderAll(context.Background(), testConfig(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "start\nRATE = 0.3\nend"; string(got[0].Content) != want {
		t.Fatalf("rendered %q, want %q", got[0].Content, want)
	}
}

func TestRenderAll_ExcludedFragmentBindsEmpty(t *testing.T) {
	files := fstest.MapFS{
		"parent.tpl":                {Data: []byte("[{{ discount_rate_block }}]")},
		"fragments/discount.py.tpl": {Data: []byte("should not appear")},
	}
	m := manifest.Manifest{
		Tier:    tier.Credit,
		Entries: []manifest.Entry{{TemplateID: "parent.tpl", OutputPath: "parent.py"}},
		Fragments: []manifest.Fragment{
			{TemplateID: "fragments/discount.py.tpl", Flag: "has_discount_rate", Included: false},
		},
		Flags: map[string]bool{"has_discount_rate": false},
	}

	got, err := newTestEngine(t, files, 0).RenderAll(context.Background(), testConfig(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "[]"; string(got[0].Content) != want {
		t.Fatalf("excluded fragment leaked into output: %q", got[0].Content)
	}
}

func TestRenderAll_OverrideWithExtraSectionUsesResolvedTier(t *testing.T) {
	files := fstest.MapFS{
		"transform.tpl": {Data: []byte("ROOT_KEY = {{ structured_config.root_data_key|quote }}")},
	}
	m := manifest.Manifest{
		Tier:    tier.Structured,
		Entries: []manifest.Entry{{TemplateID: "transform.tpl", OutputPath: "transform.py"}},
	}
	cfg := testConfig()
	cfg.Tier = "structured"
	cfg.Structured = &config.StructuredSection{RootDataKey: "data"}

	got, err := newTestEngine(t, files, 0).RenderAll(context.Background(), cfg, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "ROOT_KEY = \"data\""; string(got[0].Content) != want {
		t.Fatalf("rendered %q, want %q", got[0].Content, want)
	}
}

func TestRenderAll_CancelledContext(t *testing.T) {
	files := fstest.MapFS{
		"a.tpl": {Data: []byte("{{ provider_name }}")},
	}
	m := manifest.Manifest{
		Tier:    tier.Credit,
		Entries: []manifest.Entry{{TemplateID: "a.tpl", OutputPath: "a.txt"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := newTestEngine(t, files, 0).RenderAll(ctx, testConfig(), m)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got != nil {
		t.Fatalf("cancelled run must not return files: %v", got)
	}
}

func TestRenderAll_StaticEntryCopiedVerbatim(t *testing.T) {
	body := []byte("raw {{ braces }} stay untouched\n")
	files := fstest.MapFS{
		"static/cloudzero.py": {Data: body},
	}
	m := manifest.Manifest{
		Tier:    tier.Credit,
		Entries: []manifest.Entry{{TemplateID: "static/cloudzero.py", OutputPath: "src/cloudzero.py", Static: true}},
	}

	got, err := newTestEngine(t, files, 0).RenderAll(context.Background(), testConfig(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got[0].Content, body) {
		t.Fatalf("static entry was modified: %q", got[0].Content)
	}
}

func TestRenderAll_Filters(t *testing.T) {
	files := fstest.MapFS{
		"filters.tpl": {Data: []byte("{{ provider_name|quote }}\n{{ dependencies|pylist:4 }}")},
	}
	m := manifest.Manifest{
		Tier:    tier.Credit,
		Entries: []manifest.Entry{{TemplateID: "filters.tpl", OutputPath: "filters.txt"}},
	}
	cfg := testConfig()
	cfg.Dependencies = []string{"requests>=2.28.0", "python-dotenv>=0.19.0"}

	got, err := newTestEngine(t, files, 0).RenderAll(context.Background(), cfg, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "\"bfl\"\n[\n    \"requests>=2.28.0\",\n    \"python-dotenv>=0.19.0\",\n]"
	if string(got[0].Content) != want {
		t.Fatalf("filter output mismatch:\n got: %q\nwant: %q", got[0].Content, want)
	}
}

func TestRenderAll_Deterministic(t *testing.T) {
	files := fstest.MapFS{
		"a.tpl": {Data: []byte("{{ provider_name }} {{ default_api_key_var }}")},
		"b.tpl": {Data: []byte("{% for item in endpoint_items %}{{ item.name }}={{ item.value }};{% endfor %}")},
	}
	m := manifest.Manifest{
		Tier: tier.Credit,
		Entries: []manifest.Entry{
			{TemplateID: "a.tpl", OutputPath: "a.txt"},
			{TemplateID: "b.tpl", OutputPath: "b.txt"},
		},
	}
	cfg := testConfig()
	cfg.API.Endpoints = map[string]string{"usage": "/v1/usage", "credits": "/v1/credits", "models": "/v1/models"}

	engine := newTestEngine(t, files, 8)
	first, err := engine.RenderAll(context.Background(), cfg, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := engine.RenderAll(context.Background(), cfg, m)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for j := range first {
			if !bytes.Equal(first[j].Content, again[j].Content) || first[j].Path != again[j].Path {
				t.Fatalf("run %d produced different output for %s", i, first[j].Path)
			}
		}
	}
}

func TestFormatPyList_ShallowIndent(t *testing.T) {
	got := formatPyList([]string{"a"}, 2)
	if want := "[\n  \"a\",\n]"; got != want {
		t.Fatalf("formatPyList = %q, want %q", got, want)
	}
}

func TestNewEngine_RequiresTemplateSource(t *testing.T) {
	if _, err := NewEngine(); err == nil {
		t.Fatalf("expected error without a template source")
	}
}
