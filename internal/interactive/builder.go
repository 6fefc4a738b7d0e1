// Package interactive builds a provider configuration document through
// terminal prompts. The flow is an explicit state machine: one active state,
// transitions gated on validated input, terminating in either a complete
// document or a cancellation. The assembled document is the same raw shape
// the YAML loader accepts, so both input paths converge on config.FromMap.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/anycost-tools/adaptorgen/pkg/tier"
	"github.com/anycost-tools/adaptorgen/pkg/tui"
)

// ErrCancelled is returned when the user aborts the flow, either with an
// interrupt or by declining at the review step.
var ErrCancelled = errors.New("interactive: cancelled")

// State identifies a step of the builder flow.
type State int

const (
	StateProviderIdentity State = iota
	StateAPIConfig
	StateAuthEnvVars
	StateDataShape
	StateTierDetails
	StateReview
	StateComplete
	StateCancelled
)

// String names the state for logs and tests.
func (s State) String() string {
	switch s {
	case StateProviderIdentity:
		return "provider_identity"
	case StateAPIConfig:
		return "api_config"
	case StateAuthEnvVars:
		return "auth_env_vars"
	case StateDataShape:
		return "data_shape"
	case StateTierDetails:
		return "tier_details"
	case StateReview:
		return "review"
	case StateComplete:
		return "complete"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var providerNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Builder walks the prompt flow and assembles the raw config document.
type Builder struct {
	driver tui.PromptDriver

	state State
	doc   map[string]any

	// kind and csvShape carry the data-shape selection into tier details.
	kind     tier.Kind
	csvShape bool
}

// New returns a Builder that prompts through driver.
func New(driver tui.PromptDriver) *Builder {
	return &Builder{
		driver: driver,
		state:  StateProviderIdentity,
		doc:    map[string]any{},
	}
}

// State reports the current (or terminal) state.
func (b *Builder) State() State {
	return b.state
}

// Run drives the state machine to a terminal state and returns the assembled
// document. A cancellation at any prompt returns ErrCancelled.
func (b *Builder) Run(ctx context.Context) (map[string]any, error) {
	for {
		var (
			next State
			err  error
		)
		switch b.state {
		case StateProviderIdentity:
			next, err = b.providerIdentity(ctx)
		case StateAPIConfig:
			next, err = b.apiConfig(ctx)
		case StateAuthEnvVars:
			next, err = b.authEnvVars(ctx)
		case StateDataShape:
			next, err = b.dataShape(ctx)
		case StateTierDetails:
			next, err = b.tierDetails(ctx)
		case StateReview:
			next, err = b.review(ctx)
		case StateComplete:
			return b.doc, nil
		case StateCancelled:
			return nil, ErrCancelled
		default:
			return nil, fmt.Errorf("interactive: unknown state %v", b.state)
		}

		if err != nil {
			if errors.Is(err, tui.ErrAborted) || errors.Is(err, context.Canceled) {
				b.state = StateCancelled
				return nil, ErrCancelled
			}
			return nil, err
		}
		b.state = next
	}
}

func (b *Builder) providerIdentity(ctx context.Context) (State, error) {
	if err := b.driver.Info(ctx, "\nStep 1: Provider Identity"); err != nil {
		return b.state, err
	}

	name, err := b.driver.Input(ctx, tui.InputConfig{
		Message: "Provider identifier (lowercase, e.g. 'bfl', 'elevenlabs'):",
		Validator: func(s string) error {
			if !providerNamePattern.MatchString(s) {
				return errors.New("use lowercase alphanumeric characters, underscores, or hyphens")
			}
			return nil
		},
	})
	if err != nil {
		return b.state, err
	}

	displayName, err := b.driver.Input(ctx, tui.InputConfig{
		Message: "Display name (e.g. 'Black Forest Labs'):",
		Validator: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("display name is required")
			}
			return nil
		},
	})
	if err != nil {
		return b.state, err
	}

	serviceType, err := b.driver.Input(ctx, tui.InputConfig{
		Message: "Service type (e.g. 'ai-image-generation', 'logging'):",
		Default: "cloud",
	})
	if err != nil {
		return b.state, err
	}

	b.doc["provider"] = map[string]any{
		"name":         name,
		"display_name": displayName,
		"service_type": serviceType,
	}
	return StateAPIConfig, nil
}

var authMethodChoices = []struct {
	label string
	value string
}{
	{"API Key (x-api-key header)", "api_key"},
	{"API Key (custom header)", "api_key_header"},
	{"Basic Auth (username:password)", "basic_auth"},
	{"Bearer Token", "bearer_token"},
	{"Bearer JWT", "bearer_jwt"},
	{"OAuth2", "oauth2"},
}

func (b *Builder) apiConfig(ctx context.Context) (State, error) {
	if err := b.driver.Info(ctx, "\nStep 2: API Configuration"); err != nil {
		return b.state, err
	}

	baseURL, err := b.driver.Input(ctx, tui.InputConfig{
		Message: "API base URL:",
		Validator: func(s string) error {
			if !strings.HasPrefix(s, "http") {
				return errors.New("URL must start with http:// or https://")
			}
			return nil
		},
	})
	if err != nil {
		return b.state, err
	}

	labels := make([]string, len(authMethodChoices))
	for i, choice := range authMethodChoices {
		labels[i] = choice.label
	}
	idx, err := b.driver.Select(ctx, tui.SelectConfig{
		Message: "Authentication method:",
		Options: labels,
	})
	if err != nil {
		return b.state, err
	}
	if idx < 0 || idx >= len(authMethodChoices) {
		return b.state, fmt.Errorf("interactive: auth method selection out of range: %d", idx)
	}

	b.doc["api"] = map[string]any{
		"base_url":    baseURL,
		"auth_method": authMethodChoices[idx].value,
	}
	return StateAuthEnvVars, nil
}

func (b *Builder) authEnvVars(ctx context.Context) (State, error) {
	provider, _ := b.doc["provider"].(map[string]any)
	name, _ := provider["name"].(string)
	defaultVar := strings.ReplaceAll(strings.ToUpper(name), "-", "_") + "_API_KEY"

	required, err := b.driver.Input(ctx, tui.InputConfig{
		Message: "Required env vars (comma-separated):",
		Default: defaultVar,
		Validator: func(s string) error {
			if len(splitList(s)) == 0 {
				return errors.New("at least one required env var is needed")
			}
			return nil
		},
	})
	if err != nil {
		return b.state, err
	}

	optional, err := b.driver.Input(ctx, tui.InputConfig{
		Message: "Optional env vars (comma-separated, or leave empty):",
	})
	if err != nil {
		return b.state, err
	}

	b.doc["auth"] = map[string]any{
		"required_env_vars": splitList(required),
		"optional_env_vars": splitList(optional),
	}
	return StateDataShape, nil
}

var dataShapeChoices = []struct {
	label string
	kind  tier.Kind
	csv   bool
}{
	{"Single endpoint returning credit/token balance", tier.Credit, false},
	{"API returning structured billing line items", tier.Structured, false},
	{"CSV file with billing data", tier.Enterprise, true},
	{"Complex API with nested responses", tier.Enterprise, false},
}

func (b *Builder) dataShape(ctx context.Context) (State, error) {
	if err := b.driver.Info(ctx, "\nStep 3: Data Shape"); err != nil {
		return b.state, err
	}

	labels := make([]string, len(dataShapeChoices))
	for i, choice := range dataShapeChoices {
		labels[i] = choice.label
	}
	idx, err := b.driver.Select(ctx, tui.SelectConfig{
		Message: "How does this provider expose billing/usage data?",
		Options: labels,
	})
	if err != nil {
		return b.state, err
	}
	if idx < 0 || idx >= len(dataShapeChoices) {
		return b.state, fmt.Errorf("interactive: data shape selection out of range: %d", idx)
	}

	b.kind = dataShapeChoices[idx].kind
	b.csvShape = dataShapeChoices[idx].csv
	b.doc["tier"] = string(b.kind)

	if err := b.driver.Info(ctx, fmt.Sprintf("Tier: %s (%s)", b.kind, b.kind.Description())); err != nil {
		return b.state, err
	}
	return StateTierDetails, nil
}

func (b *Builder) tierDetails(ctx context.Context) (State, error) {
	if err := b.driver.Info(ctx, "\nStep 4: Tier Details"); err != nil {
		return b.state, err
	}

	var (
		section map[string]any
		err     error
	)
	switch b.kind {
	case tier.Credit:
		section, err = b.creditDetails(ctx)
	case tier.Structured:
		section, err = b.structuredDetails(ctx)
	case tier.Enterprise:
		section, err = b.enterpriseDetails(ctx)
	default:
		return b.state, fmt.Errorf("interactive: no details flow for tier %q", b.kind)
	}
	if err != nil {
		return b.state, err
	}

	b.doc[b.kind.Section()] = section
	return StateReview, nil
}

func (b *Builder) creditDetails(ctx context.Context) (map[string]any, error) {
	endpoint, err := b.driver.Input(ctx, tui.InputConfig{
		Message: "Credits/balance API endpoint (e.g. '/me', '/credits'):",
		Default: "/credits",
	})
	if err != nil {
		return nil, err
	}

	creditToUSD, err := b.promptFloat(ctx, "Credit-to-USD conversion rate (e.g. 0.01):", "0.01")
	if err != nil {
		return nil, err
	}

	discountRate, err := b.promptFloat(ctx, "Discount rate (0-1, e.g. 0.30 for 30%, or 0 for none):", "0")
	if err != nil {
		return nil, err
	}

	hasPools, err := b.driver.Confirm(ctx, tui.ConfirmConfig{
		Message: "Does the provider have multiple token/credit pools?",
	})
	if err != nil {
		return nil, err
	}

	var pools []any
	for hasPools {
		field, err := b.driver.Input(ctx, tui.InputConfig{Message: "Pool field name (or 'done'):"})
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(strings.TrimSpace(field), "done") {
			break
		}
		label, err := b.driver.Input(ctx, tui.InputConfig{
			Message: fmt.Sprintf("Label for '%s':", field),
		})
		if err != nil {
			return nil, err
		}
		pools = append(pools, map[string]any{"field": field, "label": label})
	}

	section := map[string]any{
		"credits_endpoint": endpoint,
		"credit_to_usd":    creditToUSD,
		"discount_rate":    discountRate,
	}
	if discountRate > 0 {
		section["discounted_rate"] = math.Round(creditToUSD*(1-discountRate)*1e6) / 1e6
	}
	if len(pools) > 0 {
		section["token_pools"] = pools
	}
	return section, nil
}

func (b *Builder) structuredDetails(ctx context.Context) (map[string]any, error) {
	rootKey, err := b.driver.Input(ctx, tui.InputConfig{
		Message: "Root data key in API response (e.g. 'data', 'items'):",
		Default: "data",
	})
	if err != nil {
		return nil, err
	}

	lineTypeField, err := b.driver.Input(ctx, tui.InputConfig{
		Message: "Field that identifies line item type (e.g. 'line_type', or leave empty):",
	})
	if err != nil {
		return nil, err
	}

	resourceTemplate, err := b.driver.Input(ctx, tui.InputConfig{
		Message: "Resource ID template (e.g. 'provider:{type}/{id}', or leave empty):",
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"root_data_key":        rootKey,
		"line_type_field":      lineTypeField,
		"resource_id_template": resourceTemplate,
	}, nil
}

func (b *Builder) enterpriseDetails(ctx context.Context) (map[string]any, error) {
	section := map[string]any{}

	if b.csvShape {
		headerSkip, err := b.promptInt(ctx, "Number of header rows to skip:", "0")
		if err != nil {
			return nil, err
		}
		dateFormat, err := b.driver.Input(ctx, tui.InputConfig{
			Message: "Date format in CSV (e.g. '%b %Y', '%Y-%m-%d'):",
			Default: "%b %Y",
		})
		if err != nil {
			return nil, err
		}

		categories := map[string]any{}
		if err := b.driver.Info(ctx, "Enter cost category columns (name=column_index):"); err != nil {
			return nil, err
		}
		for {
			name, err := b.driver.Input(ctx, tui.InputConfig{Message: "Category name (or 'done'):"})
			if err != nil {
				return nil, err
			}
			if strings.EqualFold(strings.TrimSpace(name), "done") {
				break
			}
			column, err := b.promptInt(ctx, fmt.Sprintf("Column index for '%s':", name), "1")
			if err != nil {
				return nil, err
			}
			categories[name] = column
		}

		section["csv_structure"] = map[string]any{
			"header_rows_to_skip": headerSkip,
			"date_column":         0,
			"date_format":         dateFormat,
			"cost_categories":     categories,
		}
	} else {
		section["nested_response"] = true
	}

	methods := []string{"daily", "monthly", "none"}
	idx, err := b.driver.Select(ctx, tui.SelectConfig{
		Message: "Aggregation method:",
		Options: methods,
	})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(methods) {
		return nil, fmt.Errorf("interactive: aggregation method selection out of range: %d", idx)
	}
	section["aggregation_method"] = methods[idx]

	return section, nil
}

func (b *Builder) review(ctx context.Context) (State, error) {
	if err := b.driver.Info(ctx, "\nStep 5: Review"); err != nil {
		return b.state, err
	}
	if err := b.driver.Info(ctx, Summary(b.doc)); err != nil {
		return b.state, err
	}

	proceed, err := b.driver.Confirm(ctx, tui.ConfirmConfig{
		Message: "Generate adaptor with this configuration?",
		Default: true,
	})
	if err != nil {
		return b.state, err
	}
	if !proceed {
		return StateCancelled, nil
	}
	return StateComplete, nil
}

// Summary renders the assembled document as a short plain-text table for the
// review step.
func Summary(doc map[string]any) string {
	provider, _ := doc["provider"].(map[string]any)
	api, _ := doc["api"].(map[string]any)
	auth, _ := doc["auth"].(map[string]any)

	required, _ := auth["required_env_vars"].([]string)

	var b strings.Builder
	row := func(label string, value any) {
		fmt.Fprintf(&b, "  %-18s %v\n", label, value)
	}
	row("Provider", provider["display_name"])
	row("Provider ID", provider["name"])
	row("Service Type", provider["service_type"])
	row("API Base URL", api["base_url"])
	row("Auth Method", api["auth_method"])
	row("Required Env Vars", strings.Join(required, ", "))
	row("Tier", doc["tier"])
	return strings.TrimRight(b.String(), "\n")
}

// SaveYAML writes the assembled document to path, creating parent
// directories as needed.
func SaveYAML(doc map[string]any, path string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("interactive: marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("interactive: create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("interactive: write config: %w", err)
	}
	return nil
}

func (b *Builder) promptFloat(ctx context.Context, message, defaultValue string) (float64, error) {
	raw, err := b.driver.Input(ctx, tui.InputConfig{
		Message: message,
		Default: defaultValue,
		Validator: func(s string) error {
			if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				return errors.New("must be a number")
			}
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

func (b *Builder) promptInt(ctx context.Context, message, defaultValue string) (int, error) {
	raw, err := b.driver.Input(ctx, tui.InputConfig{
		Message: message,
		Default: defaultValue,
		Validator: func(s string) error {
			if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
				return errors.New("must be a whole number")
			}
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(raw))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
