// Package tier classifies a validated configuration into exactly one of the
// three generation strategies. Classification is a closed three-way disjoint
// union with a single tie-break rule: an explicit override always wins.
package tier

import (
	"fmt"
	"strings"

	"github.com/anycost-tools/adaptorgen/pkg/config"
)

// Kind is a billing-complexity tier. The set is fixed and closed.
type Kind string

const (
	Credit     Kind = "credit"
	Structured Kind = "structured"
	Enterprise Kind = "enterprise"
)

// Kinds returns the closed tier set in canonical order.
func Kinds() []Kind {
	return []Kind{Credit, Structured, Enterprise}
}

// Section returns the configuration section name that carries this tier's
// parameters.
func (k Kind) Section() string {
	return string(k) + "_config"
}

// Description is the one-line summary shown by the CLI.
func (k Kind) Description() string {
	switch k {
	case Credit:
		return "Simple credit polling: poll single endpoint, compute delta, credit-to-USD"
	case Structured:
		return "Structured billing: multiple endpoints, field mapping, line items"
	case Enterprise:
		return "Enterprise/complex: CSV processing or nested API, contract pricing, aggregation"
	default:
		return ""
	}
}

// Resolution records the selected tier and whether it came from an explicit
// override. An override that matches the single present section resolves to
// the same Kind as auto-detection; Explicit is kept so callers can report
// provenance.
type Resolution struct {
	Kind     Kind
	Explicit bool
}

// DetectionError reports an ambiguous or contradictory tier configuration.
// Present holds the tier-specific section names that were found.
type DetectionError struct {
	Present []string
	// Override is set when an explicit tier named a section that is absent.
	Override Kind
}

func (e *DetectionError) Error() string {
	if e.Override != "" {
		return fmt.Sprintf("tier: explicit tier %q set but section %s is not present (found: %s)",
			e.Override, e.Override.Section(), formatSections(e.Present))
	}
	switch len(e.Present) {
	case 0:
		return "tier: no tier-specific section present; add exactly one of credit_config, structured_config, enterprise_config"
	default:
		return fmt.Sprintf("tier: ambiguous configuration, multiple tier-specific sections present: %s", formatSections(e.Present))
	}
}

func formatSections(present []string) string {
	if len(present) == 0 {
		return "none"
	}
	return strings.Join(present, ", ")
}

// Resolve produces exactly one tier for a validated config.
//
// An explicit override is verified against section presence and used without
// further inspection. Otherwise exactly one present section selects its
// tier; zero or multiple present sections fail with a DetectionError naming
// every section found.
func Resolve(cfg config.Config) (Resolution, error) {
	present := cfg.TierSections()

	if cfg.Tier != "" {
		kind := Kind(cfg.Tier)
		if !sectionPresent(cfg, kind) {
			return Resolution{}, &DetectionError{Present: present, Override: kind}
		}
		return Resolution{Kind: kind, Explicit: true}, nil
	}

	if len(present) != 1 {
		return Resolution{}, &DetectionError{Present: present}
	}

	switch present[0] {
	case Credit.Section():
		return Resolution{Kind: Credit}, nil
	case Structured.Section():
		return Resolution{Kind: Structured}, nil
	default:
		return Resolution{Kind: Enterprise}, nil
	}
}

func sectionPresent(cfg config.Config, kind Kind) bool {
	switch kind {
	case Credit:
		return cfg.Credit != nil
	case Structured:
		return cfg.Structured != nil
	case Enterprise:
		return cfg.Enterprise != nil
	default:
		return false
	}
}
