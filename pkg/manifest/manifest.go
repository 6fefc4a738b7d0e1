// Package manifest resolves the ordered set of templates a generation run
// will render. The manifest is fully determined before any text expansion:
// base entries shared by every tier, tier-specific entries, and conditional
// fragments whose named predicates are evaluated exactly once against the
// validated config at build time.
package manifest

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/anycost-tools/adaptorgen/pkg/config"
	"github.com/anycost-tools/adaptorgen/pkg/tier"
)

// Entry maps one template to one output path.
type Entry struct {
	// TemplateID is the path of the template body relative to the template
	// root, e.g. "base/anycost.py.tpl".
	TemplateID string
	// OutputPath is relative to the generated project root.
	OutputPath string
	// Static entries are copied verbatim, with no variable substitution.
	Static bool
	// UserCompleted marks files that intentionally carry TODO regions for
	// the user to fill in after generation.
	UserCompleted bool
}

// Fragment records one conditional sub-template and the outcome of its
// inclusion predicate. Fragments do not own an output path; they compose
// into their parent template's output through flag-gated includes.
type Fragment struct {
	TemplateID string
	// Flag names the predicate that gates the fragment.
	Flag string
	// Included is the predicate result, fixed at manifest-build time.
	Included bool
}

// BlockVar derives the context variable the fragment's rendered body is
// exposed under, e.g. "fragments/credit/discount_rate.py.tpl" ->
// "discount_rate_block". Excluded fragments bind the variable to an empty
// string so parent templates always resolve it.
func (f Fragment) BlockVar() string {
	name := path.Base(f.TemplateID)
	name = strings.TrimSuffix(name, ".tpl")
	name = strings.TrimSuffix(name, ".py")
	return name + "_block"
}

// DuplicatePathError reports output paths claimed by more than one entry.
// It marks a defect in the template set, not a user error; the CLI files it
// with the render-stage failures.
type DuplicatePathError struct {
	// Paths lists each collision as "<output> (from <a> and <b>)", sorted.
	Paths []string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("manifest: duplicate output paths: %v", e.Paths)
}

// Manifest is the resolved, ordered template set for one generation run.
type Manifest struct {
	Tier      tier.Kind
	Entries   []Entry
	Fragments []Fragment
	// Flags holds every evaluated predicate result; the render context
	// exposes them so templates gate fragment includes on fixed booleans.
	Flags map[string]bool
	// Directories is the skeleton the generated project must contain,
	// including data directories no entry writes into.
	Directories []string
}

// OutputPaths returns the declared output paths in manifest order.
func (m Manifest) OutputPaths() []string {
	paths := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		paths = append(paths, e.OutputPath)
	}
	return paths
}

// Entry returns the manifest entry for an output path.
func (m Manifest) Entry(outputPath string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.OutputPath == outputPath {
			return e, true
		}
	}
	return Entry{}, false
}

// Build resolves the manifest for a tier. A duplicate output path indicates
// a defect in the template set, not a user error; it is returned as an error
// so the pipeline aborts before rendering.
func Build(cfg config.Config, kind tier.Kind) (Manifest, error) {
	name := cfg.Provider.Name

	m := Manifest{
		Tier:        kind,
		Directories: []string{"env", "input", "output", "src", "state", "tests"},
		Flags:       map[string]bool{},
	}

	m.Entries = append(m.Entries,
		Entry{TemplateID: "base/anycost.py.tpl", OutputPath: "anycost.py"},
		Entry{TemplateID: "base/pyproject.toml.tpl", OutputPath: "pyproject.toml"},
		Entry{TemplateID: "base/readme.md.tpl", OutputPath: "README.md"},
		Entry{TemplateID: "base/gitignore.tpl", OutputPath: ".gitignore"},
		Entry{TemplateID: "base/env_example.tpl", OutputPath: "env/.env.example"},
		Entry{TemplateID: "src/config.py.tpl", OutputPath: fmt.Sprintf("src/%s_config.py", name)},
		Entry{TemplateID: "src/client.py.tpl", OutputPath: fmt.Sprintf("src/%s_client.py", name), UserCompleted: true},
		Entry{TemplateID: transformTemplate(kind), OutputPath: fmt.Sprintf("src/%s_transform.py", name), UserCompleted: true},
		Entry{TemplateID: "src/adaptor.py.tpl", OutputPath: fmt.Sprintf("src/%s_anycost_adaptor.py", name)},
		Entry{TemplateID: "src/tests.py.tpl", OutputPath: "tests/test_transform.py"},
		Entry{TemplateID: "static/cloudzero.py", OutputPath: "src/cloudzero.py", Static: true},
	)

	for _, p := range predicatesFor(kind) {
		included := p.fn(cfg)
		m.Flags[p.name] = included
		m.Fragments = append(m.Fragments, Fragment{
			TemplateID: p.fragment,
			Flag:       p.name,
			Included:   included,
		})
	}

	if err := checkUniquePaths(m.Entries); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func transformTemplate(kind tier.Kind) string {
	return fmt.Sprintf("src/transform_%s.py.tpl", kind)
}

func checkUniquePaths(entries []Entry) error {
	seen := make(map[string]string, len(entries))
	var dupes []string
	for _, e := range entries {
		if prev, ok := seen[e.OutputPath]; ok {
			dupes = append(dupes, fmt.Sprintf("%s (from %s and %s)", e.OutputPath, prev, e.TemplateID))
			continue
		}
		seen[e.OutputPath] = e.TemplateID
	}
	if len(dupes) == 0 {
		return nil
	}
	sort.Strings(dupes)
	return &DuplicatePathError{Paths: dupes}
}
