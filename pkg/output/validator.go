// Package output structurally validates the complete in-memory generated
// file set before anything is persisted. Generation succeeds only when the
// error list is empty; any error aborts before disk write.
package output

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/anycost-tools/adaptorgen/pkg/config"
	"github.com/anycost-tools/adaptorgen/pkg/manifest"
	"github.com/anycost-tools/adaptorgen/pkg/render"
)

// Severity distinguishes fatal structural errors from advisory notes.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one structural finding, attached to a generated file path.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(string(i.Severity)), i.Path, i.Message)
}

// Errors filters the fatal findings out of a validation result.
func Errors(issues []Issue) []Issue {
	var out []Issue
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// Warnings filters the advisory findings out of a validation result.
func Warnings(issues []Issue) []Issue {
	var out []Issue
	for _, issue := range issues {
		if issue.Severity == SeverityWarning {
			out = append(out, issue)
		}
	}
	return out
}

// ValidationError carries every fatal structural finding for a run. Its
// presence means nothing was written to disk.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	errs := Errors(e.Issues)
	msgs := make([]string, 0, len(errs))
	for _, issue := range errs {
		msgs = append(msgs, issue.String())
	}
	return fmt.Sprintf("output: generated project failed structural validation: %s", strings.Join(msgs, "; "))
}

// envVarsEveryAdaptorNeeds are required by the generated CloudZero client
// regardless of provider configuration.
var envVarsEveryAdaptorNeeds = []string{"CLOUDZERO_API_KEY", "CLOUDZERO_CONNECTION_ID"}

// Validate checks the complete generated file set against the manifest and
// the validated config. It accumulates every finding rather than stopping at
// the first:
//
//   - every manifest-declared output path is present exactly once, and no
//     undeclared file exists
//   - no unresolved template token remains ({{ }} always fatal; {% %} is
//     downgraded to a warning in files marked for user completion)
//   - pyproject.toml parses as TOML
//   - env/.env.example parses as an env file and carries every required
//     environment variable
//   - Python sources pass a structural delimiter check
func Validate(files []render.GeneratedFile, m manifest.Manifest, cfg config.Config) []Issue {
	var issues []Issue

	byPath := make(map[string]render.GeneratedFile, len(files))
	for _, f := range files {
		if _, dup := byPath[f.Path]; dup {
			issues = append(issues, Issue{SeverityError, f.Path, "generated more than once"})
			continue
		}
		byPath[f.Path] = f
	}

	for _, want := range m.OutputPaths() {
		if _, ok := byPath[want]; !ok {
			issues = append(issues, Issue{SeverityError, want, "expected file is missing from the generated set"})
		}
	}
	for _, f := range files {
		if _, ok := m.Entry(f.Path); !ok {
			issues = append(issues, Issue{SeverityError, f.Path, "file is not declared in the manifest"})
		}
	}

	for _, f := range files {
		entry, _ := m.Entry(f.Path)
		issues = append(issues, checkPlaceholders(f, entry)...)

		switch {
		case f.Path == "pyproject.toml":
			var doc map[string]any
			if err := toml.Unmarshal(f.Content, &doc); err != nil {
				issues = append(issues, Issue{SeverityError, f.Path, fmt.Sprintf("invalid TOML: %v", err)})
			}
		case strings.HasSuffix(f.Path, ".py"):
			if err := checkPythonStructure(f.Content); err != nil {
				issues = append(issues, Issue{SeverityError, f.Path, err.Error()})
			}
		}
	}

	if env, ok := byPath["env/.env.example"]; ok {
		issues = append(issues, checkEnvExample(env, cfg)...)
	}

	return issues
}

func checkPlaceholders(f render.GeneratedFile, entry manifest.Entry) []Issue {
	var issues []Issue
	content := string(f.Content)

	if strings.Contains(content, "{{") && strings.Contains(content, "}}") {
		issues = append(issues, Issue{SeverityError, f.Path, "unresolved template placeholder remains ({{ }})"})
	}
	if strings.Contains(content, "{%") && strings.Contains(content, "%}") {
		severity := SeverityError
		if entry.UserCompleted {
			severity = SeverityWarning
		}
		issues = append(issues, Issue{severity, f.Path, "unresolved template block tag remains ({% %})"})
	}

	// Advisory only: TODO regions are the designed customization points in
	// user-completed files, and unexpected in other Python sources. Docs may
	// mention them freely.
	if !entry.UserCompleted && strings.HasSuffix(f.Path, ".py") && strings.Contains(content, "TODO") {
		issues = append(issues, Issue{SeverityWarning, f.Path, "TODO marker in a file not designated for user completion"})
	}
	return issues
}

func checkEnvExample(f render.GeneratedFile, cfg config.Config) []Issue {
	var issues []Issue

	vars, err := godotenv.Unmarshal(string(f.Content))
	if err != nil {
		issues = append(issues, Issue{SeverityError, f.Path, fmt.Sprintf("invalid env file: %v", err)})
		return issues
	}

	required := append([]string{}, cfg.Auth.RequiredEnvVars...)
	required = append(required, envVarsEveryAdaptorNeeds...)
	for _, name := range required {
		if _, ok := vars[name]; !ok {
			issues = append(issues, Issue{SeverityError, f.Path, fmt.Sprintf("missing required env var %s", name)})
		}
	}
	return issues
}
