// Package display holds the CLI presentation helpers: banner, config
// summary, and styled status lines. All functions write to the writer they
// are given so tests can capture output.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/anycost-tools/adaptorgen/pkg/config"
	"github.com/anycost-tools/adaptorgen/pkg/output"
	"github.com/anycost-tools/adaptorgen/pkg/tier"
)

var (
	headline = color.New(color.Bold)
	cyan     = color.New(color.FgCyan, color.Bold)
	green    = color.New(color.FgGreen, color.Bold)
	yellow   = color.New(color.FgYellow, color.Bold)
	red      = color.New(color.FgRed, color.Bold)
)

// Banner prints the generator banner.
func Banner(w io.Writer) {
	headline.Fprintln(w, "AnyCost Adaptor Generator")
	fmt.Fprintln(w, "Generate customized CloudZero AnyCost Stream adaptors")
	fmt.Fprintln(w)
}

// TierInfo prints the resolved tier and how it was determined.
func TierInfo(w io.Writer, resolution tier.Resolution) {
	source := "auto-detected"
	if resolution.Explicit {
		source = "explicit"
	}
	cyan.Fprintf(w, "Tier: %s (%s)\n", resolution.Kind, source)
	fmt.Fprintf(w, "  %s\n", resolution.Kind.Description())
}

// ConfigSummary prints the key settings of a validated config.
func ConfigSummary(w io.Writer, cfg config.Config) {
	headline.Fprintln(w, "Configuration Summary")
	row := func(label string, value string) {
		fmt.Fprintf(w, "  %-18s %s\n", label, value)
	}
	row("Provider", cfg.Provider.DisplayName)
	row("Provider ID", cfg.Provider.Name)
	row("Service Type", cfg.Provider.ServiceType)
	row("API Base URL", cfg.API.BaseURL)
	row("Auth Method", string(cfg.API.AuthMethod))
	row("Required Env Vars", strings.Join(cfg.Auth.RequiredEnvVars, ", "))
	row("Tier Sections", strings.Join(cfg.TierSections(), ", "))
}

// Issues prints output-validation issues, warnings before errors.
func Issues(w io.Writer, issues []output.Issue) {
	for _, issue := range output.Warnings(issues) {
		Warning(w, issue.String())
	}
	for _, issue := range output.Errors(issues) {
		Error(w, issue.String())
	}
}

// Success prints a bold green status line.
func Success(w io.Writer, format string, args ...any) {
	green.Fprintf(w, format+"\n", args...)
}

// Warning prints a bold yellow status line.
func Warning(w io.Writer, format string, args ...any) {
	yellow.Fprintf(w, format+"\n", args...)
}

// Error prints a bold red status line.
func Error(w io.Writer, format string, args ...any) {
	red.Fprintf(w, format+"\n", args...)
}
