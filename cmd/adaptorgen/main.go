// Command adaptorgen generates CloudZero AnyCost Stream adaptor skeletons.
//
// Subcommands:
//
//	generate     Generate an adaptor from a YAML config file
//	validate     Validate a config file without generating
//	interactive  Walk through prompts to build a config and generate
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/anycost-tools/adaptorgen"
	"github.com/anycost-tools/adaptorgen/internal/display"
	"github.com/anycost-tools/adaptorgen/internal/interactive"
	"github.com/anycost-tools/adaptorgen/pkg/config"
	"github.com/anycost-tools/adaptorgen/pkg/generator"
	"github.com/anycost-tools/adaptorgen/pkg/manifest"
	"github.com/anycost-tools/adaptorgen/pkg/output"
	"github.com/anycost-tools/adaptorgen/pkg/render"
	"github.com/anycost-tools/adaptorgen/pkg/tier"
	"github.com/anycost-tools/adaptorgen/pkg/tui"
)

const version = "0.4.0"

// Exit codes, one per pipeline stage that can fail.
const (
	exitError      = 1
	exitSchema     = 2
	exitDetection  = 3
	exitRender     = 4
	exitValidation = 5
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitError
	}

	switch args[0] {
	case "generate":
		return cmdGenerate(args[1:])
	case "validate":
		return cmdValidate(args[1:])
	case "interactive":
		return cmdInteractive(args[1:])
	case "version", "--version":
		fmt.Printf("adaptorgen %s\n", version)
		return 0
	case "help", "-h", "--help":
		usage()
		return 0
	default:
		display.Error(os.Stderr, "unknown command %q", args[0])
		usage()
		return exitError
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `adaptorgen - generate customized CloudZero AnyCost Stream adaptors

Usage:
  adaptorgen generate -config <file> -output <dir> [-templates <dir>] [-verbose]
  adaptorgen validate -config <file> [-verbose]
  adaptorgen interactive [-output <dir>] [-save-config <file>] [-verbose]
  adaptorgen version`)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func cmdGenerate(args []string) int {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	outputDir := fs.String("output", "", "output directory")
	templatesDir := fs.String("templates", "", "load templates from this directory instead of the embedded set")
	workers := fs.Int("workers", 0, "render concurrency (0 = one per CPU)")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	fs.Parse(args)

	if *configPath == "" || *outputDir == "" {
		display.Error(os.Stderr, "generate requires -config and -output")
		return exitError
	}

	logger := newLogger(*verbose)

	cfg, err := adaptorgen.LoadConfig(*configPath)
	if err != nil {
		return report(err)
	}

	opts := []generator.Option{
		generator.WithLogger(logger),
		generator.WithWorkers(*workers),
	}
	if *templatesDir != "" {
		opts = append(opts, generator.WithTemplatesDir(*templatesDir))
	} else {
		opts = append(opts, generator.WithTemplatesFS(adaptorgen.Templates()))
	}
	gen, err := generator.New(opts...)
	if err != nil {
		return report(err)
	}

	result, err := gen.Generate(signalContext(), cfg, *outputDir)
	if err != nil {
		return report(err)
	}

	for _, warning := range result.Warnings {
		display.Warning(os.Stderr, "%s", warning)
	}
	display.TierInfo(os.Stdout, result.Resolution)
	display.Success(os.Stdout, "Generated %d files in %s", len(result.Files), result.OutputDir)
	return 0
}

func cmdValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	fs.Parse(args)

	if *configPath == "" {
		display.Error(os.Stderr, "validate requires -config")
		return exitError
	}
	_ = newLogger(*verbose)

	cfg, err := adaptorgen.LoadConfig(*configPath)
	if err != nil {
		return report(err)
	}

	resolution, m, err := adaptorgen.Plan(cfg)
	if err != nil {
		return report(err)
	}

	display.ConfigSummary(os.Stdout, cfg)
	display.TierInfo(os.Stdout, resolution)
	fmt.Printf("Plan: %d files, %d fragments\n", len(m.Entries), len(m.Fragments))
	display.Success(os.Stdout, "Config is valid.")
	return 0
}

func cmdInteractive(args []string) int {
	fs := flag.NewFlagSet("interactive", flag.ExitOnError)
	outputDir := fs.String("output", "./output", "output directory")
	saveConfig := fs.String("save-config", "", "also save the assembled YAML config to this path")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	fs.Parse(args)

	logger := newLogger(*verbose)
	ctx := signalContext()

	display.Banner(os.Stdout)

	builder := interactive.New(tui.NewSurveyDriver())
	doc, err := builder.Run(ctx)
	if err != nil {
		if errors.Is(err, interactive.ErrCancelled) {
			display.Warning(os.Stderr, "Generation cancelled.")
			return 0
		}
		return report(err)
	}

	cfg, err := config.FromMap(doc)
	if err != nil {
		return report(err)
	}

	if *saveConfig != "" {
		if err := interactive.SaveYAML(doc, *saveConfig); err != nil {
			return report(err)
		}
		fmt.Printf("Config saved to: %s\n", *saveConfig)
	}

	gen, err := generator.New(
		generator.WithTemplatesFS(adaptorgen.Templates()),
		generator.WithLogger(logger),
	)
	if err != nil {
		return report(err)
	}

	result, err := gen.Generate(ctx, cfg, *outputDir)
	if err != nil {
		return report(err)
	}

	for _, warning := range result.Warnings {
		display.Warning(os.Stderr, "%s", warning)
	}
	display.Success(os.Stdout, "Generated %d files in %s", len(result.Files), result.OutputDir)
	display.Success(os.Stdout, "All validation checks passed.")
	return 0
}

// report prints the error and maps it to the stage-specific exit code.
func report(err error) int {
	display.Error(os.Stderr, "%v", err)
	return exitCode(err)
}

func exitCode(err error) int {
	var (
		schemaList    config.SchemaErrorList
		schemaErr     config.SchemaError
		detectionErr  *tier.DetectionError
		renderList    render.ErrorList
		renderErr     *render.Error
		dupErr        *manifest.DuplicatePathError
		validationErr *output.ValidationError
	)
	switch {
	case errors.As(err, &schemaList), errors.As(err, &schemaErr):
		return exitSchema
	case errors.As(err, &detectionErr):
		return exitDetection
	case errors.As(err, &renderList), errors.As(err, &renderErr), errors.As(err, &dupErr):
		return exitRender
	case errors.As(err, &validationErr):
		return exitValidation
	default:
		return exitError
	}
}

func signalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt)
	return ctx
}
