// Package generator wires the pipeline stages together: tier resolution,
// manifest construction, rendering, structural validation, and the final
// atomic write. Every stage before the write is a pure transformation; a
// stage that produces any error halts the run before the next stage.
package generator

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"

	"github.com/anycost-tools/adaptorgen/pkg/config"
	"github.com/anycost-tools/adaptorgen/pkg/manifest"
	"github.com/anycost-tools/adaptorgen/pkg/output"
	"github.com/anycost-tools/adaptorgen/pkg/render"
	"github.com/anycost-tools/adaptorgen/pkg/tier"
)

// Option configures a Generator.
type Option func(*Generator)

// WithTemplatesFS supplies the template tree, typically the embedded set.
func WithTemplatesFS(files fs.FS) Option {
	return func(g *Generator) {
		g.templates = files
	}
}

// WithTemplatesDir loads templates from disk instead of the embedded set.
func WithTemplatesDir(dir string) Option {
	return func(g *Generator) {
		g.templatesDir = dir
	}
}

// WithLogger attaches a logger; the generator stays silent without one.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithWorkers caps render concurrency.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		g.workers = n
	}
}

// Generator runs the generation pipeline. Construct a fresh value per
// invocation path; it holds no mutable state between runs.
type Generator struct {
	templates    fs.FS
	templatesDir string
	workers      int
	logger       *slog.Logger

	engine *render.Engine
}

// New constructs a Generator. A template source (WithTemplatesFS or
// WithTemplatesDir) is required.
func New(options ...Option) (*Generator, error) {
	g := &Generator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	engineOpts := []render.Option{}
	switch {
	case g.templatesDir != "":
		engineOpts = append(engineOpts, render.WithBaseDir(g.templatesDir))
	case g.templates != nil:
		engineOpts = append(engineOpts, render.WithFS(g.templates))
	default:
		return nil, errors.New("generator: a template source is required")
	}
	if g.workers > 0 {
		engineOpts = append(engineOpts, render.WithWorkers(g.workers))
	}

	engine, err := render.NewEngine(engineOpts...)
	if err != nil {
		return nil, err
	}
	g.engine = engine
	return g, nil
}

// Result summarizes a successful run (or, for Plan, the resolved strategy).
type Result struct {
	Resolution tier.Resolution
	Manifest   manifest.Manifest
	// Files are the written output paths, relative to OutputDir.
	Files     []string
	OutputDir string
	// Warnings are non-fatal structural notes from output validation.
	Warnings []output.Issue
}

// Plan resolves the tier and builds the manifest without rendering. The
// validate command stops here; generate continues with the same plan.
func (g *Generator) Plan(cfg config.Config) (tier.Resolution, manifest.Manifest, error) {
	resolution, err := tier.Resolve(cfg)
	if err != nil {
		return tier.Resolution{}, manifest.Manifest{}, err
	}

	m, err := manifest.Build(cfg, resolution.Kind)
	if err != nil {
		return tier.Resolution{}, manifest.Manifest{}, err
	}

	g.logger.Debug("plan resolved",
		"tier", resolution.Kind,
		"explicit", resolution.Explicit,
		"entries", len(m.Entries),
		"fragments", len(m.Fragments))
	return resolution, m, nil
}

// Generate runs the full pipeline and materializes the project skeleton at
// outputDir. The write is all-or-nothing: files render into a staging
// directory beside the target and move into place only after the complete
// set passes structural validation. A failing run writes nothing.
func (g *Generator) Generate(ctx context.Context, cfg config.Config, outputDir string) (Result, error) {
	resolution, m, err := g.Plan(cfg)
	if err != nil {
		return Result{}, err
	}

	files, err := g.engine.RenderAll(ctx, cfg, m)
	if err != nil {
		return Result{}, err
	}
	g.logger.Debug("rendered", "files", len(files))

	issues := output.Validate(files, m, cfg)
	if errs := output.Errors(issues); len(errs) > 0 {
		return Result{}, &output.ValidationError{Issues: issues}
	}

	if err := commit(files, m.Directories, outputDir); err != nil {
		return Result{}, err
	}

	result := Result{
		Resolution: resolution,
		Manifest:   m,
		Files:      m.OutputPaths(),
		OutputDir:  outputDir,
		Warnings:   output.Warnings(issues),
	}
	g.logger.Info("generated adaptor skeleton",
		"provider", cfg.Provider.Name,
		"tier", resolution.Kind,
		"output", outputDir,
		"files", len(result.Files))
	return result, nil
}
