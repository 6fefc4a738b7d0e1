// Package adaptorgen generates CloudZero AnyCost adaptor project skeletons
// from a declarative provider configuration. The root package re-exports the
// pipeline entry points and the built-in template set so most callers only
// need this import.
package adaptorgen

import (
	"context"
	"embed"
	"io/fs"

	"github.com/anycost-tools/adaptorgen/pkg/config"
	"github.com/anycost-tools/adaptorgen/pkg/generator"
	"github.com/anycost-tools/adaptorgen/pkg/manifest"
	"github.com/anycost-tools/adaptorgen/pkg/tier"
)

//go:embed templates
var embeddedTemplates embed.FS

// Templates exposes the built-in template tree (rooted at its base/, src/,
// fragments/, and static/ directories) so callers can reuse or extend it
// without shipping files alongside the binary.
func Templates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Config is the validated provider configuration consumed by the pipeline.
type Config = config.Config

// Result summarizes a completed generation run.
type Result = generator.Result

// Resolution records which tier strategy a run used and whether the
// configuration named it explicitly.
type Resolution = tier.Resolution

// Manifest is the resolved template plan for a tier.
type Manifest = manifest.Manifest

// LoadConfig reads and validates a provider configuration from a YAML file.
func LoadConfig(path string) (config.Config, error) {
	return config.Load(path)
}

// Generate runs the full pipeline with the embedded templates and writes the
// project skeleton to outputDir. It is the simplest entry point for callers
// that just want a generated adaptor on disk.
func Generate(ctx context.Context, cfg config.Config, outputDir string, options ...generator.Option) (Result, error) {
	opts := append([]generator.Option{generator.WithTemplatesFS(Templates())}, options...)
	gen, err := generator.New(opts...)
	if err != nil {
		return Result{}, err
	}
	return gen.Generate(ctx, cfg, outputDir)
}

// Plan resolves the tier and template manifest for cfg without rendering or
// writing anything. The validate command is built on this.
func Plan(cfg config.Config, options ...generator.Option) (Resolution, Manifest, error) {
	opts := append([]generator.Option{generator.WithTemplatesFS(Templates())}, options...)
	gen, err := generator.New(opts...)
	if err != nil {
		return Resolution{}, Manifest{}, err
	}
	return gen.Plan(cfg)
}
