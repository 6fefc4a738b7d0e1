package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/anycost-tools/adaptorgen/pkg/config"
	"github.com/anycost-tools/adaptorgen/pkg/manifest"
)

// Option configures the engine before construction.
type Option func(*engineConfig)

type engineConfig struct {
	baseDir string
	files   fs.FS
	workers int
}

// WithFS loads template bodies from an fs.FS, typically the embedded
// template tree.
func WithFS(files fs.FS) Option {
	return func(cfg *engineConfig) {
		cfg.files = files
	}
}

// WithBaseDir loads template bodies from a directory on disk, overriding the
// embedded set.
func WithBaseDir(dir string) Option {
	return func(cfg *engineConfig) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithWorkers caps the number of concurrent render workers.
func WithWorkers(n int) Option {
	return func(cfg *engineConfig) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// Engine expands manifest entries against a render context. Rendering is
// pure: no disk writes, no shared mutable state across invocations.
type Engine struct {
	files   fs.FS
	set     *pongo2.TemplateSet
	workers int
}

// NewEngine constructs an Engine from the provided options. Either WithFS or
// WithBaseDir is required.
func NewEngine(options ...Option) (*Engine, error) {
	cfg := &engineConfig{workers: runtime.NumCPU()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.baseDir != "" {
		cfg.files = os.DirFS(cfg.baseDir)
	}
	if cfg.files == nil {
		return nil, errors.New("render: need to provide either base dir or fs.FS")
	}

	registerDefaultFilters()

	return &Engine{
		files:   cfg.files,
		set:     pongo2.NewSet("adaptorgen", pongo2.NewFSLoader(cfg.files)),
		workers: cfg.workers,
	}, nil
}

// RenderAll expands every manifest entry and returns the generated files in
// manifest order. Fragment templates render first; their output is injected
// into the context under <fragment>_block names so parent templates compose
// them without re-evaluating inclusion conditions. Render failures are
// accumulated into an ErrorList; a template referencing a variable absent
// from its context fails before any expansion of that template.
func (e *Engine) RenderAll(ctx context.Context, cfg config.Config, m manifest.Manifest) ([]GeneratedFile, error) {
	if e == nil || e.set == nil {
		return nil, errors.New("render: engine is nil")
	}

	base, err := BuildContext(cfg, m)
	if err != nil {
		return nil, err
	}

	var errs ErrorList
	for _, fragment := range m.Fragments {
		blockVar := fragment.BlockVar()
		base[blockVar] = ""
		if !fragment.Included {
			continue
		}
		rendered, rerr := e.renderOne(fragment.TemplateID, base)
		if rerr != nil {
			errs = append(errs, rerr)
			continue
		}
		base[blockVar] = strings.TrimRight(string(rendered), "\n")
	}

	files := make([]GeneratedFile, len(m.Entries))
	entryErrs := make([]*Error, len(m.Entries))

	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	for i, entry := range m.Entries {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int, entry manifest.Entry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			content, rerr := e.renderEntry(entry, base)
			if rerr != nil {
				entryErrs[i] = rerr
				return
			}
			files[i] = GeneratedFile{
				Path:       entry.OutputPath,
				Content:    content,
				TemplateID: entry.TemplateID,
			}
		}(i, entry)
	}
	// Wait even when cancelled so no render goroutine outlives the call.
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, rerr := range entryErrs {
		if rerr != nil {
			errs = append(errs, rerr)
		}
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].TemplateID < errs[j].TemplateID })
		return nil, errs
	}
	return files, nil
}

func (e *Engine) renderEntry(entry manifest.Entry, context map[string]any) ([]byte, *Error) {
	if entry.Static {
		body, err := fs.ReadFile(e.files, entry.TemplateID)
		if err != nil {
			return nil, &Error{TemplateID: entry.TemplateID, Err: err}
		}
		return body, nil
	}
	return e.renderOne(entry.TemplateID, context)
}

func (e *Engine) renderOne(templateID string, context map[string]any) ([]byte, *Error) {
	body, err := fs.ReadFile(e.files, templateID)
	if err != nil {
		return nil, &Error{TemplateID: templateID, Err: fmt.Errorf("read template: %w", err)}
	}

	for _, name := range requiredVariables(body) {
		if _, ok := context[name]; !ok {
			return nil, &Error{TemplateID: templateID, Variable: name}
		}
	}

	tmpl, err := e.set.FromString(string(body))
	if err != nil {
		return nil, &Error{TemplateID: templateID, Err: fmt.Errorf("parse: %w", err)}
	}

	out, err := tmpl.ExecuteBytes(pongo2.Context(context))
	if err != nil {
		return nil, &Error{TemplateID: templateID, Err: fmt.Errorf("execute: %w", err)}
	}
	return out, nil
}

var filterSetup sync.Once

// registerDefaultFilters installs the code-generation filters shared by the
// template set. pongo2 keeps a process-wide filter registry, so registration
// runs once; autoescaping is disabled because every output is plain text,
// not HTML.
func registerDefaultFilters() {
	filterSetup.Do(func() {
		pongo2.SetAutoescape(false)

		_ = pongo2.RegisterFilter("quote", func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(fmt.Sprintf("%q", in.String())), nil
		})

		_ = pongo2.RegisterFilter("pylist", func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			indent := 8
			if param != nil && param.Integer() > 0 {
				indent = param.Integer()
			}
			var items []string
			in.Iterate(func(_, _ int, item, _ *pongo2.Value) bool {
				items = append(items, item.String())
				return true
			}, func() {})
			return pongo2.AsValue(formatPyList(items, indent)), nil
		})

		_ = pongo2.RegisterFilter("indent_lines", func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			spaces := 4
			if param != nil && param.Integer() > 0 {
				spaces = param.Integer()
			}
			return pongo2.AsValue(indentLines(in.String(), spaces)), nil
		})
	})
}

// formatPyList renders strings as a Python list literal, one element per
// line at the given indent.
func formatPyList(items []string, indent int) string {
	if len(items) == 0 {
		return "[]"
	}
	pad := strings.Repeat(" ", indent)
	var b strings.Builder
	b.WriteString("[\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%s%q,\n", pad, item)
	}
	b.WriteString(strings.Repeat(" ", max(indent-4, 0)))
	b.WriteString("]")
	return b.String()
}

func indentLines(text string, spaces int) string {
	pad := strings.Repeat(" ", spaces)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}
