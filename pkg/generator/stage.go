package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anycost-tools/adaptorgen/pkg/render"
)

// commit materializes the validated file set. Everything is written into a
// staging directory created beside the target, then renamed into place, so a
// crash mid-write never leaves a partially populated project: either the
// full skeleton exists or nothing does.
func commit(files []render.GeneratedFile, directories []string, outputDir string) (err error) {
	target, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("generator: resolve output dir: %w", err)
	}

	if _, statErr := os.Stat(target); statErr == nil {
		return fmt.Errorf("generator: output directory %s already exists", target)
	} else if !os.IsNotExist(statErr) {
		return fmt.Errorf("generator: stat output dir: %w", statErr)
	}

	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("generator: create parent dir: %w", err)
	}

	staging, err := os.MkdirTemp(parent, ".adaptorgen-staging-")
	if err != nil {
		return fmt.Errorf("generator: create staging dir: %w", err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(staging)
		}
	}()

	for _, dir := range directories {
		if err = os.MkdirAll(filepath.Join(staging, dir), 0o755); err != nil {
			return fmt.Errorf("generator: create %s: %w", dir, err)
		}
	}

	for _, file := range files {
		dest := filepath.Join(staging, filepath.FromSlash(file.Path))
		if err = os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("generator: create dir for %s: %w", file.Path, err)
		}
		mode := os.FileMode(0o644)
		if file.Path == "anycost.py" {
			mode = 0o755
		}
		if err = os.WriteFile(dest, file.Content, mode); err != nil {
			return fmt.Errorf("generator: write %s: %w", file.Path, err)
		}
	}

	if err = os.Rename(staging, target); err != nil {
		return fmt.Errorf("generator: move staged project into place: %w", err)
	}
	return nil
}
