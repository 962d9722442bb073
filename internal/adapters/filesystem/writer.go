// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/modelgen/internal/ports/secondary"
)

// ManifestFile is the name of the run manifest inside the output directory.
const ManifestFile = "manifest.json"

// ModelWriter implements secondary.ModelWriter by writing files into a directory.
type ModelWriter struct {
	dir string
}

// NewModelWriter creates a writer rooted at dir. The directory is created on
// the first write.
func NewModelWriter(dir string) *ModelWriter {
	if dir == "" {
		dir = "."
	}
	return &ModelWriter{dir: dir}
}

// Dir returns the output directory.
func (w *ModelWriter) Dir() string {
	return w.dir
}

// WriteModel writes content to <dir>/<stem><ext>.
func (w *ModelWriter) WriteModel(ctx context.Context, stem, ext, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if stem == "" || strings.ContainsAny(stem, `/\`) || stem == "." || stem == ".." {
		return "", fmt.Errorf("invalid model file name %q", stem)
	}

	return w.write(stem+ext, []byte(content))
}

// WriteManifest writes the manifest as indented JSON.
func (w *ModelWriter) WriteManifest(ctx context.Context, manifest *secondary.Manifest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return w.write(ManifestFile, append(data, '\n'))
}

func (w *ModelWriter) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
