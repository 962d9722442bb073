// Package markdown reads a schema from a directory of markdown responses
// saved from a database query tool: tables.md lists the tables and
// <Table>.md describes each one.
package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/example/modelgen/internal/models"
	"github.com/example/modelgen/internal/ports/secondary"
)

// TablesFile is the listing file inside the schema directory.
const TablesFile = "tables.md"

// SchemaSource implements secondary.SchemaSource over a directory.
type SchemaSource struct {
	fsys fs.FS
}

// NewSchemaSource creates a source reading from dir.
func NewSchemaSource(dir string) (*SchemaSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema path %s is not a directory", dir)
	}
	return &SchemaSource{fsys: os.DirFS(dir)}, nil
}

// NewSchemaSourceFS creates a source over an fs.FS.
func NewSchemaSourceFS(fsys fs.FS) *SchemaSource {
	return &SchemaSource{fsys: fsys}
}

// ListTables parses tables.md.
func (s *SchemaSource) ListTables(ctx context.Context) ([]string, error) {
	data, err := fs.ReadFile(s.fsys, TablesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", TablesFile, err)
	}
	return ParseTableList(string(data)), nil
}

// DescribeTable parses <name>.md.
func (s *SchemaSource) DescribeTable(ctx context.Context, name string) (*models.Table, error) {
	table, _, err := s.read(name)
	return table, err
}

// ForeignKeys collects the foreign key sections of every listed table. A
// listed table without a response file contributes no edges.
func (s *SchemaSource) ForeignKeys(ctx context.Context) ([]models.ForeignKey, error) {
	names, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var edges []models.ForeignKey
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, tableEdges, err := s.read(name)
		if errors.Is(err, secondary.ErrTableNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sort.SliceStable(tableEdges, func(i, j int) bool {
			return ordinal(table, tableEdges[i].FromColumn) < ordinal(table, tableEdges[j].FromColumn)
		})
		edges = append(edges, tableEdges...)
	}
	return edges, nil
}

// Close is a no-op.
func (s *SchemaSource) Close() error { return nil }

func (s *SchemaSource) read(name string) (*models.Table, []models.ForeignKey, error) {
	file := name + ".md"
	if filepath.Base(file) != file {
		return nil, nil, fmt.Errorf("%w: %s", secondary.ErrTableNotFound, name)
	}
	data, err := fs.ReadFile(s.fsys, file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", secondary.ErrTableNotFound, name)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	table, edges, err := ParseTableDetails(name, string(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	return table, edges, nil
}

func ordinal(table *models.Table, column string) int {
	for i, c := range table.Columns {
		if models.EqualFold(c.Name, column) {
			return i
		}
	}
	return len(table.Columns)
}
