// Package schemafile reads a static schema description from a YAML or JSON
// document.
//
//	tables:
//	  - name: Regions
//	    primaryKey: [RegionId]
//	    columns:
//	      - {name: RegionId, type: int}
//	      - {name: Name, type: nvarchar, length: 100}
//	relationships:
//	  - {childTable: Clusters, childKey: RegionId, parentTable: Regions, parentKey: RegionId}
package schemafile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/example/modelgen/internal/models"
	"github.com/example/modelgen/internal/ports/secondary"
)

// ErrDuplicateTable is returned when a document names a table twice.
var ErrDuplicateTable = errors.New("duplicate table")

type document struct {
	Tables        []tableDoc          `yaml:"tables"`
	Relationships []models.ForeignKey `yaml:"relationships"`
}

type tableDoc struct {
	Name       string      `yaml:"name"`
	PrimaryKey []string    `yaml:"primaryKey"`
	Columns    []columnDoc `yaml:"columns"`
}

// columnDoc keeps length and default as text so documents may carry the
// vendor sentinels (N/A, -1, max, NULL) verbatim.
type columnDoc struct {
	Name     string  `yaml:"name"`
	Type     string  `yaml:"type"`
	Length   string  `yaml:"length"`
	Nullable bool    `yaml:"nullable"`
	Default  *string `yaml:"default"`
}

// SchemaSource implements secondary.SchemaSource over a loaded document.
type SchemaSource struct {
	tables map[string]*models.Table
	order  []string
	edges  []models.ForeignKey
}

// Open reads the document at path.
func Open(path string) (*SchemaSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a document. JSON is accepted as a subset of YAML.
func Parse(r io.Reader) (*SchemaSource, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	src := &SchemaSource{tables: make(map[string]*models.Table, len(doc.Tables))}
	for _, td := range doc.Tables {
		if td.Name == "" {
			return nil, fmt.Errorf("failed to parse schema file: table without a name")
		}
		if _, ok := src.tables[td.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, td.Name)
		}
		table := &models.Table{Name: td.Name, PrimaryKey: td.PrimaryKey}
		for _, cd := range td.Columns {
			col := models.Column{
				Name:      cd.Name,
				SQLType:   cd.Type,
				MaxLength: models.ParseMaxLength(cd.Length),
				Nullable:  cd.Nullable,
			}
			if cd.Default != nil {
				col.Default = models.NormalizeDefault(*cd.Default)
			}
			table.Columns = append(table.Columns, col)
		}
		src.tables[td.Name] = table
		src.order = append(src.order, td.Name)
	}

	src.edges = append(src.edges, doc.Relationships...)
	sort.SliceStable(src.edges, func(i, j int) bool {
		a, b := src.edges[i], src.edges[j]
		if a.FromTable != b.FromTable {
			return a.FromTable < b.FromTable
		}
		return src.ordinal(a) < src.ordinal(b)
	})
	return src, nil
}

// ListTables returns tables in document order.
func (s *SchemaSource) ListTables(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.order...), nil
}

// DescribeTable returns a copy of the named table.
func (s *SchemaSource) DescribeTable(ctx context.Context, name string) (*models.Table, error) {
	table, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", secondary.ErrTableNotFound, name)
	}
	cp := *table
	cp.Columns = append([]models.Column(nil), table.Columns...)
	cp.PrimaryKey = append([]string(nil), table.PrimaryKey...)
	return &cp, nil
}

// ForeignKeys returns the relationships ordered by child table and column.
func (s *SchemaSource) ForeignKeys(ctx context.Context) ([]models.ForeignKey, error) {
	return append([]models.ForeignKey(nil), s.edges...), nil
}

// Close is a no-op.
func (s *SchemaSource) Close() error { return nil }

func (s *SchemaSource) ordinal(fk models.ForeignKey) int {
	table, ok := s.tables[fk.FromTable]
	if !ok {
		return 0
	}
	for i, c := range table.Columns {
		if c.Name == fk.FromColumn {
			return i
		}
	}
	return len(table.Columns)
}
