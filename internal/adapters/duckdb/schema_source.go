// Package duckdb reads a schema from a DuckDB database file.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/example/modelgen/internal/core/model"
	"github.com/example/modelgen/internal/db"
	"github.com/example/modelgen/internal/models"
	"github.com/example/modelgen/internal/ports/secondary"
)

// DriverName is the database/sql driver registered by go-duckdb.
const DriverName = "duckdb"

// DefaultSchema is used when no schema name is configured.
const DefaultSchema = "main"

// SchemaSource implements secondary.SchemaSource with DuckDB.
type SchemaSource struct {
	db     *sql.DB
	schema string
	owned  bool
}

// NewSchemaSource creates a schema source over an existing handle.
func NewSchemaSource(db *sql.DB, schema string) *SchemaSource {
	if schema == "" {
		schema = DefaultSchema
	}
	return &SchemaSource{db: db, schema: schema}
}

// Open opens the database at dsn and returns a source that owns the handle.
func Open(ctx context.Context, dsn, schema string, pool db.PoolConfig) (*SchemaSource, error) {
	conn, err := db.Open(ctx, DriverName, dsn, pool)
	if err != nil {
		return nil, err
	}
	src := NewSchemaSource(conn, schema)
	src.owned = true
	return src, nil
}

// ListTables returns base table names ordered by name.
func (s *SchemaSource) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`, s.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DescribeTable returns the columns and primary key of the named table.
func (s *SchemaSource) DescribeTable(ctx context.Context, name string) (*models.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT column_name, data_type, character_maximum_length, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, s.schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	defer rows.Close()

	table := &models.Table{Name: name}
	for rows.Next() {
		var (
			col      models.Column
			maxLen   sql.NullInt64
			nullable string
			dflt     sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.SQLType, &maxLen, &nullable, &dflt); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", name, err)
		}
		col.Nullable = nullable == "YES"
		if maxLen.Valid {
			col.MaxLength = models.NormalizeMaxLength(int(maxLen.Int64))
		}
		if col.MaxLength == nil && model.IsBoundedString(col.SQLType) {
			col.MaxLength = models.LengthFromType(col.SQLType)
		}
		if dflt.Valid {
			col.Default = models.NormalizeDefault(dflt.String)
		}
		table.Columns = append(table.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	rows.Close()

	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", secondary.ErrTableNotFound, s.schema, name)
	}

	constraints, err := s.constraints(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, c := range constraints {
		if c.Kind == PrimaryKey {
			table.PrimaryKey = c.Columns
			break
		}
	}
	return table, nil
}

// ForeignKeys returns every foreign key ordered by child table name and then
// child column ordinal.
func (s *SchemaSource) ForeignKeys(ctx context.Context) ([]models.ForeignKey, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	var edges []models.ForeignKey
	for _, table := range tables {
		described, err := s.DescribeTable(ctx, table)
		if err != nil {
			return nil, err
		}
		ordinal := make(map[string]int, len(described.Columns))
		for i, col := range described.Columns {
			ordinal[col.Name] = i
		}

		constraints, err := s.constraints(ctx, table)
		if err != nil {
			return nil, err
		}
		var tableEdges []models.ForeignKey
		for _, c := range constraints {
			if c.Kind != ForeignKey {
				continue
			}
			for i, col := range c.Columns {
				edge := models.ForeignKey{FromTable: table, FromColumn: col, ToTable: c.RefTable}
				if i < len(c.RefColumns) {
					edge.ToColumn = c.RefColumns[i]
				}
				tableEdges = append(tableEdges, edge)
			}
		}
		sort.SliceStable(tableEdges, func(i, j int) bool {
			return ordinal[tableEdges[i].FromColumn] < ordinal[tableEdges[j].FromColumn]
		})
		edges = append(edges, tableEdges...)
	}
	return edges, nil
}

func (s *SchemaSource) constraints(ctx context.Context, table string) ([]Constraint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT constraint_text
		FROM duckdb_constraints()
		WHERE schema_name = ? AND table_name = ?
			AND constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY')
		ORDER BY constraint_index`, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read constraints of %s: %w", table, err)
	}
	defer rows.Close()

	var out []Constraint
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan constraint of %s: %w", table, err)
		}
		if c, ok := ParseConstraint(text); ok {
			out = append(out, c)
		}
	}
	return out, rows.Err()
}

// Close closes the handle when the source opened it.
func (s *SchemaSource) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
