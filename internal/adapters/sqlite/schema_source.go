// Package sqlite reads a schema from a SQLite database through its catalog
// pragmas.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/modelgen/internal/core/model"
	"github.com/example/modelgen/internal/db"
	"github.com/example/modelgen/internal/models"
	"github.com/example/modelgen/internal/ports/secondary"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

// SchemaSource implements secondary.SchemaSource with SQLite.
type SchemaSource struct {
	db    *sql.DB
	owned bool
}

// NewSchemaSource creates a schema source over an existing handle. Close does
// not close the handle.
func NewSchemaSource(db *sql.DB) *SchemaSource {
	return &SchemaSource{db: db}
}

// Open opens the database at dsn and returns a source that owns the handle.
func Open(ctx context.Context, dsn string, pool db.PoolConfig) (*SchemaSource, error) {
	conn, err := db.Open(ctx, DriverName, dsn, pool)
	if err != nil {
		return nil, err
	}
	return &SchemaSource{db: conn, owned: true}, nil
}

// ListTables returns user tables ordered by name.
func (s *SchemaSource) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
	)
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
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to look up table %s: %w", name, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", secondary.ErrTableNotFound, name)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	defer rows.Close()

	type keyColumn struct {
		name string
		pos  int
	}
	var (
		table = &models.Table{Name: name}
		keys  []keyColumn
	)
	for rows.Next() {
		var (
			col     models.Column
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&col.Name, &col.SQLType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", name, err)
		}
		col.Nullable = notNull == 0 && pk == 0
		if model.IsBoundedString(col.SQLType) {
			col.MaxLength = models.LengthFromType(col.SQLType)
		}
		if dflt.Valid {
			col.Default = models.NormalizeDefault(dflt.String)
		}
		if pk > 0 {
			keys = append(keys, keyColumn{name: col.Name, pos: pk})
		}
		table.Columns = append(table.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].pos < keys[j].pos })
	for _, k := range keys {
		table.PrimaryKey = append(table.PrimaryKey, k.name)
	}
	return table, nil
}

// ForeignKeys returns every foreign key ordered by child table name and then
// child column ordinal. A reference without an explicit parent column points
// at the parent's primary key.
func (s *SchemaSource) ForeignKeys(ctx context.Context) ([]models.ForeignKey, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	var edges []models.ForeignKey
	for _, table := range tables {
		tableEdges, err := s.foreignKeysOf(ctx, table)
		if err != nil {
			return nil, err
		}
		edges = append(edges, tableEdges...)
	}
	return edges, nil
}

func (s *SchemaSource) foreignKeysOf(ctx context.Context, table string) ([]models.ForeignKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fk."table", fk."from", fk."to", fk.seq
		FROM pragma_foreign_key_list(?) fk
		JOIN pragma_table_info(?) ti ON ti.name = fk."from"
		ORDER BY ti.cid, fk.id, fk.seq`,
		table, table,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	type pending struct {
		edge models.ForeignKey
		seq  int
	}
	var found []pending
	for rows.Next() {
		var (
			p  pending
			to sql.NullString
		)
		if err := rows.Scan(&p.edge.ToTable, &p.edge.FromColumn, &to, &p.seq); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key of %s: %w", table, err)
		}
		p.edge.FromTable = table
		p.edge.ToColumn = to.String
		found = append(found, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read foreign keys of %s: %w", table, err)
	}
	rows.Close()

	edges := make([]models.ForeignKey, 0, len(found))
	for _, p := range found {
		if p.edge.ToColumn == "" {
			parent, err := s.DescribeTable(ctx, p.edge.ToTable)
			if err == nil && p.seq < len(parent.PrimaryKey) {
				p.edge.ToColumn = parent.PrimaryKey[p.seq]
			}
		}
		edges = append(edges, p.edge)
	}
	return edges, nil
}

// Close closes the handle when the source opened it.
func (s *SchemaSource) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
