// Package postgres reads a schema from PostgreSQL through information_schema.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/modelgen/internal/models"
	"github.com/example/modelgen/internal/ports/secondary"
)

// DefaultSchema is used when no schema name is configured.
const DefaultSchema = "public"

// SchemaSource implements secondary.SchemaSource with PostgreSQL.
type SchemaSource struct {
	pool   *pgxpool.Pool
	schema string
	owned  bool
}

// NewSchemaSource creates a schema source over an existing pool.
func NewSchemaSource(pool *pgxpool.Pool, schema string) *SchemaSource {
	if schema == "" {
		schema = DefaultSchema
	}
	return &SchemaSource{pool: pool, schema: schema}
}

// Open connects to dsn and returns a source that owns the pool.
func Open(ctx context.Context, dsn, schema string) (*SchemaSource, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	src := NewSchemaSource(pool, schema)
	src.owned = true
	return src, nil
}

// ListTables returns base table names in the schema ordered by name.
func (s *SchemaSource) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := s.pool.Query(ctx, query, s.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// DescribeTable returns the columns and primary key of the named table.
func (s *SchemaSource) DescribeTable(ctx context.Context, name string) (*models.Table, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2)`,
		s.schema, name,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up table %s: %w", name, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s.%s", secondary.ErrTableNotFound, s.schema, name)
	}

	columns, err := s.columns(ctx, name)
	if err != nil {
		return nil, err
	}
	pks, err := s.primaryKey(ctx, name)
	if err != nil {
		return nil, err
	}

	return &models.Table{Name: name, Columns: columns, PrimaryKey: pks}, nil
}

func (s *SchemaSource) columns(ctx context.Context, table string) ([]models.Column, error) {
	query := `
		SELECT column_name, data_type, character_maximum_length::int, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := s.pool.Query(ctx, query, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var (
			col      models.Column
			maxLen   *int
			nullable string
			dflt     *string
		)
		if err := rows.Scan(&col.Name, &col.SQLType, &maxLen, &nullable, &dflt); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		col.Nullable = nullable == "YES"
		if maxLen != nil {
			col.MaxLength = models.NormalizeMaxLength(*maxLen)
		}
		if dflt != nil {
			col.Default = models.NormalizeDefault(*dflt)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	return columns, nil
}

func (s *SchemaSource) primaryKey(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`

	rows, err := s.pool.Query(ctx, query, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key of %s: %w", table, err)
	}
	defer rows.Close()

	var pks []string
	for rows.Next() {
		var pk string
		if err := rows.Scan(&pk); err != nil {
			return nil, fmt.Errorf("failed to scan primary key of %s: %w", table, err)
		}
		pks = append(pks, pk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read primary key of %s: %w", table, err)
	}
	return pks, nil
}

// ForeignKeys returns every foreign key of the schema ordered by child table
// and then child column ordinal. Composite keys are paired column by column.
func (s *SchemaSource) ForeignKeys(ctx context.Context) ([]models.ForeignKey, error) {
	query := `
		SELECT kcu.table_name, kcu.column_name, pk.table_name, pk.column_name
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = rc.constraint_schema
			AND kcu.constraint_name = rc.constraint_name
		JOIN information_schema.key_column_usage pk
			ON pk.constraint_schema = rc.unique_constraint_schema
			AND pk.constraint_name = rc.unique_constraint_name
			AND pk.ordinal_position = kcu.position_in_unique_constraint
		JOIN information_schema.columns c
			ON c.table_schema = kcu.table_schema
			AND c.table_name = kcu.table_name
			AND c.column_name = kcu.column_name
		WHERE kcu.table_schema = $1
		ORDER BY kcu.table_name, c.ordinal_position, kcu.constraint_name
	`

	rows, err := s.pool.Query(ctx, query, s.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}
	defer rows.Close()

	var edges []models.ForeignKey
	for rows.Next() {
		var fk models.ForeignKey
		if err := rows.Scan(&fk.FromTable, &fk.FromColumn, &fk.ToTable, &fk.ToColumn); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		edges = append(edges, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}
	return edges, nil
}

// Close closes the pool when the source opened it.
func (s *SchemaSource) Close() error {
	if s.owned {
		s.pool.Close()
	}
	return nil
}
