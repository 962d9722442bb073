package models

import "strings"

// Column describes one table column as reported by a schema source.
// MaxLength is nil for unbounded or non-string columns; Default is nil when
// the column has no default.
type Column struct {
	Name      string  `json:"name" yaml:"name"`
	SQLType   string  `json:"type" yaml:"type"`
	MaxLength *int    `json:"max_length,omitempty" yaml:"length,omitempty"`
	Nullable  bool    `json:"nullable" yaml:"nullable"`
	Default   *string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Table describes a table and its columns in ordinal order.
type Table struct {
	Name       string   `json:"name" yaml:"name"`
	Columns    []Column `json:"columns" yaml:"columns"`
	PrimaryKey []string `json:"primary_key,omitempty" yaml:"primaryKey,omitempty"`
}

// HasColumn reports whether the table has a column with the given name.
// Column names are matched exactly.
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// IsPrimaryKey reports whether name is part of the table's primary key.
func (t *Table) IsPrimaryKey(name string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == name {
			return true
		}
	}
	return false
}

// ForeignKey is a directed edge: FromTable.FromColumn references
// ToTable.ToColumn.
type ForeignKey struct {
	FromTable  string `json:"from_table" yaml:"childTable"`
	FromColumn string `json:"from_column" yaml:"childKey"`
	ToTable    string `json:"to_table" yaml:"parentTable"`
	ToColumn   string `json:"to_column" yaml:"parentKey"`
}

// IsSelfReference reports whether the edge points back at its own table.
func (fk ForeignKey) IsSelfReference() bool {
	return fk.FromTable == fk.ToTable
}

// TableNames returns the names of the given tables in order.
func TableNames(tables []Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

// EqualFold reports whether two table names match case-insensitively.
func EqualFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
