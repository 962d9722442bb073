// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"

	"github.com/example/modelgen/internal/models"
)

// ErrTableNotFound is returned by DescribeTable for an unknown table.
var ErrTableNotFound = errors.New("table not found")

// SchemaSource defines the secondary port for reading a relational schema.
// Implementations normalize vendor sentinels before returning descriptors.
type SchemaSource interface {
	// ListTables returns base table names in a stable order.
	ListTables(ctx context.Context) ([]string, error)

	// DescribeTable returns the table's columns in ordinal order and its
	// primary key columns in key order.
	DescribeTable(ctx context.Context, name string) (*models.Table, error)

	// ForeignKeys returns every foreign key edge, ordered by child table and
	// then child column ordinal.
	ForeignKeys(ctx context.Context) ([]models.ForeignKey, error)

	// Close releases the connection, if any.
	Close() error
}
