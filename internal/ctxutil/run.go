// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// RunIDKey is the context key for the generation run ID.
type RunIDKey struct{}

// TableKey is the context key for the table being processed.
type TableKey struct{}

// WithRunID returns a context with the run ID embedded.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey{}, runID)
}

// RunIDFromContext returns the run ID from context, or empty string if not set.
func RunIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(RunIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithTable returns a context with the current table name embedded.
func WithTable(ctx context.Context, table string) context.Context {
	return context.WithValue(ctx, TableKey{}, table)
}

// TableFromContext returns the table name from context, or empty string if not set.
func TableFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(TableKey{}).(string); ok {
		return v
	}
	return ""
}
