// Package catalog provides the read-only metadata model served over Flight:
// a catalog of schemas, each holding tables that can be scanned into Arrow
// records.
//
// All interfaces are goroutine-safe and support context-based cancellation.
package catalog

import (
	"context"
)

// Catalog represents the top-level metadata container.
// All methods MUST be goroutine-safe.
type Catalog interface {
	// Schemas returns all schemas visible in this catalog, ordered by name.
	// Returns empty slice (not nil) if no schemas available.
	Schemas(ctx context.Context) ([]Schema, error)

	// Schema returns a specific schema by name.
	// Returns (nil, nil) if schema doesn't exist (not an error).
	Schema(ctx context.Context, name string) (Schema, error)
}

// Schema represents a database schema containing tables.
// Implementations MUST be goroutine-safe.
type Schema interface {
	// Name returns the schema name (e.g., "main", "github").
	Name() string

	// Comment returns optional schema documentation.
	Comment() string

	// Tables returns all tables in this schema, ordered by name.
	Tables(ctx context.Context) ([]Table, error)

	// Table returns a specific table by name.
	// Returns (nil, nil) if table doesn't exist (not an error).
	Table(ctx context.Context, name string) (Table, error)
}
