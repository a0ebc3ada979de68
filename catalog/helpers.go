package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Lookup when the schema or table does not exist.
var ErrNotFound = errors.New("not found")

// Lookup resolves schemaName.tableName in cat.
// Missing entries are reported with an error wrapping ErrNotFound.
func Lookup(ctx context.Context, cat Catalog, schemaName, tableName string) (Table, error) {
	schema, err := cat.Schema(ctx, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema %s: %w", schemaName, err)
	}
	if schema == nil {
		return nil, fmt.Errorf("schema %s: %w", schemaName, ErrNotFound)
	}

	table, err := schema.Table(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s.%s: %w", schemaName, tableName, err)
	}
	if table == nil {
		return nil, fmt.Errorf("table %s.%s: %w", schemaName, tableName, ErrNotFound)
	}
	return table, nil
}
