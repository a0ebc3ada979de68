package catalog

import (
	"context"
	"slices"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// StaticCatalog is a catalog whose content is fixed once built.
// It is filled with AddSchema during start-up and read concurrently after.
type StaticCatalog struct {
	schemas map[string]*staticSchema
}

// NewStaticCatalog creates an empty static catalog.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{
		schemas: make(map[string]*staticSchema),
	}
}

// AddSchema adds a schema with the given tables, replacing any schema of
// the same name.
func (c *StaticCatalog) AddSchema(name, comment string, tables []Table) {
	s := &staticSchema{
		name:    name,
		comment: comment,
		tables:  make(map[string]Table, len(tables)),
	}
	for _, t := range tables {
		s.tables[t.Name()] = t
	}
	c.schemas[name] = s
}

// Schemas implements Catalog interface.
func (c *StaticCatalog) Schemas(ctx context.Context) ([]Schema, error) {
	result := make([]Schema, 0, len(c.schemas))
	for _, name := range sortedKeys(c.schemas) {
		result = append(result, c.schemas[name])
	}
	return result, nil
}

// Schema implements Catalog interface.
func (c *StaticCatalog) Schema(ctx context.Context, name string) (Schema, error) {
	schema, ok := c.schemas[name]
	if !ok {
		return nil, nil // Not found, not an error
	}
	return schema, nil
}

type staticSchema struct {
	name    string
	comment string
	tables  map[string]Table
}

func (s *staticSchema) Name() string    { return s.name }
func (s *staticSchema) Comment() string { return s.comment }

func (s *staticSchema) Tables(ctx context.Context) ([]Table, error) {
	result := make([]Table, 0, len(s.tables))
	for _, name := range sortedKeys(s.tables) {
		result = append(result, s.tables[name])
	}
	return result, nil
}

func (s *staticSchema) Table(ctx context.Context, name string) (Table, error) {
	table, ok := s.tables[name]
	if !ok {
		return nil, nil
	}
	return table, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, strings.Compare)
	return keys
}

// NewStaticTable creates a table from a schema and a scan function.
func NewStaticTable(name, comment string, schema *arrow.Schema, scanFunc ScanFunc) *StaticTable {
	return &StaticTable{
		name:     name,
		comment:  comment,
		schema:   schema,
		scanFunc: scanFunc,
	}
}

// StaticTable is an immutable table backed by a ScanFunc.
type StaticTable struct {
	name     string
	comment  string
	schema   *arrow.Schema
	scanFunc ScanFunc
}

// Name implements Table interface.
func (t *StaticTable) Name() string { return t.name }

// Comment implements Table interface.
func (t *StaticTable) Comment() string { return t.comment }

// ArrowSchema implements Table interface.
func (t *StaticTable) ArrowSchema() *arrow.Schema { return t.schema }

// Scan implements Table interface.
func (t *StaticTable) Scan(ctx context.Context, opts *ScanOptions) (array.RecordReader, error) {
	return t.scanFunc(ctx, opts)
}
