package restapi

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/restapi-airport/catalog"
	"github.com/hugr-lab/restapi-airport/descriptor"
	"github.com/hugr-lab/restapi-airport/rest"
)

// SimpleTableDef defines a table with fixed schema served by a scan
// function rather than a REST API.
// Used with SchemaBuilder.SimpleTable().
type SimpleTableDef struct {
	// Name is the table name (e.g., "users", "orders").
	// REQUIRED: MUST be non-empty and unique within schema.
	Name string

	// Comment is optional table documentation.
	Comment string

	// Schema is the Arrow schema describing table columns.
	// REQUIRED: MUST NOT be nil.
	Schema *arrow.Schema

	// ScanFunc provides table data as RecordReader.
	// REQUIRED: MUST NOT be nil.
	ScanFunc catalog.ScanFunc
}

// CatalogBuilder builds static catalogs using fluent API.
// Not thread-safe - use only during initialization.
type CatalogBuilder struct {
	schemas []*schemaBuilder
	built   bool
}

// NewCatalogBuilder creates a new fluent catalog builder.
//
// Example:
//
//	orders, _ := rest.NewTable("orders", conn, "$.data", fields)
//	cat, err := restapi.NewCatalogBuilder().
//	    Schema("shop").
//	        Comment("Shop API").
//	        Table(orders).
//	    Build()
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{}
}

// Schema starts defining a new schema.
// Schema name MUST be non-empty and unique within catalog.
func (cb *CatalogBuilder) Schema(name string) *SchemaBuilder {
	sb := &schemaBuilder{
		name:           name,
		catalogBuilder: cb,
	}
	cb.schemas = append(cb.schemas, sb)
	return &SchemaBuilder{builder: sb}
}

// Service adds a schema holding the tables of a REST service descriptor.
// Tables that fail validation are left out and reported in the returned
// error; the schema is added with the remaining tables either way.
func (cb *CatalogBuilder) Service(svc *descriptor.Service, opts ...rest.Option) (*SchemaBuilder, error) {
	tables, err := svc.BuildTables(opts...)
	sb := cb.Schema(svc.Schema).Comment(svc.Description)
	for _, t := range tables {
		sb.Table(t)
	}
	return sb, err
}

// Build finalizes the catalog and returns immutable Catalog implementation.
// Can only be called once.
// Returns error if catalog is invalid (e.g., duplicate schema names).
func (cb *CatalogBuilder) Build() (catalog.Catalog, error) {
	if cb.built {
		return nil, fmt.Errorf("catalog already built")
	}

	seenNames := make(map[string]bool)
	for _, sb := range cb.schemas {
		if sb.name == "" {
			return nil, fmt.Errorf("schema name cannot be empty")
		}
		if seenNames[sb.name] {
			return nil, fmt.Errorf("duplicate schema name: %s", sb.name)
		}
		seenNames[sb.name] = true

		tableNames := make(map[string]bool)
		for _, table := range sb.tables {
			if table == nil {
				return nil, fmt.Errorf("nil table in schema %s", sb.name)
			}
			name := table.Name()
			if name == "" {
				return nil, fmt.Errorf("table name cannot be empty in schema %s", sb.name)
			}
			if tableNames[name] {
				return nil, fmt.Errorf("duplicate table name %s in schema %s", name, sb.name)
			}
			tableNames[name] = true

			if table.ArrowSchema() == nil {
				return nil, fmt.Errorf("table %s.%s has nil schema", sb.name, name)
			}
		}
		for _, def := range sb.simple {
			if def.ScanFunc == nil {
				return nil, fmt.Errorf("table %s.%s has nil scan function", sb.name, def.Name)
			}
		}
	}

	cb.built = true

	cat := catalog.NewStaticCatalog()
	for _, sb := range cb.schemas {
		cat.AddSchema(sb.name, sb.comment, sb.tables)
	}
	return cat, nil
}

// SchemaBuilder builds a schema within a catalog.
// Not thread-safe - use only during initialization.
type SchemaBuilder struct {
	builder *schemaBuilder
}

type schemaBuilder struct {
	name           string
	comment        string
	tables         []catalog.Table
	simple         []SimpleTableDef
	catalogBuilder *CatalogBuilder
}

// Comment sets optional schema documentation.
func (sb *SchemaBuilder) Comment(comment string) *SchemaBuilder {
	sb.builder.comment = comment
	return sb
}

// Table adds a table, typically a *rest.Table.
// Table name MUST be unique within schema.
func (sb *SchemaBuilder) Table(table catalog.Table) *SchemaBuilder {
	sb.builder.tables = append(sb.builder.tables, table)
	return sb
}

// SimpleTable adds a table with fixed schema using SimpleTableDef.
//
// Example:
//
//	schema.SimpleTable(restapi.SimpleTableDef{
//	    Name:     "regions",
//	    Comment:  "Known regions",
//	    Schema:   regionSchema,
//	    ScanFunc: scanRegions,
//	})
func (sb *SchemaBuilder) SimpleTable(def SimpleTableDef) *SchemaBuilder {
	sb.builder.simple = append(sb.builder.simple, def)
	sb.builder.tables = append(sb.builder.tables, catalog.NewStaticTable(def.Name, def.Comment, def.Schema, def.ScanFunc))
	return sb
}

// Schema starts a new schema definition (returns to CatalogBuilder).
// Allows chaining: Schema("a").Table(...).Schema("b").Table(...)
func (sb *SchemaBuilder) Schema(name string) *SchemaBuilder {
	return sb.builder.catalogBuilder.Schema(name)
}

// Build finalizes the catalog (returns to CatalogBuilder).
func (sb *SchemaBuilder) Build() (catalog.Catalog, error) {
	return sb.builder.catalogBuilder.Build()
}
