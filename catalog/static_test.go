package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

var idSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
}, nil)

// testScanFunc creates a scan function returning one empty record.
func testScanFunc(schema *arrow.Schema) ScanFunc {
	return func(ctx context.Context, opts *ScanOptions) (array.RecordReader, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
		defer builder.Release()
		record := builder.NewRecord()
		defer record.Release()
		return array.NewRecordReader(schema, []arrow.Record{record})
	}
}

func testTable(name string) *StaticTable {
	return NewStaticTable(name, "", idSchema, testScanFunc(idSchema))
}

func TestStaticCatalogSchemasOrdered(t *testing.T) {
	cat := NewStaticCatalog()
	cat.AddSchema("zeta", "Last schema", nil)
	cat.AddSchema("alpha", "First schema", nil)

	schemas, err := cat.Schemas(context.Background())
	if err != nil {
		t.Fatalf("Schemas() failed: %v", err)
	}
	if len(schemas) != 2 {
		t.Fatalf("Expected 2 schemas, got %d", len(schemas))
	}
	if schemas[0].Name() != "alpha" || schemas[1].Name() != "zeta" {
		t.Errorf("schemas not ordered by name: %s, %s", schemas[0].Name(), schemas[1].Name())
	}
	if schemas[0].Comment() != "First schema" {
		t.Errorf("Expected comment 'First schema', got '%s'", schemas[0].Comment())
	}
}

func TestStaticCatalogSchemaLookup(t *testing.T) {
	cat := NewStaticCatalog()
	cat.AddSchema("test", "Test schema", nil)

	ctx := context.Background()
	schema, err := cat.Schema(ctx, "test")
	if err != nil || schema == nil {
		t.Fatalf("Schema() = %v, %v", schema, err)
	}
	if schema.Name() != "test" {
		t.Errorf("Expected schema name 'test', got '%s'", schema.Name())
	}

	schema, err = cat.Schema(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Schema() failed for nonexistent: %v", err)
	}
	if schema != nil {
		t.Error("Expected nil for nonexistent schema")
	}
}

func TestStaticSchemaTables(t *testing.T) {
	cat := NewStaticCatalog()
	cat.AddSchema("test", "", []Table{testTable("orders"), testTable("customers")})

	ctx := context.Background()
	schema, _ := cat.Schema(ctx, "test")

	tables, err := schema.Tables(ctx)
	if err != nil {
		t.Fatalf("Tables() failed: %v", err)
	}
	if len(tables) != 2 || tables[0].Name() != "customers" || tables[1].Name() != "orders" {
		t.Errorf("unexpected tables %v", tables)
	}

	table, err := schema.Table(ctx, "orders")
	if err != nil || table == nil || table.Name() != "orders" {
		t.Fatalf("Table(orders) = %v, %v", table, err)
	}
	table, err = schema.Table(ctx, "nonexistent")
	if err != nil || table != nil {
		t.Errorf("Table(nonexistent) = %v, %v, want nil, nil", table, err)
	}
}

func TestStaticTableProperties(t *testing.T) {
	table := NewStaticTable("users", "User accounts", idSchema, testScanFunc(idSchema))

	if table.Name() != "users" {
		t.Errorf("Expected name 'users', got '%s'", table.Name())
	}
	if table.Comment() != "User accounts" {
		t.Errorf("Expected comment 'User accounts', got '%s'", table.Comment())
	}
	if table.ArrowSchema() != idSchema {
		t.Error("Arrow schema mismatch")
	}

	reader, err := table.Scan(context.Background(), &ScanOptions{})
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	defer reader.Release()
	if !reader.Schema().Equal(idSchema) {
		t.Error("reader schema mismatch")
	}
}

func TestStaticCatalogConcurrentAccess(t *testing.T) {
	cat := NewStaticCatalog()
	cat.AddSchema("test", "Test schema", []Table{testTable("table1")})

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cat.Schemas(ctx); err != nil {
				errs <- err
				return
			}
			if _, err := Lookup(ctx, cat, "test", "table1"); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent access error: %v", err)
	}
}

func TestStaticTableScanCancelled(t *testing.T) {
	cat := NewStaticCatalog()
	cat.AddSchema("test", "Test schema", []Table{testTable("table1")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, err := Lookup(ctx, cat, "test", "table1")
	if err != nil {
		t.Fatalf("Lookup should not fail on cancelled context: %v", err)
	}
	if _, err := table.Scan(ctx, &ScanOptions{}); err == nil {
		t.Error("Expected error from Scan() with cancelled context")
	}
}
