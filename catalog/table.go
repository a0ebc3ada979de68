package catalog

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Table represents a queryable table with fixed schema.
// Implementations MUST be goroutine-safe.
type Table interface {
	// Name returns the table name (e.g., "users", "orders").
	Name() string

	// Comment returns optional table documentation.
	Comment() string

	// ArrowSchema returns the schema describing every table column.
	ArrowSchema() *arrow.Schema

	// Scan executes a scan operation and returns a RecordReader.
	// Context allows cancellation; implementation MUST respect ctx.Done().
	// Caller MUST call reader.Release() to free memory.
	// Returned RecordReader schema MUST match ArrowSchema(); columns not
	// listed in opts.Columns may be null.
	Scan(ctx context.Context, opts *ScanOptions) (array.RecordReader, error)
}
