package catalog

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/array"
)

// ScanOptions provides options for table scans.
type ScanOptions struct {
	// Columns to return. If nil/empty, return all columns.
	Columns []string

	// Filter is the DuckDB filter pushdown JSON (see package filter).
	// If nil, no filtering (return all rows).
	Filter []byte

	// Limit is maximum rows to return.
	// If 0 or negative, no limit.
	Limit int64

	// BatchSize is hint for RecordReader batch size.
	// If 0, implementation chooses default.
	BatchSize int
}

// ScanFunc is a function type for table data retrieval.
type ScanFunc func(ctx context.Context, opts *ScanOptions) (array.RecordReader, error)
