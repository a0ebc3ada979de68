package rest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/google/uuid"

	"github.com/hugr-lab/restapi-airport/catalog"
	"github.com/hugr-lab/restapi-airport/filter"
)

// Scan implements catalog.Table.
//
// Records always carry the full table schema; columns outside
// opts.Columns are null. opts.Filter is DuckDB filter pushdown JSON. If it
// cannot be parsed the scan runs unfiltered, since DuckDB re-applies its
// filters to the returned rows.
func (t *Table) Scan(ctx context.Context, opts *catalog.ScanOptions) (array.RecordReader, error) {
	if opts == nil {
		opts = &catalog.ScanOptions{}
	}

	var projects []int
	if len(opts.Columns) > 0 {
		index := make(map[string]int, len(t.fields))
		for i, f := range t.fields {
			index[f.Name] = i
		}
		projects = make([]int, 0, len(opts.Columns))
		for _, name := range opts.Columns {
			i, ok := index[name]
			if !ok {
				return nil, fmt.Errorf("table %s: unknown column %q", t.name, name)
			}
			projects = append(projects, i)
		}
	}

	var filters []filter.Expression
	var resolve ColumnResolver
	if len(opts.Filter) > 0 {
		fp, err := filter.Parse(opts.Filter)
		if err != nil {
			t.logger.Warn("ignoring unparsable filter", "table", t.name, "error", err)
		} else {
			filters = fp.Filters
			resolve = fp.ColumnName
		}
	}

	rows, err := t.Rows(ctx, filters, resolve, projects)
	if err != nil {
		return nil, err
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = t.batchSize
	}
	return newRecordReader(t, rows, projects, batchSize, opts.Limit), nil
}

// recordReader adapts a RowEnumerator to array.RecordReader.
type recordReader struct {
	refs      atomic.Int64
	table     *Table
	rows      *RowEnumerator
	builder   *array.RecordBuilder
	rowIndex  []int // schema field -> position in row, -1 when not projected
	batchSize int
	limit     int64
	emitted   int64
	cur       arrow.Record
	done      bool
	err       error
}

func newRecordReader(t *Table, rows *RowEnumerator, projects []int, batchSize int, limit int64) *recordReader {
	rowIndex := make([]int, len(t.fields))
	if projects == nil {
		for i := range rowIndex {
			rowIndex[i] = i
		}
	} else {
		for i := range rowIndex {
			rowIndex[i] = -1
		}
		for pos, i := range projects {
			if rowIndex[i] < 0 {
				rowIndex[i] = pos
			}
		}
	}

	r := &recordReader{
		table:     t,
		rows:      rows,
		builder:   array.NewRecordBuilder(t.alloc, t.schema),
		rowIndex:  rowIndex,
		batchSize: batchSize,
		limit:     limit,
	}
	r.refs.Add(1)
	return r
}

func (r *recordReader) Retain() { r.refs.Add(1) }

func (r *recordReader) Release() {
	if r.refs.Add(-1) != 0 {
		return
	}
	if r.cur != nil {
		r.cur.Release()
		r.cur = nil
	}
	r.builder.Release()
	r.rows.Close()
}

func (r *recordReader) Schema() *arrow.Schema { return r.table.schema }

func (r *recordReader) Next() bool {
	if r.cur != nil {
		r.cur.Release()
		r.cur = nil
	}
	if r.done {
		return false
	}

	n := 0
	for n < r.batchSize {
		if r.limit > 0 && r.emitted >= r.limit {
			r.done = true
			break
		}
		if !r.rows.Next() {
			r.done = true
			r.err = r.rows.Err()
			break
		}
		row := r.rows.Row()
		for i, f := range r.table.fields {
			var v any
			if pos := r.rowIndex[i]; pos >= 0 {
				v = row[pos]
			}
			appendValue(r.builder.Field(i), f.Type, v)
		}
		n++
		r.emitted++
	}

	if n == 0 {
		return false
	}
	r.cur = r.builder.NewRecord()
	return true
}

func (r *recordReader) Record() arrow.Record { return r.cur }

// RecordBatch is the newer arrow-go name for Record.
func (r *recordReader) RecordBatch() arrow.Record { return r.cur }

func (r *recordReader) Err() error { return r.err }

// appendValue appends a value produced by Coerce for typ.
func appendValue(b array.Builder, typ Type, v any) {
	if v == nil {
		b.AppendNull()
		return
	}
	switch typ {
	case TypeBoolean:
		b.(*array.BooleanBuilder).Append(v.(bool))
	case TypeByte:
		b.(*array.Int8Builder).Append(v.(int8))
	case TypeShort:
		b.(*array.Int16Builder).Append(v.(int16))
	case TypeInt:
		b.(*array.Int32Builder).Append(v.(int32))
	case TypeLong:
		b.(*array.Int64Builder).Append(v.(int64))
	case TypeFloat:
		b.(*array.Float32Builder).Append(v.(float32))
	case TypeDouble:
		b.(*array.Float64Builder).Append(v.(float64))
	case TypeDate:
		b.(*array.Date32Builder).Append(arrow.Date32(v.(int32)))
	case TypeTime:
		b.(*array.Time32Builder).Append(arrow.Time32(v.(int32)))
	case TypeTimestamp:
		b.(*array.TimestampBuilder).Append(arrow.Timestamp(v.(int64)))
	case TypeUUID:
		u := v.(uuid.UUID)
		b.(*array.FixedSizeBinaryBuilder).Append(u[:])
	default:
		b.(*array.StringBuilder).Append(v.(string))
	}
}
