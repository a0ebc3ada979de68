package flight

import (
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/restapi-airport/catalog"
	"github.com/hugr-lab/restapi-airport/internal/recovery"
)

// DoGet streams Arrow record batches for a table query.
//
// The ticket must be encoded using EncodeTicket. The handler:
//  1. Decodes the ticket to get the table, projection and filters
//  2. Looks up the table in the catalog
//  3. Scans the table with metadata properties attached to the context
//  4. Streams record batches using Arrow IPC format
//
// Records always carry the full table schema; DuckDB projects client-side.
func (s *Server) DoGet(ticket *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	ticketData, err := DecodeTicket(ticket.GetTicket())
	if err != nil {
		s.logger.Error("Failed to decode ticket", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid ticket: %v", err)
	}

	logger := s.logger.With("schema", ticketData.Schema, "table", ticketData.Table)
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}
	logger.Debug("DoGet request", "columns", ticketData.Columns, "has_filter", len(ticketData.Filter) > 0)

	table, err := catalog.Lookup(ctx, s.catalog, ticketData.Schema, ticketData.Table)
	if err != nil {
		return statusFromError(err, "table lookup failed")
	}

	scanOpts := ticketData.ToScanOptions()
	reader, err := recovery.RecoverToValue(logger, "Scan", func() (array.RecordReader, error) {
		return table.Scan(scanContext(ctx), scanOpts)
	})
	if err != nil {
		logger.Error("Table scan failed", "error", err)
		return statusFromError(err, "table scan failed")
	}
	defer reader.Release()

	fullSchema := table.ArrowSchema()
	if !fullSchema.Equal(reader.Schema()) {
		logger.Error("RecordReader schema does not match table schema",
			"table_schema_fields", fullSchema.NumFields(),
			"reader_schema_fields", reader.Schema().NumFields(),
		)
		return status.Errorf(codes.Internal,
			"schema mismatch: table has %d fields, reader has %d fields",
			fullSchema.NumFields(), reader.Schema().NumFields())
	}

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(fullSchema), ipc.WithAllocator(s.allocator))
	defer writer.Close()

	batchCount := 0
	totalRows := int64(0)
	err = recovery.RecoverToError(logger, "Read", func() error {
		for reader.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			record := reader.Record()
			batchCount++
			totalRows += record.NumRows()

			if err := writer.Write(record); err != nil {
				return status.Errorf(codes.Internal, "failed to write batch %d: %v", batchCount, err)
			}
			logger.Debug("Sent record batch", "batch", batchCount, "rows_in_batch", record.NumRows())
		}
		return reader.Err()
	})
	if err != nil {
		logger.Error("DoGet failed", "batches_sent", batchCount, "rows_sent", totalRows, "error", err)
		return statusFromError(err, "scan failed")
	}

	logger.Debug("DoGet completed", "batches_sent", batchCount, "total_rows", totalRows)
	return nil
}
