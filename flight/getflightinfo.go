package flight

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/restapi-airport/catalog"
	"github.com/hugr-lab/restapi-airport/internal/msgpack"
)

// GetFlightInfo returns schema metadata and ticket for table queries.
// The descriptor.Path should contain [schema_name, table_name].
func (s *Server) GetFlightInfo(ctx context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	if desc.GetType() != flight.DescriptorPATH {
		return nil, status.Error(codes.InvalidArgument, "descriptor must be PATH type")
	}
	path := desc.GetPath()
	if len(path) != 2 {
		return nil, status.Error(codes.InvalidArgument, "path must contain exactly 2 elements: [schema_name, table_name]")
	}
	schemaName, tableName := path[0], path[1]

	s.logger.Debug("GetFlightInfo request", "schema", schemaName, "table", tableName)

	table, err := catalog.Lookup(ctx, s.catalog, schemaName, tableName)
	if err != nil {
		return nil, statusFromError(err, "table lookup failed")
	}

	info, err := s.tableFlightInfo(schemaName, table)
	if err != nil {
		s.logger.Error("Failed to build flight info", "schema", schemaName, "table", tableName, "error", err)
		return nil, status.Errorf(codes.Internal, "failed to build flight info: %v", err)
	}
	return info, nil
}

// tableFlightInfo describes a table the way the Airport extension expects
// it in schema contents: a PATH descriptor, the full Arrow schema, one
// endpoint with an unfiltered ticket, and msgpack app metadata.
func (s *Server) tableFlightInfo(schemaName string, table catalog.Table) (*flight.FlightInfo, error) {
	arrowSchema := table.ArrowSchema()
	if arrowSchema == nil {
		return nil, fmt.Errorf("table %s.%s has nil Arrow schema", schemaName, table.Name())
	}

	ticket, err := EncodeTicket(TicketData{Schema: schemaName, Table: table.Name()})
	if err != nil {
		return nil, err
	}

	appMetadata, err := msgpack.Encode(map[string]any{
		"type":         "table",
		"schema":       schemaName,
		"catalog":      "",
		"name":         table.Name(),
		"comment":      table.Comment(),
		"input_schema": nil,
		"action_name":  nil,
		"description":  nil,
		"extra_data":   nil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode app metadata: %w", err)
	}

	return &flight.FlightInfo{
		Schema: flight.SerializeSchema(arrowSchema, s.allocator),
		FlightDescriptor: &flight.FlightDescriptor{
			Type: flight.DescriptorPATH,
			Path: []string{schemaName, table.Name()},
		},
		Endpoint:     []*flight.FlightEndpoint{s.endpoint(ticket)},
		TotalRecords: -1, // unknown until the remote API is queried
		TotalBytes:   -1,
		AppMetadata:  appMetadata,
	}, nil
}

func (s *Server) endpoint(ticket []byte) *flight.FlightEndpoint {
	ep := &flight.FlightEndpoint{Ticket: &flight.Ticket{Ticket: ticket}}
	if s.address != "" {
		ep.Location = []*flight.Location{{Uri: "grpc://" + s.address}}
	}
	return ep
}
