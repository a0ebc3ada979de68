package flight

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/restapi-airport/internal/serialize"
)

// ListFlights returns a single FlightInfo whose ticket is the zstd
// compressed Arrow IPC listing of every table (see serialize.TablesSchema).
// Criteria are ignored.
func (s *Server) ListFlights(criteria *flight.Criteria, stream flight.FlightService_ListFlightsServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	s.logger.Debug("ListFlights called")

	catalogData, err := serialize.SerializeCatalog(ctx, s.catalog, s.allocator)
	if err != nil {
		s.logger.Error("Failed to serialize catalog", "error", err)
		return status.Errorf(codes.Internal, "failed to serialize catalog: %v", err)
	}

	s.logger.Debug("Catalog serialized",
		"uncompressed_bytes", len(catalogData),
	)

	compressed, err := serialize.Compress(catalogData)
	if err != nil {
		s.logger.Error("Failed to compress catalog", "error", err)
		return status.Errorf(codes.Internal, "failed to compress catalog: %v", err)
	}

	compressionRatio := float64(len(catalogData)) / float64(len(compressed))
	s.logger.Debug("Catalog compressed",
		"uncompressed_bytes", len(catalogData),
		"compressed_bytes", len(compressed),
		"compression_ratio", compressionRatio,
	)

	descriptor := &flight.FlightDescriptor{
		Type: flight.DescriptorCMD,
		Cmd:  []byte("ListFlights"),
	}

	flightInfo := &flight.FlightInfo{
		FlightDescriptor: descriptor,
		Endpoint: []*flight.FlightEndpoint{
			{
				Ticket: &flight.Ticket{
					Ticket: compressed,
				},
			},
		},
		TotalRecords: -1,
		TotalBytes:   int64(len(compressed)),
	}

	if err := stream.Send(flightInfo); err != nil {
		s.logger.Error("Failed to send FlightInfo", "error", err)
		return status.Errorf(codes.Internal, "failed to send flight info: %v", err)
	}

	s.logger.Debug("ListFlights completed successfully",
		"compressed_bytes", len(compressed),
	)

	return nil
}
