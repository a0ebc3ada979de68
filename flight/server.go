// Package flight implements the Arrow Flight handlers of the DuckDB Airport
// protocol over a read-only catalog.
package flight

import (
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/restapi-airport/catalog"
)

// Server implements the Flight service handlers.
// Embeds BaseFlightServer so unsupported RPCs answer Unimplemented.
type Server struct {
	flight.BaseFlightServer

	catalog   catalog.Catalog
	allocator memory.Allocator
	logger    *slog.Logger
	address   string // public address for FlightEndpoint locations
}

// NewServer creates a Flight server over cat.
// address is the server's public address for FlightEndpoint locations and
// may be empty.
func NewServer(cat catalog.Catalog, allocator memory.Allocator, logger *slog.Logger, address string) *Server {
	return &Server{
		catalog:   cat,
		allocator: allocator,
		logger:    logger,
		address:   address,
	}
}

// RegisterFlightServer registers the Flight service on the provided gRPC server.
func RegisterFlightServer(grpcServer *grpc.Server, flightServer *Server) {
	flight.RegisterFlightServiceServer(grpcServer, flightServer)
}
