package restapi

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/restapi-airport/flight"
)

// NewServer registers the Flight service handlers on the provided gRPC server.
//
// Returns error if config is invalid (e.g., nil Catalog).
// Does NOT start the gRPC server - user controls lifecycle via grpcServer.Serve().
//
// Create the gRPC server with ServerOptions so request metadata reaches the
// table templates and authentication is enforced:
//
//	opts := restapi.ServerOptions(config)
//	grpcServer := grpc.NewServer(opts...)
//	if err := restapi.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
func NewServer(grpcServer *grpc.Server, config ServerConfig) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	allocator := config.Allocator
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}

	flightServer := flight.NewServer(config.Catalog, allocator, serverLogger(config), config.Address)
	flight.RegisterFlightServer(grpcServer, flightServer)

	serverLogger(config).Info("Flight server registered",
		"has_auth", config.Auth != nil,
		"max_message_size", config.MaxMessageSize,
		"address", config.Address,
	)
	return nil
}

func serverLogger(config ServerConfig) *slog.Logger {
	switch {
	case config.Logger != nil:
		return config.Logger
	case config.LogLevel != nil:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: *config.LogLevel}))
	default:
		return slog.Default()
	}
}

func validateConfig(config ServerConfig) error {
	if config.Catalog == nil {
		return fmt.Errorf("catalog is required")
	}
	if config.MaxMessageSize < 0 {
		return fmt.Errorf("max message size must not be negative")
	}
	return nil
}

// ServerOptions returns gRPC server options with the metadata and
// authentication interceptors, and the message size limits of config.
func ServerOptions(config ServerConfig) []grpc.ServerOption {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(flight.UnaryServerInterceptor(config.Auth)),
		grpc.ChainStreamInterceptor(flight.StreamServerInterceptor(config.Auth)),
	}

	if config.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(config.MaxMessageSize),
			grpc.MaxSendMsgSize(config.MaxMessageSize),
		)
	}
	return opts
}
