// Package restapi serves REST/JSON APIs as read-only tables to DuckDB over
// Apache Arrow Flight, using the protocol of the DuckDB Airport extension.
//
// Each table is a *rest.Table: a remote endpoint, request templates, and
// declared columns extracted from the JSON response. Queries push their
// filters into the request where possible, and results are paged in as
// Arrow records.
//
// # Quick Start
//
//	svc, err := descriptor.Load("github.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	builder := restapi.NewCatalogBuilder()
//	if _, err := builder.Service(svc); err != nil {
//	    log.Printf("some tables skipped: %v", err)
//	}
//	cat, err := builder.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	config := restapi.ServerConfig{Catalog: cat}
//	grpcServer := grpc.NewServer(restapi.ServerOptions(config)...)
//	if err := restapi.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
//
// From DuckDB:
//
//	ATTACH 'github' (TYPE AIRPORT, LOCATION 'grpc://localhost:50051');
//	SELECT name FROM github.repos WHERE org = 'duckdb';
//
// # Architecture
//
//   - catalog: Catalog, Schema and Table interfaces and a static catalog
//   - rest: REST tables, predicate pushdown, failover and pagination
//   - filter: DuckDB filter pushdown JSON and its DNF normalization
//   - render: request templates
//   - descriptor: YAML/JSON/TOML service descriptors
//   - flight: the Flight handlers
//
// # Server Lifecycle
//
// The package registers Flight service handlers on a user-provided grpc.Server
// but does NOT manage server lifecycle (start/stop/listen). This gives users
// full control over:
//   - TLS configuration via grpc.Creds()
//   - Server options and interceptors
//   - Graceful shutdown via grpcServer.GracefulStop()
//
// # Authentication
//
// Bearer tokens are validated by an Authenticator. The authenticated
// identity, the raw authorization header and headers prefixed with
// "restapi-prop-" are available to request templates:
//
//	headers:
//	  - name: Authorization
//	    value: "{{.authorization}}"
//
// # Memory Management
//
// Arrow uses manual reference counting. Callers MUST call Release() on
// RecordReaders returned by Table.Scan.
package restapi
