package restapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/restapi-airport/rest"
)

func TestNewServerRequiresCatalog(t *testing.T) {
	err := NewServer(grpc.NewServer(), ServerConfig{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestServerOptions(t *testing.T) {
	if n := len(ServerOptions(ServerConfig{})); n != 2 {
		t.Errorf("expected interceptor options only, got %d", n)
	}
	if n := len(ServerOptions(ServerConfig{MaxMessageSize: 16 << 20})); n != 4 {
		t.Errorf("expected message size options, got %d", n)
	}
}

// Scenario: a caller identity authenticated by bearer token reaches the
// request template of a REST table.
func TestServerPassesIdentityToTemplates(t *testing.T) {
	var gotUser string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.URL.Query().Get("user")
		_, _ = io.WriteString(w, `[{"id": 1}]`)
	}))
	defer api.Close()

	table, err := rest.NewTable("orders", rest.ConnectionConfig{
		Addresses: []string{api.URL},
		URL:       "/orders?user={{.identity}}",
	}, "$", []rest.Field{
		{Name: "id", Direction: rest.DirectionResponse, Type: rest.TypeLong, JSONPath: "$.id"},
	})
	if err != nil {
		t.Fatal(err)
	}
	cat, err := NewCatalogBuilder().Schema("shop").Table(table).Build()
	if err != nil {
		t.Fatal(err)
	}

	config := ServerConfig{
		Catalog: cat,
		Auth:    StaticTokens(map[string]string{"secret": "alice"}),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	grpcServer := grpc.NewServer(ServerOptions(config)...)
	if err := NewServer(grpcServer, config); err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = grpcServer.Serve(lis) }()
	defer grpcServer.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()
	client := flight.NewFlightServiceClient(conn)
	desc := &flight.FlightDescriptor{Type: flight.DescriptorPATH, Path: []string{"shop", "orders"}}

	if _, err := client.GetFlightInfo(context.Background(), desc); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer secret")
	info, err := client.GetFlightInfo(ctx, desc)
	if err != nil {
		t.Fatalf("GetFlightInfo failed: %v", err)
	}
	stream, err := client.DoGet(ctx, info.GetEndpoint()[0].GetTicket())
	if err != nil {
		t.Fatalf("DoGet failed: %v", err)
	}
	reader, err := flight.NewRecordReader(stream)
	if err != nil {
		t.Fatalf("failed to read stream: %v", err)
	}
	defer reader.Release()

	var rows int64
	for reader.Next() {
		rows += reader.Record().NumRows()
	}
	if err := reader.Err(); err != nil {
		t.Fatal(err)
	}
	if rows != 1 || gotUser != "alice" {
		t.Errorf("rows = %d, user = %q", rows, gotUser)
	}
}
